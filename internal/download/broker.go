package download

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/shared/id"
	"github.com/ciphernotes/shell/internal/storage"
	"go.uber.org/zap"
)

// User-visible outcomes.
const (
	MessageExported      = "Exported to Downloads"
	MessageFailedPrefix  = "Export failed: "
	MessageStorageDenied = "Storage permission denied"
)

const (
	defaultQueueSize    = 16
	defaultWriteTimeout = 30 * time.Second

	outcomeWritten = "written"
	outcomeInvalid = "invalid"
	outcomeDenied  = "denied"
	outcomeFailed  = "failed"
)

// ErrClosed is reported for exports after the broker shut down.
var ErrClosed = errors.New("exporter closed")

// Poster schedules work on the interactive loop.
type Poster interface {
	Post(fn func()) error
}

type job struct {
	id       id.ExportID
	payload  Payload
	filename string
}

// Broker turns export requests into files in shared storage. Export and the
// permission callback run on the interactive loop; decoding and writing run
// on a dedicated writer goroutine. Outcomes are posted back to the loop and
// shown through the Notifier.
type Broker struct {
	caps     platform.Capabilities
	gate     *permission.Gate
	store    storage.Writer
	notifier platform.Notifier
	loop     Poster
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	timeout  time.Duration

	pending *job

	mu     sync.Mutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

// Deps are the collaborators of a Broker.
type Deps struct {
	Capabilities platform.Capabilities
	Gate         *permission.Gate
	Store        storage.Writer
	Notifier     platform.Notifier
	Loop         Poster
	Logger       *zap.Logger
	Metrics      *monitoring.Metrics
	QueueSize    int
	WriteTimeout time.Duration
}

// NewBroker creates a broker and starts its writer.
func NewBroker(deps Deps) *Broker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	queue := deps.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}
	timeout := deps.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	b := &Broker{
		caps:     deps.Capabilities,
		gate:     deps.Gate,
		store:    deps.Store,
		notifier: deps.Notifier,
		loop:     deps.Loop,
		logger:   logger,
		metrics:  deps.Metrics,
		timeout:  timeout,
		jobs:     make(chan job, queue),
		done:     make(chan struct{}),
	}
	go b.writer()
	return b
}

// Export requests that payload (a data URL) be saved as filename. The
// outcome is only ever reported through the Notifier.
func (b *Broker) Export(payload, filename string) {
	p, err := ParsePayload(payload)
	if err != nil {
		b.fail(outcomeInvalid, filename, err)
		return
	}
	if err := storage.ValidateName(filename); err != nil {
		b.fail(outcomeInvalid, filename, err)
		return
	}
	name := filename

	j := job{id: id.NewExportID(), payload: p, filename: name}

	if b.caps.RequiresExplicitStoragePermission && !b.gate.Granted(platform.CapabilityStorageWrite) {
		if b.pending != nil {
			b.logger.Warn("replacing export awaiting storage permission",
				zap.String("replaced", b.pending.filename),
				zap.String("filename", name),
			)
			b.pending = &j
			return
		}
		b.pending = &j
		b.gate.Request(platform.CapabilityStorageWrite, b.onStoragePermission)
		return
	}

	b.dispatch(j)
}

// Pending returns the filename of the export awaiting storage permission.
func (b *Broker) Pending() (string, bool) {
	if b.pending == nil {
		return "", false
	}
	return b.pending.filename, true
}

func (b *Broker) onStoragePermission(granted bool) {
	j := b.pending
	b.pending = nil
	if j == nil {
		return
	}
	if !granted {
		b.metrics.RecordExport(outcomeDenied)
		b.logger.Info("export discarded, storage permission denied", zap.String("filename", j.filename))
		b.notify(MessageStorageDenied)
		return
	}
	b.dispatch(*j)
}

func (b *Broker) dispatch(j job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.fail(outcomeFailed, j.filename, ErrClosed)
		return
	}
	select {
	case b.jobs <- j:
		b.logger.Debug("export queued", zap.String("export_id", j.id.String()), zap.String("filename", j.filename))
	default:
		b.fail(outcomeFailed, j.filename, errors.New("too many exports in progress"))
	}
}

func (b *Broker) writer() {
	defer close(b.done)
	for j := range b.jobs {
		err := b.write(j)
		b.post(func() {
			if err != nil {
				b.fail(outcomeFailed, j.filename, err)
				return
			}
			b.metrics.RecordExport(outcomeWritten)
			b.notify(MessageExported)
		})
	}
}

func (b *Broker) write(j job) error {
	data, err := j.payload.Decode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	loc, err := b.store.Write(ctx, storage.Object{
		Name:     j.filename,
		MimeType: j.payload.MimeType,
		Data:     data,
	})
	if err != nil {
		return err
	}
	b.logger.Info("export written",
		zap.String("export_id", j.id.String()),
		zap.String("location", loc),
		zap.String("mime", j.payload.MimeType),
	)
	return nil
}

// post runs fn on the interactive loop, or inline when the loop is gone.
func (b *Broker) post(fn func()) {
	if b.loop == nil {
		fn()
		return
	}
	if err := b.loop.Post(fn); err != nil {
		fn()
	}
}

func (b *Broker) fail(outcome, filename string, err error) {
	b.metrics.RecordExport(outcome)
	b.logger.Error("export failed", zap.String("filename", filename), zap.Error(err))
	b.notify(MessageFailedPrefix + err.Error())
}

func (b *Broker) notify(msg string) {
	if b.notifier != nil {
		b.notifier.Notify(msg)
	}
}

// Close stops accepting exports and waits for queued writes to finish.
// Their notifications are still posted.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()
	<-b.done
}
