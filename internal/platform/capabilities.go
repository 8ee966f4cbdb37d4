package platform

// StorageStrategy selects how exports reach shared storage.
type StorageStrategy int

const (
	// ManagedInsertion inserts a catalog entry, writes bytes, then marks the
	// entry complete. No storage permission is needed.
	ManagedInsertion StorageStrategy = iota
	// DirectFilesystemWrite writes into the public downloads directory and
	// asks the OS to index the file.
	DirectFilesystemWrite
)

func (s StorageStrategy) String() string {
	if s == DirectFilesystemWrite {
		return "direct"
	}
	return "managed"
}

const (
	scopedStorageLevel    = 29
	persistableGrantLevel = 19
)

// Capabilities describes what the platform supports. It is resolved once at
// startup and passed to components; nothing branches on API levels later.
type Capabilities struct {
	RequiresExplicitStoragePermission bool
	StorageStrategy                   StorageStrategy
	CameraAvailable                   bool
	PersistableGrants                 bool
}

// Resolve derives the capability descriptor from the platform API level.
func Resolve(apiLevel int, cameraAvailable bool) Capabilities {
	caps := Capabilities{
		CameraAvailable:   cameraAvailable,
		PersistableGrants: apiLevel >= persistableGrantLevel,
	}
	if apiLevel >= scopedStorageLevel {
		caps.StorageStrategy = ManagedInsertion
	} else {
		caps.StorageStrategy = DirectFilesystemWrite
		caps.RequiresExplicitStoragePermission = true
	}
	return caps
}
