package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Inventory summarises an on-disk bundle.
type Inventory struct {
	Files  int
	Bytes  int64
	ByType map[string]int
}

// TakeInventory walks dir and counts the files the router would serve,
// grouped by resolved MIME type.
func TakeInventory(dir string, r *Router) (Inventory, error) {
	inv := Inventory{ByType: make(map[string]int)}
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		mimeType := r.MimeType(filepath.ToSlash(rel))

		mu.Lock()
		inv.Files++
		inv.Bytes += info.Size()
		inv.ByType[mimeType]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		return Inventory{}, fmt.Errorf("inventory %s: %w", dir, err)
	}
	return inv, nil
}
