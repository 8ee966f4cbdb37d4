// Package web embeds the default Ciphernotes bundle served when no on-disk
// asset directory is configured.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:www
var bundle embed.FS

// Bundle returns the embedded files. Paths are rooted at "www/".
func Bundle() fs.FS {
	return bundle
}
