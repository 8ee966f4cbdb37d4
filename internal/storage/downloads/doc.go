// Package downloads writes exports directly into the public downloads
// directory. Used on platforms without managed shared storage, where the
// storage write permission must be held first.
package downloads
