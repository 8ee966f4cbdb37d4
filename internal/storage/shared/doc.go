// Package shared implements managed shared storage for exports.
//
// The OS-owned downloads collection is modelled as a sqlite catalog next to a
// file tree. Each export inserts a pending catalog row, writes the bytes,
// then marks the row complete. Clashing display names get a " (n)" suffix.
package shared
