// Package download saves page exports (base64 data URLs) into shared
// storage.
//
// Where the platform demands an explicit storage permission, one export at a
// time may wait for it; a newer export replaces the waiting one without a
// second prompt. Decoding and writing happen off the interactive loop, and
// the user hears about every export exactly once: "Exported to Downloads",
// "Export failed: <reason>" or "Storage permission denied".
package download
