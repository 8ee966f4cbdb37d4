// Package upload brokers file selection between the page and the OS.
//
// One selection is in flight at a time. Begin supersedes any earlier one,
// optionally waits for the camera permission, and launches a picker (wrapped
// in a chooser with a capture alternative when the camera is usable). The OS
// result is matched by token and delivered once through the selection's Sink.
package upload
