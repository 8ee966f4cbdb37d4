// Package cli implements the ciphernotes-shell command line: serve runs the
// listener, resolve, launch-url and navigate inspect the asset router and
// navigation policy without starting it.
package cli
