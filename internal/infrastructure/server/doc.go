// Package server assembles the shell's HTTP listener: middleware, bridge and
// tooling routes, the host link endpoint, metrics, and the bundled web
// application as the fallback route.
package server
