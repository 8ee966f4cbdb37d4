// Package http provides the shell's HTTP handlers: the page bridge
// (POST /bridge/export), navigation and deep-link lookups for tooling, the
// shared-storage listing and the health report. Assets are served by the
// assets package and the host link by hostlink.
package http
