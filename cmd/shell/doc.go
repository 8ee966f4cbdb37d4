// Package main is the entry point for the Ciphernotes local web shell.
//
// The shell serves the bundled web application on its local origin and
// stands between the page and the native host for uploads, exports,
// permissions and navigation.
//
// Architecture:
//
//	Page (browsing surface) → shell HTTP (assets, /bridge) → brokers
//	Native host ⇄ /hostlink WebSocket ⇄ brokers, gate, policy
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	ciphernotes-shell serve --port 8000 --api-level 34
//	ciphernotes-shell resolve /index.html /app.js
//	ciphernotes-shell launch-url https://ciphernotes.com/notes/42
//	ciphernotes-shell navigate https://example.org/
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
