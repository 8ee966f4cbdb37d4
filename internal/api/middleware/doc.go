// Package middleware provides HTTP middleware for the shell's page-facing
// endpoints.
//
// Middleware stack includes:
//   - CORS: only the local origin may call the bridge
//   - RateLimit: per-IP token bucket with idle client eviction
//
// Example Usage:
//
//	bridge := router.Group("/bridge")
//	bridge.Use(middleware.CORS(middleware.LocalOriginCORSConfig("ciphernotes.com")))
//	bridge.Use(middleware.RateLimit(middleware.RateLimitConfig{RequestsPerSecond: 20, Burst: 40}))
package middleware
