// Package config provides 12-factor configuration for the shell.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables.
//
// Configuration Sections:
//   - Server: HTTP listener (port, host)
//   - Shell: local origin, bundle location, downloads subdirectory
//   - Platform: API level and camera presence feeding the capability descriptor
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting for the page bridge
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Shell serving https://%s via %s:%s\n", cfg.Shell.LocalHost, cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOCAL_HOST, ASSET_ROOT, ASSET_DIR, INDEX_DOCUMENT, DOWNLOADS_SUBDIR,
//     USER_AGENT_SUFFIX, INTERNAL_HOSTS
//   - PLATFORM_API_LEVEL, CAMERA_AVAILABLE, STORAGE_ROOT, CAPTURE_DIR
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
