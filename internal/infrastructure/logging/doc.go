// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a named child logger so every line carries the
// component that produced it (assets, upload, download, hostlink, ...).
//
// Example Usage:
//
//	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	uploads := upload.NewBroker(..., logger.Component("upload"))
//	logger.Info("Shell starting", zap.String("port", "8000"))
package logging
