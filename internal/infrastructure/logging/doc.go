// Package logging provides structured logging for ratpadd.
//
// It wraps log/slog with JSON or text output, level filtering and the
// default fields service=ratpadd and version on every record.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("pad connected", "port", port)
//	store.SetLogger(logger.Component("store"))
//
// *Logger satisfies the small Logger interfaces declared by the bridge,
// transport and telemetry packages.
package logging
