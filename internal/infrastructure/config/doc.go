// Package config handles loading and validating ratpadd configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with RATPAD_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables
//   - The API binds to 127.0.0.1 by default; it has no authentication
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Port)
package config
