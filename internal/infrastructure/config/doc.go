// Package config handles loading and validating lightsd configuration.
//
// This package manages:
//   - Loading configuration from a YAML file
//   - Overriding with LIGHTSD_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - MQTT and InfluxDB credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("/etc/lightsd/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Topic)
package config
