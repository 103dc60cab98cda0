// Package config loads pagegate's runtime settings.
//
// Values are resolved in this order, later steps winning:
//
//	built-in defaults
//	YAML file (-config flag or PAGEGATE_CONFIG)
//	PAGEGATE_* environment variables
package config
