// Package config loads, normalizes, and validates the TOML configuration.
//
// All paths come from the config file; nothing is hard-coded. A missing or
// invalid required setting is fatal to the whole run before any file is
// touched.
package config
