// Package config provides configuration loading, validation, and hot
// reloading for the Courier dispatch core.
//
// Configuration is loaded from a YAML file, defaults are applied, and the
// result is validated before use. Environment variables using the COURIER_
// prefix override file values, which keeps secrets such as API keys out of
// checked-in configuration.
//
// Example:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("courier.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The Watcher type reloads the file on change using fsnotify with
// debouncing, so the host service can pick up provider changes without a
// restart.
package config
