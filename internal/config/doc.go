// Package config loads and saves the bobil configuration file.
//
// The file is YAML and lives in a platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/bobil/config.yaml or $HOME/.config/bobil/config.yaml
//   - macOS: $HOME/.config/bobil/config.yaml
//   - Windows: %LOCALAPPDATA%\bobil\config.yaml
//
// Example file:
//
//	version: 1
//	device:
//	  host: 192.168.4.1
//	  timeout: 10s
//	  poll_interval: 30s
//	  settle_delay: 2s  # negative disables
//	server:
//	  listen: :8080
//	log_level: info
//
// Missing fields take their defaults and command-line flags override whatever
// the file says. Saves are atomic (write to a temporary file, then rename).
package config
