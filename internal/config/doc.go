// Package config provides configuration management for feedback.
//
// Settings live in a TOML file (default ~/.config/feedback/config.toml)
// with sections for downloads, network, the UI and tagging.
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 3 concurrent downloads, 300s transfer timeout
//	// feeds fetched with a 30s timeout, unlimited episodes
//
// # Loading from File
//
//	settings, err := config.Load(config.ConfigPath())
//	if err != nil {
//	    // settings still holds usable defaults; err is worth logging
//	}
//
// A missing config file is created with the default values, matching
// the behavior users expect from the first run.
package config
