package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings holds all configuration options.
type Settings struct {
	Download DownloadSettings `toml:"download"`
	Network  NetworkSettings  `toml:"network"`
	UI       UISettings       `toml:"ui"`
	Tags     TagSettings      `toml:"tags"`
}

// DownloadSettings configures the episode download queue.
type DownloadSettings struct {
	// Directory is where episode files land. Empty means
	// <data dir>/downloads.
	Directory string `toml:"directory"`

	// Concurrent is the maximum number of simultaneous transfers.
	Concurrent int `toml:"concurrent"`

	// TimeoutSeconds bounds a whole transfer.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// NetworkSettings configures feed fetching.
type NetworkSettings struct {
	// TimeoutSeconds bounds one feed fetch.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// MaxEpisodes limits episodes kept per feed; -1 means unlimited.
	MaxEpisodes int `toml:"max_episodes"`

	// ReloadOnStart refreshes all feeds when the app starts.
	ReloadOnStart bool `toml:"reload_on_start"`
}

// UISettings configures the terminal interface.
type UISettings struct {
	Theme            string `toml:"theme"`
	ShowDescriptions bool   `toml:"show_descriptions"`
}

// TagSettings configures post-download ID3 tagging.
type TagSettings struct {
	ModifyTags bool `toml:"modify_tags"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Download: DownloadSettings{
			Directory:      "",
			Concurrent:     3,
			TimeoutSeconds: 300,
		},
		Network: NetworkSettings{
			TimeoutSeconds: 30,
			MaxEpisodes:    -1,
			ReloadOnStart:  false,
		},
		UI: UISettings{
			Theme:            "dark",
			ShowDescriptions: true,
		},
		Tags: TagSettings{
			ModifyTags: false,
		},
	}
}

// ConfigPath returns the default configuration file location.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "feedback", "config.toml")
}

// DataPath returns the application data directory.
func DataPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "feedback")
}

// DownloadDir resolves the effective download directory.
func (s *Settings) DownloadDir() string {
	if s.Download.Directory != "" {
		return s.Download.Directory
	}
	return filepath.Join(DataPath(), "downloads")
}

// Load reads settings from path. A missing file is created with the
// defaults. A file that fails to parse yields the defaults together
// with the parse error, so the caller can log and carry on.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := settings.Save(path); err != nil {
			return settings, err
		}
		return settings, nil
	}

	if _, err := toml.DecodeFile(path, settings); err != nil {
		return DefaultSettings(), err
	}
	return settings, nil
}

// Save writes settings as TOML, creating parent directories as needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(s)
}
