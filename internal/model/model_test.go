package model

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-episode.mp3", "normal-episode.mp3"},
		{"episode:with:colons.mp3", "episode_with_colons.mp3"},
		{"episode<with>brackets.mp3", "episode_with_brackets.mp3"},
		{"episode/with\\slashes.mp3", "episode_with_slashes.mp3"},
		{"episode|with|pipes.mp3", "episode_with_pipes.mp3"},
		{"episode?with*wildcards.mp3", "episode_with_wildcards.mp3"},
		{"episode\"with\"quotes.mp3", "episode_with_quotes.mp3"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEpisode_IsDownloaded(t *testing.T) {
	ep := Episode{FeedKey: "https://example.com/feed", Title: "Ep 1"}
	if ep.IsDownloaded() {
		t.Error("IsDownloaded() = true for episode with no path")
	}

	ep.DownloadedPath = "/data/downloads/ep1.mp3"
	if !ep.IsDownloaded() {
		t.Error("IsDownloaded() = false for episode with a path")
	}
}

func TestEpisode_ProgressSeconds(t *testing.T) {
	ep := Episode{ProgressMS: 90500}
	if got := ep.ProgressSeconds(); got != 90.5 {
		t.Errorf("ProgressSeconds() = %v, want 90.5", got)
	}
}
