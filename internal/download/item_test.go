package download

import "testing"

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusDownloading, "downloading"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{StatusCancelled, "cancelled"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusDownloading, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%v.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestItem_ProgressPercent(t *testing.T) {
	tests := []struct {
		progress float64
		want     int
	}{
		{0, 0},
		{0.5, 50},
		{0.333, 33},
		{0.999, 100},
		{1.0, 100},
	}

	for _, tt := range tests {
		it := Item{Progress: tt.progress}
		if got := it.ProgressPercent(); got != tt.want {
			t.Errorf("ProgressPercent() with progress %v = %d, want %d", tt.progress, got, tt.want)
		}
	}
}

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		position int
		want     string
	}{
		{"plain", "https://example.com/episode.mp3", 0, "episode.mp3"},
		{"query stripped", "https://example.com/episode.mp3?token=abc", 0, "episode.mp3"},
		{"trailing slash", "https://example.com/feed/", 2, "download_2"},
		{"query only segment", "https://example.com/dir/?x=1", 7, "download_7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveFilename(tt.url, tt.position); got != tt.want {
				t.Errorf("deriveFilename(%q, %d) = %q, want %q", tt.url, tt.position, got, tt.want)
			}
		})
	}
}
