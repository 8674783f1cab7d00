package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2"

	"github.com/feedback-podcast/feedback/internal/model"
)

func TestTaggable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/downloads/episode.mp3", true},
		{"/downloads/EPISODE.MP3", true},
		{"/downloads/episode.m4a", false},
		{"/downloads/episode", false},
	}

	for _, tt := range tests {
		if got := Taggable(tt.path); got != tt.want {
			t.Errorf("Taggable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestTagger_Tag(t *testing.T) {
	// A file with an empty ID3 region parses as a tagless MP3.
	path := filepath.Join(t.TempDir(), "ep.mp3")
	if err := os.WriteFile(path, make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	ep := model.Episode{
		Title:       "Episode 5: Concurrency",
		Description: "All about goroutines",
		PubDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	tagger := NewTagger()
	if err := tagger.Tag(path, ep, "The Go Show"); err != nil {
		t.Fatalf("Tag() error: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("re-opening tagged file: %v", err)
	}
	defer tag.Close()

	if got := tag.Title(); got != "Episode 5: Concurrency" {
		t.Errorf("Title = %q", got)
	}
	if got := tag.Artist(); got != "The Go Show" {
		t.Errorf("Artist = %q", got)
	}
	if got := tag.Album(); got != "The Go Show" {
		t.Errorf("Album = %q", got)
	}
	if got := tag.GetTextFrame(tag.CommonID("Year")).Text; got != "2024" {
		t.Errorf("Year = %q", got)
	}
}
