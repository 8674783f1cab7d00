// Package audio writes ID3 metadata onto downloaded episode files, so
// a completed download carries its episode title, show name and
// publication year into any external player.
package audio

import (
	"strconv"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/feedback-podcast/feedback/internal/model"
)

// Tagger writes ID3v2 tags to downloaded MP3 files.
//
// Frames written:
//   - TIT2 (title) from the episode title
//   - TPE1 (artist) and TALB (album) from the feed title
//   - TYER (year) from the publication date
//   - COMM (comment) from the episode description
type Tagger struct {
	// WriteDescription controls the COMM frame; descriptions can be
	// long HTML blobs, so it is optional.
	WriteDescription bool
}

// NewTagger creates a Tagger with description writing enabled.
func NewTagger() *Tagger {
	return &Tagger{WriteDescription: true}
}

// Taggable reports whether path looks like a file the tagger can
// handle.
func Taggable(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".mp3")
}

// Tag writes episode metadata onto the file at path. Existing frames
// for the written fields are replaced; everything else is preserved.
func (t *Tagger) Tag(path string, ep model.Episode, feedTitle string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetTitle(ep.Title)
	tag.SetArtist(feedTitle)
	tag.SetAlbum(feedTitle)

	if !ep.PubDate.IsZero() {
		tag.AddTextFrame(tag.CommonID("Year"), tag.DefaultEncoding(),
			strconv.Itoa(ep.PubDate.Year()))
	}

	if t.WriteDescription && ep.Description != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "description",
			Text:        ep.Description,
		})
	}

	return tag.Save()
}
