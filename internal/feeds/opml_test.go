package feeds

import (
	"errors"
	"strings"
	"testing"

	"github.com/feedback-podcast/feedback/internal/model"
)

func TestParseOPML(t *testing.T) {
	content := `<?xml version="1.0"?>
<opml version="2.0">
  <head><title>Subscriptions</title></head>
  <body>
    <outline text="Show A" title="Show A" type="rss"
             xmlUrl="https://example.com/a.rss" htmlUrl="https://example.com/a"/>
    <outline text="Tech">
      <outline text="Show B" xmlUrl="https://example.com/b.rss"/>
    </outline>
    <outline xmlUrl="https://example.com/feeds/c.rss"/>
  </body>
</opml>`

	outlines, err := ParseOPML([]byte(content))
	if err != nil {
		t.Fatalf("ParseOPML() error: %v", err)
	}
	if len(outlines) != 3 {
		t.Fatalf("len(outlines) = %d, want 3 (folders flattened)", len(outlines))
	}

	if outlines[0].Title != "Show A" || outlines[0].XMLURL != "https://example.com/a.rss" {
		t.Errorf("outlines[0] = %+v", outlines[0])
	}
	if outlines[0].HTMLURL != "https://example.com/a" {
		t.Errorf("outlines[0].HTMLURL = %q", outlines[0].HTMLURL)
	}

	// Title falls back to text, then to the URL's last segment.
	if outlines[1].Title != "Show B" {
		t.Errorf("outlines[1].Title = %q, want text fallback", outlines[1].Title)
	}
	if outlines[2].Title != "c.rss" {
		t.Errorf("outlines[2].Title = %q, want URL fallback", outlines[2].Title)
	}
}

func TestParseOPML_Errors(t *testing.T) {
	if _, err := ParseOPML([]byte("not xml at <all")); err == nil {
		t.Error("ParseOPML() of invalid XML returned nil error")
	}

	noBody := `<?xml version="1.0"?><opml version="2.0"><head/></opml>`
	if _, err := ParseOPML([]byte(noBody)); !errors.Is(err, ErrNoBody) {
		t.Errorf("ParseOPML() without body = %v, want ErrNoBody", err)
	}
}

func TestExportOPML_RoundTrip(t *testing.T) {
	feedList := []model.Feed{
		{Key: "https://example.com/a.rss", Title: "Show A", Link: "https://example.com/a"},
		{Key: "https://example.com/b.rss", Title: "Show B", Description: "very good"},
	}

	out, err := ExportOPML("Subscriptions", feedList)
	if err != nil {
		t.Fatalf("ExportOPML() error: %v", err)
	}
	if !strings.HasPrefix(string(out), "<?xml") {
		t.Error("export missing XML header")
	}

	outlines, err := ParseOPML(out)
	if err != nil {
		t.Fatalf("re-parsing export: %v", err)
	}
	if len(outlines) != 2 {
		t.Fatalf("len(outlines) = %d, want 2", len(outlines))
	}
	if outlines[0].XMLURL != "https://example.com/a.rss" || outlines[0].Title != "Show A" {
		t.Errorf("outlines[0] = %+v", outlines[0])
	}
	if outlines[1].Description != "very good" {
		t.Errorf("outlines[1].Description = %q", outlines[1].Description)
	}
}
