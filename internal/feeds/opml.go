package feeds

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feedback-podcast/feedback/internal/model"
)

// ErrNoBody marks an OPML document without a <body> element.
var ErrNoBody = errors.New("missing <body> element in OPML")

// Outline is one feed entry from an OPML subscription list.
type Outline struct {
	Title       string
	XMLURL      string
	HTMLURL     string
	Description string
}

type opmlDoc struct {
	XMLName xml.Name     `xml:"opml"`
	Version string       `xml:"version,attr,omitempty"`
	Head    opmlHead     `xml:"head"`
	Body    *opmlOutline `xml:"body"`
}

type opmlHead struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// opmlOutline doubles as <body> and <outline>: both only matter for
// their attributes and nested outlines.
type opmlOutline struct {
	Text        string        `xml:"text,attr,omitempty"`
	Title       string        `xml:"title,attr,omitempty"`
	Type        string        `xml:"type,attr,omitempty"`
	XMLURL      string        `xml:"xmlUrl,attr,omitempty"`
	HTMLURL     string        `xml:"htmlUrl,attr,omitempty"`
	Description string        `xml:"description,attr,omitempty"`
	Outlines    []opmlOutline `xml:"outline"`
}

// ParseOPML extracts feed outlines from OPML content. Nested outlines
// (folders) are flattened; entries without an xmlUrl are treated as
// folders and recursed into.
func ParseOPML(content []byte) ([]Outline, error) {
	var doc opmlDoc
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}
	if doc.Body == nil {
		return nil, ErrNoBody
	}

	var outlines []Outline
	collectOutlines(doc.Body.Outlines, &outlines)
	return outlines, nil
}

func collectOutlines(nodes []opmlOutline, out *[]Outline) {
	for _, node := range nodes {
		if node.XMLURL == "" {
			collectOutlines(node.Outlines, out)
			continue
		}
		title := node.Title
		if title == "" {
			title = node.Text
		}
		if title == "" {
			segments := strings.Split(node.XMLURL, "/")
			title = segments[len(segments)-1]
		}
		*out = append(*out, Outline{
			Title:       title,
			XMLURL:      node.XMLURL,
			HTMLURL:     node.HTMLURL,
			Description: node.Description,
		})
	}
}

// ExportOPML renders the subscription list as an OPML 2.0 document.
func ExportOPML(title string, feedList []model.Feed) ([]byte, error) {
	doc := opmlDoc{
		Version: "2.0",
		Head: opmlHead{
			Title:       title,
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
		Body: &opmlOutline{},
	}
	for _, f := range feedList {
		doc.Body.Outlines = append(doc.Body.Outlines, opmlOutline{
			Text:        f.Title,
			Title:       f.Title,
			Type:        "rss",
			XMLURL:      f.Key,
			HTMLURL:     f.Link,
			Description: f.Description,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
