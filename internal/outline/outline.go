// Package outline converts between flat lists of feed subscriptions and the
// nested OPML outline documents used for import and export.
package outline

import (
	"encoding/xml"
	"fmt"
	"io"
)

// maxDepth bounds the decode traversal; outlines nested deeper than this are
// rejected rather than risking runaway recursion on pathological input.
const maxDepth = 256

// ParseError reports an outline document that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("outline: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Feed is one subscription in export input: its display title (may be
// empty) and its feed URL.
type Feed struct {
	Title string
	Link  string
}

type opml struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head     `xml:"head"`
	Body    body     `xml:"body"`
}

type head struct {
	Title string `xml:"title,omitempty"`
}

type body struct {
	Outlines []node `xml:"outline"`
}

type node struct {
	Text     string `xml:"text,attr"`
	Title    string `xml:"title,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	XMLURL   string `xml:"xmlUrl,attr,omitempty"`
	Outlines []node `xml:"outline,omitempty"`
}

// Decode reads an outline document and returns every feed URL it carries, in
// pre-order: a node contributes its own URL before its children are walked.
// Container nodes without a feed URL contribute nothing themselves.
func Decode(r io.Reader) ([]string, error) {
	var doc opml
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	var links []string
	var walk func(nodes []node, depth int) error
	walk = func(nodes []node, depth int) error {
		if depth > maxDepth {
			return &ParseError{Err: fmt.Errorf("outline nested deeper than %d levels", maxDepth)}
		}
		for _, n := range nodes {
			if n.XMLURL != "" {
				links = append(links, n.XMLURL)
			}
			if err := walk(n.Outlines, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc.Body.Outlines, 1); err != nil {
		return nil, err
	}
	return links, nil
}

// Encode renders feeds as one flat subscription group. Untitled feeds get
// the literal display text "Unknown".
func Encode(feeds []Feed) ([]byte, error) {
	group := node{Text: "Subscriptions"}
	for _, f := range feeds {
		title := f.Title
		if title == "" {
			title = "Unknown"
		}
		group.Outlines = append(group.Outlines, node{
			Text:   title,
			Title:  title,
			Type:   "rss",
			XMLURL: f.Link,
		})
	}

	doc := opml{
		Version: "2.0",
		Head:    head{Title: "feedling subscriptions"},
		Body:    body{Outlines: []node{group}},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
