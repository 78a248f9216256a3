// Package feed fetches remote syndication documents and parses them into a
// normalized form. One fetch is one GET with no retries; per-URL failures
// stay typed and local so batch callers can keep going.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
)

// atomFeedIDKey is where the translator stashes the feed-level <id>, which
// gofeed's default Atom translation drops.
const atomFeedIDKey = "atom:id"

type Parser struct {
	inner *gofeed.Parser
}

func NewParser() *Parser {
	p := gofeed.NewParser()
	// Assign every translator up front: gofeed installs them lazily on
	// first use, which races when Parse runs from multiple goroutines.
	p.AtomTranslator = &atomTranslator{base: &gofeed.DefaultAtomTranslator{}}
	p.RSSTranslator = &gofeed.DefaultRSSTranslator{}
	p.JSONTranslator = &gofeed.DefaultJSONTranslator{}
	return &Parser{inner: p}
}

// Parse reads one feed document. url is only used to label errors.
func (p *Parser) Parse(r io.Reader, url string) (*Document, error) {
	src, err := p.inner.Parse(r)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	return documentFromFeed(src), nil
}

// atomTranslator keeps the default translation but preserves the feed-level
// <id> element in the Custom map.
type atomTranslator struct {
	base *gofeed.DefaultAtomTranslator
}

func (t *atomTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	src, ok := feed.(*atom.Feed)
	if !ok {
		return nil, fmt.Errorf("feed is not an atom document")
	}
	out, err := t.base.Translate(src)
	if err != nil {
		return nil, err
	}
	if src.ID != "" {
		if out.Custom == nil {
			out.Custom = map[string]string{}
		}
		out.Custom[atomFeedIDKey] = src.ID
	}
	return out, nil
}

func documentFromFeed(src *gofeed.Feed) *Document {
	doc := &Document{
		ID:          src.Custom[atomFeedIDKey],
		Kind:        kindOf(src),
		Title:       optional(src.Title),
		Description: optional(src.Description),
	}
	if doc.ID == "" {
		doc.ID = deriveDocumentID(src)
	}
	doc.Entries = make([]Entry, 0, len(src.Items))
	for _, item := range src.Items {
		doc.Entries = append(doc.Entries, entryFromItem(doc.ID, item))
	}
	return doc
}

func entryFromItem(docID string, item *gofeed.Item) Entry {
	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}
	return Entry{
		ID:        entryID(docID, item),
		Link:      link,
		Title:     optional(item.Title),
		Summary:   optional(item.Description),
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
	}
}

func kindOf(src *gofeed.Feed) Kind {
	switch src.FeedType {
	case "atom":
		return KindAtom
	case "json":
		return KindJSON
	}
	switch {
	case strings.HasPrefix(src.FeedVersion, "0"):
		return KindRSS0
	case strings.HasPrefix(src.FeedVersion, "1"):
		return KindRSS1
	default:
		return KindRSS2
	}
}

// deriveDocumentID builds a stable id for formats without a feed-level one,
// hashing the strongest identity the document carries.
func deriveDocumentID(src *gofeed.Feed) string {
	seed := src.FeedLink
	if seed == "" {
		seed = src.Link
	}
	if seed == "" {
		seed = src.Title
	}
	return hashID(seed)
}

// entryID prefers the entry's own identifier, then its link. Entries with
// neither get a hash over their document, title and raw timestamp, which
// repeats across fetches of an unchanged document.
func entryID(docID string, item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	if item.Link != "" {
		return item.Link
	}
	return hashID(docID + "\x00" + item.Title + "\x00" + item.Published)
}

func hashID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
