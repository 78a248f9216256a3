package feed

import "time"

// Kind tags the syndication format a document was parsed from.
type Kind string

const (
	KindAtom Kind = "Atom"
	KindJSON Kind = "JSON"
	KindRSS0 Kind = "RSS0"
	KindRSS1 Kind = "RSS1"
	KindRSS2 Kind = "RSS2"
)

// Document is a normalized feed: channel-level metadata plus its entries.
type Document struct {
	// ID is the feed's own identifier where the format carries one (the
	// Atom <id> element); other formats get a stable derived id.
	ID          string
	Kind        Kind
	Title       *string
	Description *string
	Entries     []Entry
}

// Entry is one normalized feed entry.
type Entry struct {
	// ID is never empty and stable across fetches of the same document.
	ID string
	// Link is the entry's first link, or empty when it has none.
	Link    string
	Title   *string
	Summary *string
	// Published and Updated are nil when the document does not date the
	// entry; the two are kept apart so callers can apply their own
	// fallback.
	Published *time.Time
	Updated   *time.Time
}
