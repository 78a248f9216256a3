package store

// NoLink marks items whose feed entry carried no URL.
const NoLink = "<no link>"

// Channel is a subscribed feed source.
type Channel struct {
	ID          string
	Kind        string
	Link        string
	Title       *string
	Description *string
}

// DisplayTitle returns the channel title, or its link when untitled.
func (c Channel) DisplayTitle() string {
	if c.Title != nil && *c.Title != "" {
		return *c.Title
	}
	return c.Link
}

// Item is one entry belonging to a channel.
type Item struct {
	ID        string
	Link      string
	Title     *string
	Summary   *string
	Published int64
	Dismissed bool
	// ChannelTitle is the owning channel's title captured at fetch time.
	// Renaming a channel does not rewrite it: items keep the name the
	// channel had when they arrived.
	ChannelTitle *string
	Channel      string
}
