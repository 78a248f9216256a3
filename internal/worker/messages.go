package worker

import "feedling/internal/store"

// Command is a request from the presentation layer to the engine. The set is
// closed: every variant lives in this file and dispatch switches over all of
// them in one place.
type Command interface {
	isCommand()
}

// Startup prepares the data directory and schema, then snapshots the channel
// list and runs a full refresh.
type Startup struct{}

// Shutdown persists the runtime settings and stops the engine loop. It is
// the only command that terminates the engine.
type Shutdown struct{}

// UpdateFeed refreshes every subscribed channel and persists new items.
type UpdateFeed struct{}

// AddChannel subscribes to the feed at Link.
type AddChannel struct {
	Link string
}

// EditChannel overwrites the stored title of one channel.
type EditChannel struct {
	ID    string
	Title string
}

// SetDismissed flips one item's read/archive flag.
type SetDismissed struct {
	ID        string
	Dismissed bool
}

// DismissAll marks every item dismissed.
type DismissAll struct{}

// Unsubscribe removes a channel and, by cascade, its items.
type Unsubscribe struct {
	ID string
}

// ImportChannels subscribes to every feed named in the outline document at
// Path. An empty Path means the user canceled the file choice; nothing is
// decoded but the channel list is still re-sent.
type ImportChannels struct {
	Path string
}

// ExportChannels writes the current channel list as an outline document to
// the path the Dialogs seam supplies.
type ExportChannels struct{}

func (Startup) isCommand()        {}
func (Shutdown) isCommand()       {}
func (UpdateFeed) isCommand()     {}
func (AddChannel) isCommand()     {}
func (EditChannel) isCommand()    {}
func (SetDismissed) isCommand()   {}
func (DismissAll) isCommand()     {}
func (Unsubscribe) isCommand()    {}
func (ImportChannels) isCommand() {}
func (ExportChannels) isCommand() {}

// Event is a state snapshot or failure report from the engine to the
// presentation layer.
type Event interface {
	isEvent()
}

// FeedUpdated carries the full item list, most recent first.
type FeedUpdated struct {
	Items []store.Item
}

// ChannelsUpdated carries the full channel list.
type ChannelsUpdated struct {
	Channels []store.Channel
}

// FeedUpdateProgress reports refresh completion in [0,1], one event per
// finished target.
type FeedUpdateProgress struct {
	Progress float64
}

// ImportProgress reports import completion in [0,1], one event per finished
// link.
type ImportProgress struct {
	Progress float64
}

// WorkerError is a user-visible warning: a short description of what the
// engine was doing and the underlying failure message. It never implies the
// engine stopped.
type WorkerError struct {
	Description string
	Message     string
}

func (FeedUpdated) isEvent()        {}
func (ChannelsUpdated) isEvent()    {}
func (FeedUpdateProgress) isEvent() {}
func (ImportProgress) isEvent()     {}
func (WorkerError) isEvent()        {}
