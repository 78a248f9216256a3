// Package worker runs the sync engine: one goroutine that owns the store,
// executes presentation commands strictly in order and reports state
// snapshots back over an event mailbox. Nothing a handler hits is fatal;
// failures become WorkerError events and the loop moves on.
package worker

import (
	"context"
	"errors"
	"os"
	"sync/atomic"

	"feedling/internal/config"
	"feedling/internal/debuglog"
	"feedling/internal/feed"
	"feedling/internal/outline"
	"feedling/internal/store"
	"feedling/internal/validation"
)

// State reports what the engine loop is doing right now.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateImporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateImporting:
		return "importing"
	default:
		return "unknown"
	}
}

// Options wires the engine's collaborators together.
type Options struct {
	Store   *store.Store
	Config  *config.Shared
	Fetcher *feed.Fetcher
	FS      Bootstrap
	Dialogs Dialogs
}

// Worker is the sync engine. Construct with New, start Run on its own
// goroutine, feed it through Send and read Events until the channel closes.
type Worker struct {
	store   *store.Store
	config  *config.Shared
	fetcher *feed.Fetcher
	fs      Bootstrap
	dialogs Dialogs

	commands *Mailbox[Command]
	events   *Mailbox[Event]
	state    atomic.Int32
}

func New(opts Options) *Worker {
	return &Worker{
		store:    opts.Store,
		config:   opts.Config,
		fetcher:  opts.Fetcher,
		fs:       opts.FS,
		dialogs:  opts.Dialogs,
		commands: NewMailbox[Command](),
		events:   NewMailbox[Event](),
	}
}

// Send queues a command. It never blocks and is safe after the engine has
// stopped.
func (w *Worker) Send(cmd Command) {
	w.commands.Send(cmd)
}

// Events returns the engine's event stream. The channel is closed once the
// engine stops and every pending event has been delivered.
func (w *Worker) Events() <-chan Event {
	return w.events.C()
}

// CloseCommands closes the inbound mailbox. The engine finishes what is
// queued and exits without the usual Shutdown steps.
func (w *Worker) CloseCommands() {
	w.commands.Close()
}

// State reports the loop's current activity. Any goroutine may ask.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run processes commands until Shutdown arrives or the command mailbox is
// closed. It blocks, so it belongs on a dedicated goroutine. ctx flows into
// every handler's I/O; in production it is context.Background() because a
// queued command waits its turn rather than being cancelled.
func (w *Worker) Run(ctx context.Context) {
	debuglog.Infof("worker starting up")
	defer w.events.Close()

	for cmd := range w.commands.C() {
		debuglog.Debugf("handling %T", cmd)
		if _, stop := cmd.(Shutdown); stop {
			w.shutdown()
			w.drainCommands()
			return
		}
		w.dispatch(ctx, cmd)
	}

	// The sender vanished without saying Shutdown.
	debuglog.Errorf("command mailbox closed without shutdown")
}

func (w *Worker) dispatch(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case Startup:
		w.startup(ctx)
	case UpdateFeed:
		w.refresh(ctx)
		w.publishItems(ctx)
	case AddChannel:
		w.addChannels(ctx, []string{c.Link}, nil)
		w.publishChannels(ctx)
	case EditChannel:
		w.editChannel(ctx, c.ID, c.Title)
		w.publishChannels(ctx)
	case SetDismissed:
		w.setDismissed(ctx, c.ID, c.Dismissed)
		w.publishItems(ctx)
	case DismissAll:
		w.dismissAll(ctx)
		w.publishItems(ctx)
	case Unsubscribe:
		w.unsubscribe(ctx, c.ID)
		w.publishChannels(ctx)
		w.publishItems(ctx)
	case ImportChannels:
		w.importChannels(ctx, c.Path)
		w.publishChannels(ctx)
	case ExportChannels:
		w.exportChannels(ctx)
	default:
		debuglog.Errorf("unhandled command %T", cmd)
	}
}

// startup prepares the on-disk state and brings the presentation layer up
// to date: channel list first, then a full refresh. Each step reports its
// own failure and the next step still runs.
func (w *Worker) startup(ctx context.Context) {
	if err := w.fs.Ensure(); err != nil {
		w.reportError("failed to prepare data directory", err)
	} else {
		debuglog.Infof("data directory ready")
	}

	if err := w.store.Init(ctx); err != nil {
		w.reportError("failed to initialize database", err)
	} else {
		debuglog.Infof("database schema ready")
	}

	w.publishChannels(ctx)
	w.refresh(ctx)
	w.publishItems(ctx)
}

func (w *Worker) shutdown() {
	debuglog.Infof("saving settings")
	if err := w.config.Save(); err != nil {
		debuglog.Errorf("failed to save settings: %v", err)
	}
	debuglog.Infof("shutting down")
}

// drainCommands closes the inbound mailbox and discards whatever was queued
// behind Shutdown, letting its pump finish.
func (w *Worker) drainCommands() {
	w.commands.Close()
	for range w.commands.C() {
	}
}

// refresh fetches every subscribed channel and persists whatever new items
// turn up. One progress event per finished target, success or not; a failed
// target is reported and excluded, never aborting the batch.
func (w *Worker) refresh(ctx context.Context) {
	w.state.Store(int32(StateFetching))
	defer w.state.Store(int32(StateIdle))

	channels, err := w.store.ListChannels(ctx)
	if err != nil {
		w.reportError("failed to load channels", err)
		return
	}
	if len(channels) == 0 {
		return
	}

	byLink := make(map[string]store.Channel, len(channels))
	links := make([]string, 0, len(channels))
	for _, ch := range channels {
		byLink[ch.Link] = ch
		links = append(links, ch.Link)
	}

	limit := w.config.Snapshot().MaxAllowedConcurrentRequests
	debuglog.Infof("refreshing %d channels, at most %d at once", len(links), limit)

	var items []store.Item
	completed := 0
	for res := range w.fetcher.FetchAll(ctx, links, limit) {
		completed++
		w.events.Send(FeedUpdateProgress{Progress: float64(completed) / float64(len(links))})

		if res.Err != nil {
			w.reportFetchError(res.Err)
			continue
		}
		items = append(items, itemsFromDocument(res.Doc, byLink[res.URL])...)
	}

	debuglog.Infof("saving %d fetched items", len(items))
	if err := w.store.InsertItems(ctx, items); err != nil {
		w.reportError("failed to save new feed items", err)
	}
}

// addChannels fetches every link and subscribes to the ones that turn out
// to be feeds. Bad links are reported and skipped; the batch always runs to
// completion. progress, when non-nil, observes each completed fetch.
func (w *Worker) addChannels(ctx context.Context, links []string, progress func(float64)) {
	normalized := make([]string, 0, len(links))
	for _, link := range links {
		link, err := validation.NormalizeFeedURL(link)
		if err != nil {
			w.reportError("invalid feed link", err)
			continue
		}
		normalized = append(normalized, link)
	}
	if len(normalized) == 0 {
		return
	}

	limit := w.config.Snapshot().MaxAllowedConcurrentRequests

	var channels []store.Channel
	completed := 0
	for res := range w.fetcher.FetchAll(ctx, normalized, limit) {
		completed++
		if progress != nil {
			progress(float64(completed) / float64(len(normalized)))
		}
		if res.Err != nil {
			w.reportFetchError(res.Err)
			continue
		}
		channels = append(channels, channelFromDocument(res.Doc, res.URL))
	}

	debuglog.Infof("saving %d new channels", len(channels))
	for _, ch := range channels {
		if err := w.store.UpsertChannel(ctx, ch); err != nil {
			w.reportError("failed to save new channels", err)
		}
	}
}

func (w *Worker) editChannel(ctx context.Context, id, title string) {
	if err := w.store.EditChannelTitle(ctx, id, title); err != nil {
		w.reportError("failed to edit channel", err)
	}
}

func (w *Worker) setDismissed(ctx context.Context, id string, dismissed bool) {
	if err := w.store.SetDismissed(ctx, id, dismissed); err != nil {
		w.reportError("failed to set dismissed", err)
	}
}

func (w *Worker) dismissAll(ctx context.Context) {
	if err := w.store.DismissAll(ctx); err != nil {
		w.reportError("failed to dismiss all", err)
	}
}

func (w *Worker) unsubscribe(ctx context.Context, id string) {
	if err := w.store.DeleteChannel(ctx, id); err != nil {
		w.reportError("failed to unsubscribe", err)
	}
}

// importChannels subscribes to every feed an outline file names. An empty
// path means the user canceled the file choice.
func (w *Worker) importChannels(ctx context.Context, path string) {
	if path == "" {
		debuglog.Infof("import canceled")
		return
	}

	w.state.Store(int32(StateImporting))
	defer w.state.Store(int32(StateIdle))

	f, err := os.Open(path)
	if err != nil {
		w.reportError("failed to read outline file", &FilesystemError{Path: path, Err: err})
		return
	}
	links, err := outline.Decode(f)
	f.Close()
	if err != nil {
		w.reportError("failed to parse outline file", err)
		return
	}

	debuglog.Infof("outline lists %d links", len(links))
	w.addChannels(ctx, links, func(p float64) {
		w.events.Send(ImportProgress{Progress: p})
	})
}

// exportChannels writes the channel list as an outline document to wherever
// the dialog seam points. Declining the dialog is a silent no-op.
func (w *Worker) exportChannels(ctx context.Context) {
	path, ok := w.dialogs.ExportPath()
	if !ok {
		debuglog.Infof("export canceled")
		return
	}

	channels, err := w.store.ListChannels(ctx)
	if err != nil {
		w.reportError("failed to load channels", err)
		return
	}

	feeds := make([]outline.Feed, 0, len(channels))
	for _, ch := range channels {
		var title string
		if ch.Title != nil {
			title = *ch.Title
		}
		feeds = append(feeds, outline.Feed{Title: title, Link: ch.Link})
	}

	doc, err := outline.Encode(feeds)
	if err != nil {
		w.reportError("failed to encode outline file", err)
		return
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		w.reportError("failed to write outline file", &FilesystemError{Path: path, Err: err})
		return
	}
	debuglog.Infof("exported %d channels to %s", len(feeds), path)
}

// publishChannels snapshots the channel table into a ChannelsUpdated event.
// It runs even after a failed mutation so the presentation layer re-syncs
// to what the store actually holds.
func (w *Worker) publishChannels(ctx context.Context) {
	channels, err := w.store.ListChannels(ctx)
	if err != nil {
		w.reportError("failed to load channels", err)
		return
	}
	w.events.Send(ChannelsUpdated{Channels: channels})
}

func (w *Worker) publishItems(ctx context.Context) {
	items, err := w.store.ListItems(ctx)
	if err != nil {
		w.reportError("failed to load feed items", err)
		return
	}
	w.events.Send(FeedUpdated{Items: items})
}

func (w *Worker) reportFetchError(err error) {
	var parseErr *feed.ParseError
	if errors.As(err, &parseErr) {
		w.reportError("failed to parse feed", err)
		return
	}
	w.reportError("web request failed", err)
}

// reportError turns a handler failure into a user-visible warning. The
// engine keeps running.
func (w *Worker) reportError(description string, err error) {
	debuglog.Errorf("%s: %v", description, err)
	w.events.Send(WorkerError{Description: description, Message: err.Error()})
}

// channelFromDocument keys the channel row by the document id and remembers
// the link the feed was fetched from.
func channelFromDocument(doc *feed.Document, link string) store.Channel {
	return store.Channel{
		ID:          doc.ID,
		Kind:        string(doc.Kind),
		Link:        link,
		Title:       doc.Title,
		Description: doc.Description,
	}
}

// itemsFromDocument flattens a parsed feed into rows for ch. The published
// instant falls back from published to updated to zero, entries without a
// URL get the NoLink sentinel, and the channel title is frozen into each
// row as it stands right now.
func itemsFromDocument(doc *feed.Document, ch store.Channel) []store.Item {
	items := make([]store.Item, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		item := store.Item{
			ID:           entry.ID,
			Link:         entry.Link,
			Title:        entry.Title,
			Summary:      entry.Summary,
			ChannelTitle: ch.Title,
			Channel:      ch.ID,
		}
		if item.Link == "" {
			item.Link = store.NoLink
		}
		switch {
		case entry.Published != nil:
			item.Published = entry.Published.Unix()
		case entry.Updated != nil:
			item.Published = entry.Updated.Unix()
		}
		items = append(items, item)
	}
	return items
}
