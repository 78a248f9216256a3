package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Init(context.Background()))
	return s
}

func strPtr(s string) *string { return &s }

func testItem(id, channel string, published int64) Item {
	return Item{
		ID:        id,
		Link:      "https://example.com/" + id,
		Published: published,
		Channel:   channel,
	}
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Init(ctx))

	// Schema still usable after the second run.
	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "a", Kind: "RSS2", Link: "https://example.com/feed"}))
}

func TestUpsertChannelKeepsExistingRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ch := Channel{
		ID:    "abc",
		Kind:  "Atom",
		Link:  "https://example.com/feed.xml",
		Title: strPtr("Example"),
	}
	require.NoError(t, s.UpsertChannel(ctx, ch))

	// Subscribing again to the same feed changes nothing.
	again := ch
	again.Title = strPtr("Different")
	require.NoError(t, s.UpsertChannel(ctx, again))

	channels, err := s.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.NotNil(t, channels[0].Title)
	assert.Equal(t, "Example", *channels[0].Title)
	assert.Nil(t, channels[0].Description)
}

func TestUpsertChannelLinkCollision(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "a", Kind: "RSS2", Link: "https://example.com/feed"}))

	err := s.UpsertChannel(ctx, Channel{ID: "b", Kind: "RSS2", Link: "https://example.com/feed"})
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "upsert channel", storageErr.Op)
	assert.NotNil(t, storageErr.Unwrap())
}

func TestListChannelsOrdersByDisplayTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "1", Kind: "RSS2", Link: "https://zeta.example.com/feed", Title: strPtr("alpha")}))
	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "2", Kind: "RSS2", Link: "https://beta.example.com/feed"}))
	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "3", Kind: "RSS2", Link: "https://a.example.com/feed", Title: strPtr("Gamma")}))

	channels, err := s.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 3)

	// Case-insensitive by title, untitled channels fall back to their link.
	assert.Equal(t, "1", channels[0].ID)
	assert.Equal(t, "3", channels[1].ID)
	assert.Equal(t, "2", channels[2].ID)
	assert.Nil(t, channels[2].Title)
}

func TestEditChannelTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "Atom", Link: "https://example.com/feed", Title: strPtr("Old")}))
	require.NoError(t, s.EditChannelTitle(ctx, "abc", "New"))

	channels, err := s.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.NotNil(t, channels[0].Title)
	assert.Equal(t, "New", *channels[0].Title)

	// Unknown ids are a no-op, not an error.
	require.NoError(t, s.EditChannelTitle(ctx, "missing", "X"))
}

func TestDeleteChannelCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))
	require.NoError(t, s.InsertItems(ctx, []Item{
		testItem("1", "abc", 100),
		testItem("2", "abc", 200),
	}))

	require.NoError(t, s.DeleteChannel(ctx, "abc"))

	channels, err := s.ListChannels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "items must go with their channel")
}

func TestInsertItemsKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))

	item := testItem("1", "abc", 100)
	item.Title = strPtr("Original")
	require.NoError(t, s.InsertItems(ctx, []Item{item}))
	require.NoError(t, s.SetDismissed(ctx, "1", true))

	// The next refresh carries the same item, possibly with fresher fields.
	item.Title = strPtr("Rewritten upstream")
	require.NoError(t, s.InsertItems(ctx, []Item{item}))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Dismissed, "dismissed flag must survive re-insert")
	require.NotNil(t, items[0].Title)
	assert.Equal(t, "Original", *items[0].Title)
}

func TestInsertItemsRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))

	batch := []Item{
		testItem("ok", "abc", 100),
		testItem("bad", "ghost", 200), // no such channel
	}
	err := s.InsertItems(ctx, batch)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	items, listErr := s.ListItems(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, items, "a failed batch must not apply partially")
}

func TestInsertItemsEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertItems(context.Background(), nil))
}

func TestListItemsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))
	require.NoError(t, s.InsertItems(ctx, []Item{
		testItem("old", "abc", 100),
		testItem("undated-1", "abc", 0),
		testItem("new", "abc", 200),
		testItem("undated-2", "abc", 0),
	}))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	// Most recent first; undated items trail in insertion order.
	assert.Equal(t, []string{"new", "old", "undated-1", "undated-2"}, ids)
}

func TestListItemsRoundTripsNullableFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))

	full := Item{
		ID:           "full",
		Link:         NoLink,
		Title:        strPtr("Title"),
		Summary:      strPtr("Summary"),
		Published:    42,
		ChannelTitle: strPtr("Example"),
		Channel:      "abc",
	}
	require.NoError(t, s.InsertItems(ctx, []Item{full, testItem("sparse", "abc", 0)}))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, full, items[0])

	sparse := items[1]
	assert.Nil(t, sparse.Title)
	assert.Nil(t, sparse.Summary)
	assert.Nil(t, sparse.ChannelTitle)
}

func TestSetDismissed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))
	require.NoError(t, s.InsertItems(ctx, []Item{testItem("1", "abc", 100)}))

	require.NoError(t, s.SetDismissed(ctx, "1", true))
	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Dismissed)

	// And back: restore.
	require.NoError(t, s.SetDismissed(ctx, "1", false))
	items, err = s.ListItems(ctx)
	require.NoError(t, err)
	assert.False(t, items[0].Dismissed)
}

func TestDismissAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertChannel(ctx, Channel{ID: "abc", Kind: "RSS2", Link: "https://example.com/feed"}))
	require.NoError(t, s.InsertItems(ctx, []Item{
		testItem("1", "abc", 100),
		testItem("2", "abc", 200),
		testItem("3", "abc", 300),
	}))

	require.NoError(t, s.DismissAll(ctx))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.True(t, it.Dismissed)
	}
}

func TestChannelDisplayTitle(t *testing.T) {
	tests := []struct {
		name string
		ch   Channel
		want string
	}{
		{"titled", Channel{Title: strPtr("Example"), Link: "https://example.com/feed"}, "Example"},
		{"untitled", Channel{Link: "https://example.com/feed"}, "https://example.com/feed"},
		{"empty title", Channel{Title: strPtr(""), Link: "https://example.com/feed"}, "https://example.com/feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ch.DisplayTitle())
		})
	}
}
