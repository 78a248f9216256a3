// Package store persists channels and feed items in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// StorageError wraps a schema or query failure with the operation that
// produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store owns the SQLite handle for the two-table schema.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. WAL journaling, foreign-key
// enforcement and a busy timeout apply to every connection through DSN
// pragmas. The schema is not touched until Init.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?%s", path, strings.Join([]string{
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(10000)",
	}, "&"))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr("open database", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init creates the tables and indexes when absent. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS channels (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	link        TEXT NOT NULL UNIQUE,
	title       TEXT,
	description TEXT
);

CREATE TABLE IF NOT EXISTS items (
	id            TEXT PRIMARY KEY,
	link          TEXT NOT NULL,
	title         TEXT,
	summary       TEXT,
	published     INTEGER NOT NULL DEFAULT 0,
	dismissed     INTEGER NOT NULL DEFAULT 0,
	channel_title TEXT,
	channel       TEXT NOT NULL REFERENCES channels(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_items_channel ON items(channel);
CREATE INDEX IF NOT EXISTS idx_items_published ON items(published DESC);
`
	_, err := s.db.ExecContext(ctx, schema)
	return storageErr("create schema", err)
}

// UpsertChannel inserts a channel, leaving any existing row with the same id
// untouched. A different channel already holding the same link violates the
// link uniqueness constraint and is reported as a StorageError.
func (s *Store) UpsertChannel(ctx context.Context, ch Channel) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO channels (id, kind, link, title, description)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`,
		ch.ID, ch.Kind, ch.Link, ch.Title, ch.Description)
	return storageErr("upsert channel", err)
}

// ListChannels returns all channels ordered by display title.
func (s *Store) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, link, title, description
FROM channels
ORDER BY COALESCE(title, link) COLLATE NOCASE`)
	if err != nil {
		return nil, storageErr("list channels", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var (
			ch                 Channel
			title, description sql.NullString
		)
		if err := rows.Scan(&ch.ID, &ch.Kind, &ch.Link, &title, &description); err != nil {
			return nil, storageErr("scan channel", err)
		}
		ch.Title = nullableString(title)
		ch.Description = nullableString(description)
		channels = append(channels, ch)
	}
	return channels, storageErr("list channels", rows.Err())
}

// EditChannelTitle overwrites the stored title of one channel.
func (s *Store) EditChannelTitle(ctx context.Context, id, title string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET title = ? WHERE id = ?`, title, id)
	return storageErr("edit channel", err)
}

// DeleteChannel removes a channel; its items go with it via the cascade.
func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM channels WHERE id = ?`, id)
	return storageErr("delete channel", err)
}

// InsertItems stores a batch of items in one transaction. An item whose id
// is already present is skipped, preserving its dismissed flag and anything
// else the user changed. Any failure rolls the whole batch back.
func (s *Store) InsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin insert items", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO items (id, link, title, summary, published, dismissed, channel_title, channel)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return storageErr("prepare insert items", err)
	}
	defer stmt.Close()

	for _, it := range items {
		_, err := stmt.ExecContext(ctx,
			it.ID, it.Link, it.Title, it.Summary,
			it.Published, it.Dismissed, it.ChannelTitle, it.Channel)
		if err != nil {
			return storageErr(fmt.Sprintf("insert item %s", it.ID), err)
		}
	}

	return storageErr("commit insert items", tx.Commit())
}

// ListItems returns every item, most recently published first. Ties, and
// the published=0 block of undated items at the end, keep insertion order.
func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, link, title, summary, published, dismissed, channel_title, channel
FROM items
ORDER BY published DESC, rowid ASC`)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it             Item
			title, summary sql.NullString
			channelTitle   sql.NullString
		)
		err := rows.Scan(&it.ID, &it.Link, &title, &summary,
			&it.Published, &it.Dismissed, &channelTitle, &it.Channel)
		if err != nil {
			return nil, storageErr("scan item", err)
		}
		it.Title = nullableString(title)
		it.Summary = nullableString(summary)
		it.ChannelTitle = nullableString(channelTitle)
		items = append(items, it)
	}
	return items, storageErr("list items", rows.Err())
}

// SetDismissed flips the dismissed flag of one item.
func (s *Store) SetDismissed(ctx context.Context, id string, dismissed bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET dismissed = ? WHERE id = ?`, dismissed, id)
	return storageErr("set dismissed", err)
}

// DismissAll marks every item dismissed in one statement.
func (s *Store) DismissAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE items SET dismissed = 1`)
	return storageErr("dismiss all", err)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
