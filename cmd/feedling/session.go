package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"feedling/internal/feed"
	"feedling/internal/store"
	"feedling/internal/worker"
)

// probeTimeout bounds the connectivity check; a refresh against a dead
// network fails on its own soon enough.
const probeTimeout = 3 * time.Second

// noDialogs is the Dialogs seam for verbs that never export.
type noDialogs struct{}

func (noDialogs) ExportPath() (string, bool) { return "", false }

// fixedDialogs answers the export dialog with a path from the command line.
type fixedDialogs struct {
	path string
}

func (d fixedDialogs) ExportPath() (string, bool) { return d.path, true }

// sessionResult is what one engine session left behind: the final state
// snapshots and how many warnings went by.
type sessionResult struct {
	channels []store.Channel
	items    []store.Item
	warnings int
}

// runSession drives one complete engine run: Startup, the verb's commands,
// Shutdown, then drains the event stream. Progress and warnings render to
// stderr as they happen; the last state snapshots are returned for the verb
// to print.
func runSession(cmd *cobra.Command, dialogs worker.Dialogs, cmds ...worker.Command) (*sessionResult, error) {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	st, err := store.Open(filepath.Join(appDataDir, databaseFile))
	if err != nil {
		return nil, err
	}
	defer st.Close()

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	if !feed.Online(probeCtx) {
		fmt.Fprintln(stderr, "warning: network looks unreachable, refresh may fail")
	}
	cancel()

	w := worker.New(worker.Options{
		Store:   st,
		Config:  appConfig,
		Fetcher: feed.NewFetcher(),
		FS:      worker.DataDir{Dir: appDataDir, Database: databaseFile},
		Dialogs: dialogs,
	})
	go w.Run(ctx)

	w.Send(worker.Startup{})
	for _, c := range cmds {
		w.Send(c)
	}
	w.Send(worker.Shutdown{})

	res := &sessionResult{}
	fetchProgress := newProgressPrinter(stderr, "refreshing")
	importProgress := newProgressPrinter(stderr, "importing")

	for ev := range w.Events() {
		switch e := ev.(type) {
		case worker.ChannelsUpdated:
			res.channels = e.Channels
		case worker.FeedUpdated:
			res.items = e.Items
		case worker.FeedUpdateProgress:
			fetchProgress.observe(e.Progress)
		case worker.ImportProgress:
			importProgress.observe(e.Progress)
		case worker.WorkerError:
			res.warnings++
			fmt.Fprintf(stderr, "warning: %s: %s\n", e.Description, e.Message)
		}
	}

	return res, nil
}

// progressPrinter folds a stream of [0,1] progress values into at most four
// lines per batch, one per quarter reached.
type progressPrinter struct {
	w     io.Writer
	label string
	last  int
}

func newProgressPrinter(w io.Writer, label string) *progressPrinter {
	return &progressPrinter{w: w, label: label}
}

func (p *progressPrinter) observe(progress float64) {
	quarter := int(progress * 4)
	if quarter < p.last {
		// A new batch started in the same session.
		p.last = 0
	}
	if quarter > p.last {
		fmt.Fprintf(p.w, "%s %d%%\n", p.label, quarter*25)
		p.last = quarter
	}
}
