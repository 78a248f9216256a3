package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"feedling/internal/store"
)

func renderChannels(w io.Writer, channels []store.Channel) {
	if len(channels) == 0 {
		fmt.Fprintln(w, "no subscriptions")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tTITLE\tLINK")
	for _, ch := range channels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ch.ID, ch.Kind, ch.DisplayTitle(), ch.Link)
	}
	tw.Flush()
}

func renderItems(w io.Writer, items []store.Item, includeDismissed bool, search string) {
	shown := 0
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPUBLISHED\tCHANNEL\tTITLE\tLINK")
	for _, it := range items {
		if it.Dismissed && !includeDismissed {
			continue
		}
		if search != "" && !matchesSearch(it, search) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.ID,
			formatPublished(it.Published),
			orEmpty(it.ChannelTitle),
			orEmpty(it.Title),
			it.Link)
		shown++
	}

	if shown == 0 {
		fmt.Fprintln(w, "no items")
		return
	}
	tw.Flush()
}

// matchesSearch reports whether q occurs, case-insensitively, anywhere a
// reader would look.
func matchesSearch(it store.Item, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{orEmpty(it.Title), orEmpty(it.Summary), orEmpty(it.ChannelTitle), it.Link} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// formatPublished renders the published instant; items without one carry
// zero and render as a dash.
func formatPublished(published int64) string {
	if published == 0 {
		return "-"
	}
	return time.Unix(published, 0).UTC().Format("2006-01-02 15:04")
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
