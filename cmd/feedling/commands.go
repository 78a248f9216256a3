package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"feedling/internal/config"
	"feedling/internal/worker"
)

var (
	itemsAll       bool
	itemsSearch    string
	dismissAllFlag bool
	configSets     []string
)

func init() {
	itemsCmd.Flags().BoolVar(&itemsAll, "all", false, "Include dismissed items")
	itemsCmd.Flags().StringVar(&itemsSearch, "search", "", "Only show items containing this text")
	dismissCmd.Flags().BoolVar(&dismissAllFlag, "all", false, "Dismiss every item")
	configCmd.Flags().StringArrayVar(&configSets, "set", nil, "Change a setting, key=value (repeatable)")
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every subscribed channel and store new items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(cmd, noDialogs{}, worker.UpdateFeed{})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d channels, %d items\n", len(res.channels), len(res.items))
		return nil
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List feed items, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if itemsSearch != "" && !appConfig.Snapshot().ShowSearchInFeed {
			return fmt.Errorf("search is off; enable it with: feedling config --set show_search_in_feed=true")
		}
		res, err := runSession(cmd, noDialogs{})
		if err != nil {
			return err
		}
		renderItems(cmd.OutOrStdout(), res.items, itemsAll, itemsSearch)
		return nil
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List subscribed channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(cmd, noDialogs{})
		if err != nil {
			return err
		}
		renderChannels(cmd.OutOrStdout(), res.channels)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Subscribe to a feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(cmd, noDialogs{}, worker.AddChannel{Link: args[0]})
		if err != nil {
			return err
		}
		renderChannels(cmd.OutOrStdout(), res.channels)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <channel-id> <title>",
	Short: "Change a channel's display title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(cmd, noDialogs{}, worker.EditChannel{ID: args[0], Title: args[1]})
		if err != nil {
			return err
		}
		renderChannels(cmd.OutOrStdout(), res.channels)
		return nil
	},
}

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <channel-id>",
	Short: "Remove a channel and its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(cmd, noDialogs{}, worker.Unsubscribe{ID: args[0]})
		if err != nil {
			return err
		}
		renderChannels(cmd.OutOrStdout(), res.channels)
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [item-id]",
	Short: "Mark an item as read, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var c worker.Command
		switch {
		case dismissAllFlag && len(args) == 0:
			c = worker.DismissAll{}
		case !dismissAllFlag && len(args) == 1:
			c = worker.SetDismissed{ID: args[0], Dismissed: true}
		default:
			return fmt.Errorf("pass exactly one item id, or --all")
		}

		res, err := runSession(cmd, noDialogs{}, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d items left unread\n", unreadCount(res))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <item-id>",
	Short: "Bring a dismissed item back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(cmd, noDialogs{}, worker.SetDismissed{ID: args[0], Dismissed: false})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d items left unread\n", unreadCount(res))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Subscribe to every feed in an OPML outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		res, err := runSession(cmd, noDialogs{}, worker.ImportChannels{Path: path})
		if err != nil {
			return err
		}
		renderChannels(cmd.OutOrStdout(), res.channels)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write all subscriptions as an OPML outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		res, err := runSession(cmd, fixedDialogs{path: path}, worker.ExportChannels{})
		if err != nil {
			return err
		}
		if res.warnings == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d channels to %s\n", len(res.channels), path)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show settings, or change them with --set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(configSets) > 0 {
			for _, kv := range configSets {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("expected key=value, got %q", kv)
				}
				var applyErr error
				appConfig.Update(func(s *config.Settings) {
					applyErr = applySetting(s, key, value)
				})
				if applyErr != nil {
					return applyErr
				}
			}
			if err := appConfig.Save(); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
		}

		cur := appConfig.Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "show_search_in_feed=%t\n", cur.ShowSearchInFeed)
		fmt.Fprintf(out, "auto_dismiss_on_open=%t\n", cur.AutoDismissOnOpen)
		fmt.Fprintf(out, "max_allowed_concurrent_requests=%d\n", cur.MaxAllowedConcurrentRequests)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("feedling %s\n", Version)
		fmt.Println("feed aggregation engine")
	},
}

func unreadCount(res *sessionResult) int {
	n := 0
	for _, it := range res.items {
		if !it.Dismissed {
			n++
		}
	}
	return n
}

// applySetting maps a key=value pair from the command line onto the
// settings value. Out-of-range numbers are clamped by the config layer
// afterwards.
func applySetting(s *config.Settings, key, value string) error {
	switch key {
	case "show_search_in_feed":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s wants true or false, got %q", key, value)
		}
		s.ShowSearchInFeed = v
	case "auto_dismiss_on_open":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s wants true or false, got %q", key, value)
		}
		s.AutoDismissOnOpen = v
	case "max_allowed_concurrent_requests":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s wants a number, got %q", key, value)
		}
		s.MaxAllowedConcurrentRequests = v
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
