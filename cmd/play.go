// Package cmd implements the command-line interface for jellysan.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/jellysan-cli/jellysan/color"
	"github.com/jellysan-cli/jellysan/download"
	"github.com/jellysan-cli/jellysan/history"
	"github.com/jellysan-cli/jellysan/icon"
	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/log"
	"github.com/jellysan-cli/jellysan/playback"
	"github.com/jellysan-cli/jellysan/player"
	"github.com/jellysan-cli/jellysan/query"
	"github.com/jellysan-cli/jellysan/queue"
	"github.com/jellysan-cli/jellysan/resolver"
	"github.com/jellysan-cli/jellysan/segments"
	"github.com/jellysan-cli/jellysan/session"
	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("query", "q", "", "The search query used to locate items on the server")
	playCmd.Flags().BoolP("continue", "c", false, "Resume playback from the most recent history entry")
	playCmd.Flags().BoolP("shuffle", "s", false, "Shuffle the playback queue")
	playCmd.Flags().BoolP("local", "l", true, "Prefer completed downloads over streaming")
	playCmd.Flags().String("quality", "", "Quality cap for this run (original, auto, 1080p, 720p, 480p)")
	playCmd.Flags().Float64("speed", 1, "Playback speed multiplier")
	lo.Must0(viper.BindPFlag(key.PlaybackMaxQuality, playCmd.Flags().Lookup("quality")))

	lo.Must0(playCmd.RegisterFlagCompletionFunc("query", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return query.SuggestMany(toComplete), cobra.ShellCompDirectiveNoFileComp
	}))
}

// playCmd searches the server and streams the selection with the configured player.
var playCmd = &cobra.Command{
	Use:     "play [query]...",
	Short:   "Search the media server and play the selection",
	Aliases: []string{"p", "watch"},
	Example: "  jellysan play breaking bad",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		client, userID, err := serverClient()
		handleErr(err)

		ctx := context.Background()

		var (
			items      []*source.MediaItem
			startIndex int
		)

		if lo.Must(cmd.Flags().GetBool("continue")) {
			items, startIndex, err = continueQueue(ctx, client, userID)
		} else {
			items, startIndex, err = searchQueue(ctx, cmd, args, client, userID)
		}
		handleErr(err)

		if len(items) == 0 {
			handleErr(errors.New("nothing to play"))
		}

		handleErr(runPlayback(ctx, client, userID, items, startIndex, playOptions{
			shuffle:     lo.Must(cmd.Flags().GetBool("shuffle")),
			preferLocal: lo.Must(cmd.Flags().GetBool("local")),
			speed:       lo.Must(cmd.Flags().GetFloat64("speed")),
		}))
	},
}

// searchQueue prompts for a query, searches the server and expands the chosen
// item into a playable queue.
func searchQueue(ctx context.Context, cmd *cobra.Command, args []string, client *jellyfin.Client, userID string) ([]*source.MediaItem, int, error) {
	term := lo.Must(cmd.Flags().GetString("query"))
	if term == "" && len(args) > 0 {
		term = strings.Join(args, " ")
	}

	if term == "" {
		prompt := &survey.Input{
			Message: "Search",
			Suggest: query.SuggestMany,
		}
		if err := survey.AskOne(prompt, &term, survey.WithValidator(survey.Required)); err != nil {
			return nil, 0, err
		}
	}

	if err := query.Remember(term, 1); err != nil {
		log.Warnf("remembering query %q: %v", term, err)
	}

	results, err := client.SearchItems(ctx, userID, term, viper.GetInt(key.SearchLimit))
	if err != nil {
		return nil, 0, err
	}
	if len(results) == 0 {
		return nil, 0, fmt.Errorf("no results for %q", term)
	}

	chosen, err := selectItem("Play", results)
	if err != nil {
		return nil, 0, err
	}

	return expandSelection(ctx, client, userID, chosen)
}

// continueQueue rebuilds a queue around the most recent history entry, falling
// back to the server's continue-watching shelf.
func continueQueue(ctx context.Context, client *jellyfin.Client, userID string) ([]*source.MediaItem, int, error) {
	records, err := history.Get()
	if err != nil {
		return nil, 0, err
	}

	if len(records) > 0 {
		latest := lo.MaxBy(lo.Values(records), func(a, b *history.SavedItem) bool {
			return a.UpdatedAt.After(b.UpdatedAt)
		})

		item, err := client.Item(ctx, userID, latest.ItemID)
		if err != nil {
			return nil, 0, err
		}
		return expandSelection(ctx, client, userID, item)
	}

	shelf, err := client.ResumeItems(ctx, userID, 1)
	if err != nil {
		return nil, 0, err
	}
	if len(shelf) == 0 {
		return nil, 0, errors.New("nothing to continue")
	}
	return expandSelection(ctx, client, userID, shelf[0])
}

// expandSelection turns a chosen item into a queue. Episodes pull in the rest
// of their series; series items prompt for a starting episode.
func expandSelection(ctx context.Context, client *jellyfin.Client, userID string, chosen *source.MediaItem) ([]*source.MediaItem, int, error) {
	if chosen.SeriesID != "" {
		episodes, err := client.Episodes(ctx, userID, chosen.SeriesID)
		if err != nil || len(episodes) == 0 {
			// Fall back to single-item playback when the series listing fails.
			return []*source.MediaItem{chosen}, 0, nil
		}

		for i, episode := range episodes {
			if episode.ID == chosen.ID {
				return episodes, i, nil
			}
		}
		return []*source.MediaItem{chosen}, 0, nil
	}

	// Series entries come back from search without a parent and without a
	// runtime of their own.
	if chosen.DurationTicks == 0 {
		episodes, err := client.Episodes(ctx, userID, chosen.ID)
		if err != nil {
			return nil, 0, err
		}
		if len(episodes) > 0 {
			defaultIndex := 0
			if next, err := client.NextUp(ctx, userID, chosen.ID); err == nil && next != nil {
				for i, episode := range episodes {
					if episode.ID == next.ID {
						defaultIndex = i
						break
					}
				}
			}

			episode, err := selectItemDefault("Start from", episodes, defaultIndex)
			if err != nil {
				return nil, 0, err
			}
			for i, e := range episodes {
				if e.ID == episode.ID {
					return episodes, i, nil
				}
			}
		}
	}

	return []*source.MediaItem{chosen}, 0, nil
}

func selectItem(message string, items []*source.MediaItem) (*source.MediaItem, error) {
	return selectItemDefault(message, items, 0)
}

func selectItemDefault(message string, items []*source.MediaItem, defaultIndex int) (*source.MediaItem, error) {
	if len(items) == 1 {
		return items[0], nil
	}

	options := lo.Map(items, func(item *source.MediaItem, _ int) string {
		return item.String()
	})

	var choice int
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		Default:  options[defaultIndex],
		PageSize: 15,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return nil, err
	}
	return items[choice], nil
}

// localFirstResolver serves completed downloads from disk and defers to the
// server resolver for everything else.
type localFirstResolver struct {
	inner *resolver.Resolver
}

func (r localFirstResolver) Resolve(ctx context.Context, item *source.MediaItem) (*resolver.Resolution, error) {
	if path, ok := download.LocalPath(item.ID); ok {
		return r.inner.ResolveLocal(item, path), nil
	}
	return r.inner.Resolve(ctx, item)
}

type playOptions struct {
	shuffle     bool
	preferLocal bool
	speed       float64
}

// speedController is implemented by backends with a playback speed property.
type speedController interface {
	SetSpeed(speed float64) error
}

// runPlayback wires the queue, resolver, reporter and player surface into an
// engine and blocks until the player exits.
func runPlayback(ctx context.Context, client *jellyfin.Client, userID string, items []*source.MediaItem, startIndex int, opts playOptions) error {
	var backend player.Player
	switch viper.GetString(key.PlaybackPlayer) {
	case "iina":
		backend = player.NewIINA()
	default:
		backend = player.NewMPV()
	}

	surface := player.NewSurface(backend)

	q := queue.New()
	q.Set(items, startIndex)
	if opts.shuffle {
		q.ToggleShuffle()
	}

	inner := resolver.New(client, userID, viper.GetString(key.PlaybackMaxQuality))
	var res playback.Resolver = inner
	if opts.preferLocal {
		res = localFirstResolver{inner: inner}
	}

	engine := playback.NewEngine(playback.Options{
		Resolver:           res,
		Reporter:           session.NewServerReporter(client),
		Surface:            surface,
		Queue:              q,
		ReportInterval:     time.Duration(viper.GetInt(key.PlaybackReportInterval)) * time.Second,
		AutoplayNext:       viper.GetBool(key.PlaybackAutoplayNext),
		PreferredAudioLang: viper.GetString(key.PlaybackPreferredAudioLang),
		PreferredSubsLang:  viper.GetString(key.PlaybackPreferredSubsLang),
	})
	surface.Bind(engine)

	done := make(chan struct{})
	go monitor(ctx, client, userID, engine, backend, opts.speed, done)

	first, ok := q.Current()
	if !ok {
		return errors.New("queue is empty")
	}
	engine.PlayItem(ctx, first)

	<-surface.Wait()
	close(done)
	engine.Stop()
	return nil
}

// monitor follows the engine once a second: announces queue transitions,
// drives the segment skipper and keeps the local watch history current.
func monitor(ctx context.Context, client *jellyfin.Client, userID string, engine *playback.Engine, backend player.Player, speed float64, done <-chan struct{}) {
	var (
		current    *source.MediaItem
		positionMs int64
		skipper    *segments.Skipper
	)

	finalize := func() {
		finalizeItem(ctx, client, userID, current, positionMs)
		current = nil
		positionMs = 0
		skipper = nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			finalize()
			return
		case <-ticker.C:
		}

		sess, ok := engine.Session()
		if !ok {
			continue
		}

		if current == nil || sess.Item.ID != current.ID {
			finalize()
			current = sess.Item

			fmt.Printf(
				"%s %s\n",
				icon.Get(icon.Play),
				style.Fg(color.HiGreen)(current.String()),
			)

			if current.Kind == source.KindVideo {
				skipper = newSkipper(ctx, client, backend, current.ID)
			}

			if speed != 1 {
				if controller, ok := backend.(speedController); ok {
					if err := controller.SetSpeed(speed); err != nil {
						log.Warnf("setting playback speed: %v", err)
					}
				}
			}
		}

		positionMs = engine.PositionMs()

		if skipper != nil && engine.State() == playback.StatePlaying {
			if skipped, err := skipper.Check(float64(positionMs) / 1000); err != nil {
				log.Warnf("skipping segment: %v", err)
			} else if skipped {
				fmt.Printf("%s skipped segment\n", icon.Get(icon.Progress))
			}
		}
	}
}

// newSkipper fetches segment timings for an item and arms a skipper on the
// player. Returns nil when the server has no timings.
func newSkipper(ctx context.Context, client *jellyfin.Client, backend player.Player, itemID string) *segments.Skipper {
	times, err := segments.Fetch(ctx, client, itemID)
	if err != nil {
		log.Warnf("fetching segments for %s: %v", itemID, err)
		return nil
	}
	if times == nil {
		return nil
	}

	skipper := segments.NewSkipper(
		backend,
		times,
		viper.GetBool(key.SegmentsSkipIntro),
		viper.GetBool(key.SegmentsSkipCredits),
	)
	if err := skipper.ApplyChapters(); err != nil {
		log.Debugf("applying chapter markers: %v", err)
	}
	return skipper
}

// finalizeItem persists the item's closing position to the local history, or
// marks it played server-side past the completion threshold.
func finalizeItem(ctx context.Context, client *jellyfin.Client, userID string, item *source.MediaItem, positionMs int64) {
	if item == nil || !viper.GetBool(key.HistorySaveOnWatch) {
		return
	}

	record := history.NewSavedItem(item, positionMs)

	if record.WatchedPercentage >= float64(viper.GetInt(key.PlaybackCompletionPercent)) {
		if err := history.Remove(item.ID); err != nil {
			log.Warnf("removing %s from history: %v", item.ID, err)
		}
		if err := client.MarkPlayed(ctx, userID, item.ID); err != nil {
			log.Warnf("marking %s played: %v", item.ID, err)
		}
		return
	}

	if err := history.Save(record); err != nil {
		log.Warnf("saving history for %s: %v", item.ID, err)
	}
}
