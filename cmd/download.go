// Package cmd implements the command-line interface for jellysan.
package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/jellysan-cli/jellysan/color"
	"github.com/jellysan-cli/jellysan/download"
	"github.com/jellysan-cli/jellysan/icon"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/resolver"
	"github.com/jellysan-cli/jellysan/source"
	"github.com/jellysan-cli/jellysan/style"
	"github.com/jellysan-cli/jellysan/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().BoolP("all", "a", false, "Download every matching item without prompting")
}

// downloadCmd fetches items from the server for offline playback.
var downloadCmd = &cobra.Command{
	Use:     "download [query]...",
	Short:   "Download media from the server for offline playback",
	Aliases: []string{"dl", "downloads"},
	Example: "  jellysan download the expanse",
	Run: func(cmd *cobra.Command, args []string) {
		client, userID, err := serverClient()
		handleErr(err)

		ctx := context.Background()

		term := strings.Join(args, " ")
		if term == "" {
			handleErr(survey.AskOne(&survey.Input{Message: "Search"}, &term, survey.WithValidator(survey.Required)))
		}

		results, err := client.SearchItems(ctx, userID, term, viper.GetInt(key.SearchLimit))
		handleErr(err)
		if len(results) == 0 {
			handleErr(fmt.Errorf("no results for %q", term))
		}

		var targets []*source.MediaItem
		if lo.Must(cmd.Flags().GetBool("all")) {
			targets = results
		} else {
			options := lo.Map(results, func(item *source.MediaItem, _ int) string {
				return item.String()
			})

			var chosen []int
			prompt := &survey.MultiSelect{
				Message:  "Download",
				Options:  options,
				PageSize: 15,
			}
			handleErr(survey.AskOne(prompt, &chosen, survey.WithValidator(survey.Required)))

			for _, index := range chosen {
				targets = append(targets, results[index])
			}
		}

		res := resolver.New(client, userID, viper.GetString(key.PlaybackMaxQuality))
		manager := download.NewManager(viper.GetInt(key.DownloadsConcurrent))

		for _, item := range targets {
			resolution, err := res.Resolve(ctx, item)
			if err != nil {
				fmt.Printf("%s %s: %v\n", icon.Get(icon.Fail), item.String(), err)
				continue
			}

			if err := manager.Start(ctx, item, resolution.StreamURL, resolution.Source.Container); err != nil {
				fmt.Printf("%s %s: %v\n", icon.Get(icon.Fail), item.String(), err)
				continue
			}
			fmt.Printf("%s queued %s\n", icon.Get(icon.Download), item.String())
		}

		eraser := util.PrintErasable(fmt.Sprintf("%s Downloading...", icon.Get(icon.Progress)))
		manager.Wait()
		eraser()

		for _, item := range targets {
			record, ok := download.StatusOf(item.ID)
			if !ok {
				continue
			}

			switch record.Status {
			case download.StatusCompleted:
				fmt.Printf(
					"%s %s -> %s\n",
					style.Fg(color.Green)(icon.Get(icon.Success)),
					item.String(),
					style.Fg(color.Yellow)(record.Path),
				)
			case download.StatusFailed:
				fmt.Printf(
					"%s %s: %s\n",
					style.Fg(color.Red)(icon.Get(icon.Fail)),
					item.String(),
					record.Error,
				)
			}
		}
	},
}

func init() {
	downloadCmd.AddCommand(downloadListCmd)
}

// downloadListCmd prints every tracked download and its state.
var downloadListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tracked downloads and their states",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		records, err := download.All()
		handleErr(err)

		if len(records) == 0 {
			fmt.Println("no downloads")
			return
		}

		sort.Slice(records, func(i, j int) bool {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		})

		for _, record := range records {
			var marker string
			switch record.Status {
			case download.StatusCompleted:
				marker = style.Fg(color.Green)(icon.Get(icon.Success))
			case download.StatusFailed:
				marker = style.Fg(color.Red)(icon.Get(icon.Fail))
			default:
				marker = icon.Get(icon.Progress)
			}

			fmt.Printf("%s %s (%.0f%%) %s\n", marker, record.Name, record.Percent, style.Faint(record.Path))
		}
	},
}

func init() {
	downloadCmd.AddCommand(downloadRemoveCmd)
}

// downloadRemoveCmd deletes a download's file and tracking record.
var downloadRemoveCmd = &cobra.Command{
	Use:     "remove [item-id]",
	Short:   "Delete a download's file and tracking record",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(download.Remove(args[0]))
		fmt.Printf("%s removed %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), args[0])
	},
}
