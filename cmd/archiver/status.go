package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/app"
	"github.com/Sateviss/youtube-archive/internal/domain"
	"github.com/Sateviss/youtube-archive/internal/infrastructure"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-channel archive progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		repo, err := infrastructure.NewStateRepository(&config.State, zap.NewNop())
		if err != nil {
			return err
		}
		defer repo.Close()

		state, err := repo.Load()
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		printStatus(os.Stdout, state)
		return nil
	},
}

// printStatus writes one row per channel plus a total row
func printStatus(out io.Writer, state domain.State) {
	urls := make([]string, 0, len(state))
	for url := range state {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tTITLE\tVIDEOS\tCHECKED\tDOWNLOADING\tDOWNLOADED")
	for _, url := range urls {
		channel := state[url]
		stats := channel.Stats()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
			url, truncate(channel.Title, 40), stats.Videos, stats.Checked, stats.Downloading, stats.Downloaded)
	}
	total := state.Stats()
	fmt.Fprintf(w, "TOTAL\t%d channels\t%d\t%d\t%d\t%d\n",
		total.Channels, total.Videos, total.Checked, total.Downloading, total.Downloaded)
	w.Flush()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
