package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if !textOutput() {
		printJSON(stats)
		return
	}
	fmt.Printf("Database:       %s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
	fmt.Printf("Users:          %s\n", humanize.Comma(int64(stats.Users)))
	fmt.Printf("Conversations:  %s (%s formal)\n", humanize.Comma(int64(stats.Conversations)), humanize.Comma(int64(stats.FormalSessions)))
	fmt.Printf("Messages:       %s\n", humanize.Comma(int64(stats.Messages)))
	fmt.Printf("Memories:       %s\n", humanize.Comma(int64(stats.Memories)))
	fmt.Printf("Homework:       %s (%s open)\n", humanize.Comma(int64(stats.Homework)), humanize.Comma(int64(stats.OpenHomework)))
	fmt.Printf("Crisis events:  %s\n", humanize.Comma(int64(stats.CrisisEvents)))
}
