package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Retrieve past conversation excerpts relevant to a message",
		Long:  "Rebuild the user's conversation index and return the chunks most similar to the query.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}
	cmd.Flags().IntP("limit", "l", 0, "Max results (default: retrieval.max_results)")
	RootCmd.AddCommand(cmd)

	themes := &cobra.Command{
		Use:   "themes",
		Short: "Extract recurring themes from recent user messages",
		Run:   runThemes,
	}
	themes.Flags().Int("days", 0, "Look-back window in days (default: themes.days)")
	themes.Flags().Int("min-occurrences", 0, "Minimum occurrences of a theme (default: themes.min_occurrences)")
	RootCmd.AddCommand(themes)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "timeline",
		Short: "Show formal sessions, important memories and homework in date order",
		Run:   runTimeline,
	})
}

func runContext(cmd *cobra.Command, args []string) {
	user := requireUser()
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Retrieval.MaxResults
	}
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := newService(s).RetrieveRelevantContext(cmd.Context(), query, user, limit)
	if err != nil {
		exitErr("context", err)
	}

	if !textOutput() {
		printJSON(results)
		return
	}
	for _, r := range results {
		label := r.Metadata.ConversationTitle
		if r.Metadata.SessionNumber != nil {
			label = fmt.Sprintf("Session #%d %s", *r.Metadata.SessionNumber, label)
		}
		fmt.Printf("[%.3f] %s %s\n%s\n", r.SimilarityScore, r.Metadata.Date, strings.TrimSpace(label), r.Text)
	}
}

func runThemes(cmd *cobra.Command, args []string) {
	user := requireUser()
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = cfg.Themes.Days
	}
	minOcc, _ := cmd.Flags().GetInt("min-occurrences")
	if minOcc <= 0 {
		minOcc = cfg.Themes.MinOccurrences
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	themes, err := newService(s).RecentThemes(cmd.Context(), user, days, minOcc)
	if err != nil {
		exitErr("themes", err)
	}

	if !textOutput() {
		printJSON(themes)
		return
	}
	for _, t := range themes {
		fmt.Printf("%.3f  %s\n", t.ImportanceScore, t.Theme)
	}
}

func runTimeline(cmd *cobra.Command, args []string) {
	user := requireUser()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := newService(s).Timeline(cmd.Context(), user)
	if err != nil {
		exitErr("timeline", err)
	}

	if !textOutput() {
		printJSON(events)
		return
	}
	for _, e := range events {
		fmt.Printf("%s  %-18s %s\n", e.Date.Local().Format("2006-01-02 15:04"), e.Type, e.Title)
	}
}
