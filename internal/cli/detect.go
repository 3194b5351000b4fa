package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/coach-memory/internal/crisis"
	"github.com/rcliao/coach-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "detect [message]",
		Short: "Screen a message for crisis signals",
		Long: "Screen a message for crisis signals using keywords, indirect-intent patterns, " +
			"the user's recent messages and risk profile. Detected crises are recorded. " +
			"Message can be a positional arg or piped via stdin.",
		Run: runDetect,
	}
	cmd.Flags().String("conversation", "", "Conversation id to attach to a recorded crisis event")
	cmd.Flags().Bool("no-history", false, "Ignore the user's recent messages")
	cmd.Flags().Bool("no-record", false, "Do not record a crisis event")
	RootCmd.AddCommand(cmd)

	ind := &cobra.Command{
		Use:   "indicators",
		Short: "Summarize crisis keyword persistence across the user's recent messages",
		Run:   runIndicators,
	}
	ind.Flags().IntP("window", "w", 0, "Number of recent user messages (default: crisis.history_window)")
	RootCmd.AddCommand(ind)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "resources [category...]",
		Short: "List emergency resources, general plus any named categories",
		Run:   runResources,
	})

	RootCmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List crisis categories",
		Run:   runCategories,
	})
}

type detectOutput struct {
	crisis.Result
	Response string `json:"response,omitempty"`
	EventID  string `json:"event_id,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) {
	user := requireUser()
	message := readContent(args)
	if message == "" {
		exitErr("detect", fmt.Errorf("message is required (positional arg or stdin)"))
	}
	convID, _ := cmd.Flags().GetString("conversation")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	noRecord, _ := cmd.Flags().GetBool("no-record")

	d, err := newDetector()
	if err != nil {
		exitErr("load crisis tables", err)
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()
	ctx := cmd.Context()

	var history []string
	if !noHistory {
		if history, err = s.RecentUserMessages(ctx, user, cfg.Crisis.HistoryWindow); err != nil {
			exitErr("load history", err)
		}
	}
	profile, err := s.RiskProfile(ctx, user)
	if err != nil {
		exitErr("load risk profile", err)
	}

	res := d.Detect(message, history, profile)
	out := detectOutput{Result: res}
	if res.IsCrisis {
		out.Response = d.Response(res.Categories, res.Analysis)
		if !noRecord {
			ev, err := s.RecordCrisisEvent(ctx, model.CrisisEvent{
				UserID:          user,
				ConversationID:  convID,
				Message:         message,
				Categories:      res.Categories,
				RiskLevel:       res.Analysis.RiskLevel.String(),
				ConfidenceScore: res.Analysis.ConfidenceScore,
			})
			if err != nil {
				exitErr("record crisis event", err)
			}
			out.EventID = ev.ID
		}
	}

	if !textOutput() {
		printJSON(out)
		return
	}
	if !res.IsCrisis {
		fmt.Println("No crisis indicators detected.")
		return
	}
	fmt.Printf("Risk: %s (confidence %.2f)  Categories: %s\n\n",
		res.Analysis.RiskLevel, res.Analysis.ConfidenceScore, strings.Join(res.Categories, ", "))
	fmt.Println(out.Response)
	fmt.Println()
	fmt.Print(crisis.FormatResources(res.Resources))
}

func runIndicators(cmd *cobra.Command, args []string) {
	user := requireUser()
	window, _ := cmd.Flags().GetInt("window")
	if window <= 0 {
		window = cfg.Crisis.HistoryWindow
	}

	d, err := newDetector()
	if err != nil {
		exitErr("load crisis tables", err)
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	history, err := s.RecentUserMessages(cmd.Context(), user, window)
	if err != nil {
		exitErr("load history", err)
	}
	ind := d.HistoricalIndicators(history)

	if !textOutput() {
		printJSON(ind)
		return
	}
	fmt.Printf("Pattern found: %v  Increasing: %v\n", ind.PatternFound, ind.IncreasingPattern)
	for _, c := range ind.PersistentCategories {
		fmt.Printf("  %-18s %.0f%% of messages\n", c, ind.CategoryPersistence[c]*100)
	}
}

func runResources(cmd *cobra.Command, args []string) {
	d, err := newDetector()
	if err != nil {
		exitErr("load crisis tables", err)
	}
	for _, c := range args {
		if _, err := d.ResourcesFor(c); err != nil {
			exitErr("resources", err)
		}
	}
	resources := d.Resources(args)

	if !textOutput() {
		printJSON(resources)
		return
	}
	fmt.Print(crisis.FormatResources(resources))
}

func runCategories(cmd *cobra.Command, args []string) {
	d, err := newDetector()
	if err != nil {
		exitErr("load crisis tables", err)
	}
	names := d.Tables().Names()

	if !textOutput() {
		printJSON(names)
		return
	}
	fmt.Println(strings.Join(names, "\n"))
}
