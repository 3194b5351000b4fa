package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/coach-memory/internal/memory"
	"github.com/rcliao/coach-memory/internal/store"
)

func init() {
	rem := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store an important memory if it clears the importance threshold",
		Long: "Store an extracted insight. Importance is 0-1 (or 0-100); only scores above " +
			"memory.importance_threshold are kept. Content can be positional args or piped via stdin.",
		Run: runRemember,
	}
	rem.Flags().String("category", "", "triggers, coping_strategies, goals, insights or progress")
	rem.Flags().Float64P("importance", "i", 0, "Importance score")
	rem.Flags().String("conversation", "", "Source conversation id")
	rem.Flags().String("message", "", "Source message id")
	RootCmd.AddCommand(rem)

	list := &cobra.Command{
		Use:   "memories",
		Short: "List important memories, newest first",
		Run:   runMemories,
	}
	list.Flags().String("category", "", "Filter by category")
	list.Flags().Float64("min-importance", 0, "Minimum importance score")
	list.Flags().IntP("limit", "l", 20, "Max results")
	RootCmd.AddCommand(list)
}

func runRemember(cmd *cobra.Command, args []string) {
	user := requireUser()
	content := readContent(args)
	if content == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetFloat64("importance")
	convID, _ := cmd.Flags().GetString("conversation")
	msgID, _ := cmd.Flags().GetString("message")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, stored, err := newService(s).Remember(cmd.Context(), memory.MemoryInput{
		UserID:          user,
		ConversationID:  convID,
		MessageID:       msgID,
		Content:         content,
		Category:        category,
		ImportanceScore: importance,
	})
	if err != nil {
		exitErr("remember", err)
	}
	if !stored {
		fmt.Printf(`{"ok":true,"stored":false,"threshold":%v}`+"\n", cfg.Memory.ImportanceThreshold)
		return
	}
	printJSON(m)
}

func runMemories(cmd *cobra.Command, args []string) {
	user := requireUser()
	category, _ := cmd.Flags().GetString("category")
	minImportance, _ := cmd.Flags().GetFloat64("min-importance")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := s.ListImportantMemories(cmd.Context(), store.MemoryFilter{
		UserID:        user,
		Category:      category,
		MinImportance: minImportance,
		Limit:         limit,
	})
	if err != nil {
		exitErr("memories", err)
	}

	if !textOutput() {
		printJSON(memories)
		return
	}
	for _, m := range memories {
		cat := m.Category
		if cat == "" {
			cat = "-"
		}
		fmt.Printf("%.2f  %-17s %-14s %s\n", m.ImportanceScore, cat, humanize.Time(m.CreatedAt), m.Content)
	}
}
