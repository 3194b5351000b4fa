package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/coach-memory/internal/store"
)

func init() {
	hw := &cobra.Command{
		Use:   "homework",
		Short: "Assign, complete and list homework",
	}

	assign := &cobra.Command{
		Use:   "assign [title]",
		Short: "Assign homework",
		Args:  cobra.MinimumNArgs(1),
		Run:   runHomeworkAssign,
	}
	assign.Flags().String("description", "", "Instructions")
	assign.Flags().String("technique", "", "Therapeutic technique, e.g. CBT")
	assign.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	assign.Flags().String("conversation", "", "Conversation the homework was assigned in")
	hw.AddCommand(assign)

	complete := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark homework completed",
		Args:  cobra.ExactArgs(1),
		Run:   runHomeworkComplete,
	}
	complete.Flags().StringP("notes", "n", "", "Completion notes")
	hw.AddCommand(complete)

	hw.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the user's homework",
		Run:   runHomeworkList,
	})

	RootCmd.AddCommand(hw)
}

func runHomeworkAssign(cmd *cobra.Command, args []string) {
	user := requireUser()
	description, _ := cmd.Flags().GetString("description")
	technique, _ := cmd.Flags().GetString("technique")
	dueStr, _ := cmd.Flags().GetString("due")
	convID, _ := cmd.Flags().GetString("conversation")

	var due *time.Time
	if dueStr != "" {
		t, err := time.ParseInLocation(time.DateOnly, dueStr, time.Local)
		if err != nil {
			exitErr("parse due date", err)
		}
		due = &t
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	h, err := s.AssignHomework(cmd.Context(), store.HomeworkParams{
		UserID:         user,
		ConversationID: convID,
		Title:          strings.Join(args, " "),
		Description:    description,
		Technique:      technique,
		DueDate:        due,
	})
	if err != nil {
		exitErr("assign homework", err)
	}
	printJSON(h)
}

func runHomeworkComplete(cmd *cobra.Command, args []string) {
	notes, _ := cmd.Flags().GetString("notes")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	h, err := s.CompleteHomework(cmd.Context(), args[0], notes)
	if err != nil {
		exitErr("complete homework", err)
	}
	printJSON(h)
}

func runHomeworkList(cmd *cobra.Command, args []string) {
	user := requireUser()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	list, err := s.Homework(cmd.Context(), user)
	if err != nil {
		exitErr("list homework", err)
	}

	if !textOutput() {
		printJSON(list)
		return
	}
	for _, h := range list {
		status := "open"
		switch {
		case h.Completed():
			status = "done " + humanize.Time(*h.CompletedAt)
		case h.DueDate != nil:
			status = "due " + humanize.Time(*h.DueDate)
		}
		fmt.Printf("%s  %-24s %s\n", h.ID, status, h.Title)
	}
}
