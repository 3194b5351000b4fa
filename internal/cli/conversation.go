package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/coach-memory/internal/store"
)

func init() {
	conv := &cobra.Command{
		Use:   "conversation",
		Short: "Start, end, list and delete conversations",
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start a conversation",
		Run:   runConversationStart,
	}
	start.Flags().StringP("title", "t", "", "Conversation title")
	start.Flags().Bool("formal", false, "Formal session (numbered per user)")
	conv.AddCommand(start)

	end := &cobra.Command{
		Use:   "end <id>",
		Short: "End a conversation",
		Args:  cobra.ExactArgs(1),
		Run:   runConversationEnd,
	}
	end.Flags().StringP("summary", "s", "", "Conversation summary")
	conv.AddCommand(end)

	conv.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the user's conversations",
		Run:   runConversationList,
	})

	conv.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		Run:   runConversationRm,
	})

	RootCmd.AddCommand(conv)

	msg := &cobra.Command{
		Use:   "message <conversation-id> [content]",
		Short: "Append a message to a conversation",
		Long:  "Append a message. Content can be positional args or piped via stdin. Messages are from the user unless --coach is set.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMessage,
	}
	msg.Flags().Bool("coach", false, "Message is from the coach")
	msg.Flags().Bool("transcript", false, "Message is a voice transcript")
	RootCmd.AddCommand(msg)
}

func runConversationStart(cmd *cobra.Command, args []string) {
	user := requireUser()
	title, _ := cmd.Flags().GetString("title")
	formal, _ := cmd.Flags().GetBool("formal")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	c, err := s.StartConversation(cmd.Context(), store.StartParams{UserID: user, Title: title, IsFormal: formal})
	if err != nil {
		exitErr("start conversation", err)
	}
	log.Info("conversation started", "user_id", user, "conversation_id", c.ID, "formal", formal)

	if textOutput() {
		fmt.Println(c.ID)
		return
	}
	printJSON(c)
}

func runConversationEnd(cmd *cobra.Command, args []string) {
	summary, _ := cmd.Flags().GetString("summary")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	c, err := s.EndConversation(cmd.Context(), args[0], summary)
	if err != nil {
		exitErr("end conversation", err)
	}
	printJSON(c)
}

func runConversationList(cmd *cobra.Command, args []string) {
	user := requireUser()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	convs, err := s.Conversations(cmd.Context(), user, time.Time{})
	if err != nil {
		exitErr("list conversations", err)
	}

	if !textOutput() {
		printJSON(convs)
		return
	}
	for _, c := range convs {
		kind := "chat"
		if c.SessionNumber != nil {
			kind = fmt.Sprintf("session #%d", *c.SessionNumber)
		}
		state := "open"
		if c.Ended() {
			state = "ended"
		}
		fmt.Printf("%s  %s  %-12s %-5s %s\n", c.ID, c.StartedAt.Local().Format("2006-01-02 15:04"), kind, state, c.Title)
	}
}

func runConversationRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.DeleteConversation(cmd.Context(), args[0]); err != nil {
		exitErr("delete conversation", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}

func runMessage(cmd *cobra.Command, args []string) {
	coach, _ := cmd.Flags().GetBool("coach")
	transcript, _ := cmd.Flags().GetBool("transcript")
	content := readContent(args[1:])
	if content == "" {
		exitErr("message", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := s.AppendMessage(cmd.Context(), store.MessageParams{
		ConversationID: args[0],
		FromUser:       !coach,
		Content:        content,
		IsTranscript:   transcript,
	})
	if err != nil {
		exitErr("append message", err)
	}
	printJSON(m)
}
