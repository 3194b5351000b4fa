package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/coach-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or set the user's baseline anxiety and depression scores (0-10)",
		Long: "Without flags, print the profile. With --anxiety and/or --depression, replace it; " +
			"an omitted score is cleared unless --keep is set.",
		Run: runProfile,
	}
	cmd.Flags().Int("anxiety", 0, "Anxiety score 0-10")
	cmd.Flags().Int("depression", 0, "Depression score 0-10")
	cmd.Flags().Bool("keep", false, "Keep the existing value of an omitted score")
	RootCmd.AddCommand(cmd)
}

func runProfile(cmd *cobra.Command, args []string) {
	user := requireUser()
	keep, _ := cmd.Flags().GetBool("keep")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()
	ctx := cmd.Context()

	current, err := s.RiskProfile(ctx, user)
	if err != nil {
		exitErr("load profile", err)
	}

	setAnxiety := cmd.Flags().Changed("anxiety")
	setDepression := cmd.Flags().Changed("depression")
	if setAnxiety || setDepression {
		next := model.RiskProfile{}
		if keep && current != nil {
			next = *current
		}
		if setAnxiety {
			v, _ := cmd.Flags().GetInt("anxiety")
			next.AnxietyScore = &v
		}
		if setDepression {
			v, _ := cmd.Flags().GetInt("depression")
			next.DepressionScore = &v
		}
		if err := s.SetRiskProfile(ctx, user, next); err != nil {
			exitErr("set profile", err)
		}
		current = &next
	}

	if current == nil {
		if textOutput() {
			fmt.Println("No profile.")
			return
		}
		fmt.Println("null")
		return
	}
	if !textOutput() {
		printJSON(current)
		return
	}
	fmt.Printf("anxiety: %s\ndepression: %s\n", score(current.AnxietyScore), score(current.DepressionScore))
}

func score(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d/10", *v)
}
