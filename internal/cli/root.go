// Package cli implements the coach-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/coach-memory/internal/config"
	"github.com/rcliao/coach-memory/internal/crisis"
	"github.com/rcliao/coach-memory/internal/logger"
	"github.com/rcliao/coach-memory/internal/memory"
	"github.com/rcliao/coach-memory/internal/store"
)

var (
	dbPath     string
	configPath string
	userFlag   string
	formatFlag string

	cfg *config.Config
	log *logger.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "coach-memory",
	Short: "Conversation memory and crisis screening for a coaching assistant",
	Long: "Stores coaching conversations in SQLite, retrieves relevant past context, " +
		"extracts recurring themes, builds a therapeutic timeline and screens messages for crisis signals.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			exitErr("load config", err)
		}
		log, err = logger.New(cfg.Log.Mode, cfg.Log.Level)
		if err != nil {
			exitErr("init logger", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $COACH_MEMORY_DB or ~/.coach-memory/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (YAML)")
	RootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", os.Getenv("COACH_MEMORY_USER"), "User id (default: $COACH_MEMORY_USER)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.Database.Path
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func newService(s memory.Store) *memory.Service {
	return memory.NewService(s,
		memory.WithLogger(log),
		memory.WithImportanceThreshold(cfg.Memory.ImportanceThreshold),
	)
}

func newDetector() (*crisis.Detector, error) {
	tables := crisis.DefaultTables()
	if cfg.Crisis.TablesPath != "" {
		var err error
		if tables, err = crisis.LoadTables(cfg.Crisis.TablesPath); err != nil {
			return nil, err
		}
	}
	return crisis.New(crisis.WithTables(tables), crisis.WithLogger(log))
}

func requireUser() string {
	if userFlag == "" {
		exitErr("user", fmt.Errorf("--user is required"))
	}
	return userFlag
}

func textOutput() bool {
	return formatFlag == "text"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// readContent takes content from positional args, falling back to piped stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " "))
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return strings.TrimSpace(string(b))
	}
	return ""
}

func exitErr(msg string, err error) {
	if log != nil {
		log.Debug("command failed", "step", msg, "error", err)
	}
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
