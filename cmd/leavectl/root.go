package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/attendly/leavecore/client"
	"github.com/attendly/leavecore/engine"
	"github.com/attendly/leavecore/session"
)

var rootCmd = &cobra.Command{
	Use:           "leavectl",
	Short:         "Leave management from the terminal",
	Long:          `Apply for leave, track balances, and process approvals against a leave backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits non-zero on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "leave backend base URL")
	rootCmd.PersistentFlags().Bool("verbose", false, "log HTTP activity")

	viper.SetEnvPrefix("LEAVECTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, "leavecore"))
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		// A missing config file is fine; flags and env cover everything.
		_ = viper.ReadInConfig()
	}

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(approvalsCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(adminCmd)
}

// newEngine wires the client, file-backed session, and engine together. The
// token provider closes over the engine so requests always carry the live
// session token.
func newEngine() (*engine.Engine, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))

	path, err := session.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("locate session file: %w", err)
	}

	var eng *engine.Engine
	c := client.New(viper.GetString("server"), func() string { return eng.Token() }, logger)
	eng = engine.New(c, &session.FileStore{Path: path}, logger)
	return eng, nil
}

func logLevel() slog.Level {
	if viper.GetBool("verbose") {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// requireLogin fails fast with a hint instead of a raw 401 later.
func requireLogin(eng *engine.Engine) error {
	if !eng.LoggedIn() {
		return fmt.Errorf("not logged in (run: leavectl login <email>)")
	}
	return nil
}

// table writes aligned columns to stdout.
func table(header []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}
