package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fluxo/internal/cli"
	"fluxo/internal/config"
	"fluxo/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "fluxoctl",
	Short: "Operator tools for the fluxo ledger",
	Long: `fluxoctl runs recurrence sweeps, applies database migrations and
inspects recurrence rules against the same SQLite database the API uses.

Flags override FLUXO_* environment variables, which override the regular
service configuration.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "SQLite database path (default: SQLITE_DB_PATH)")
	flags.String("timezone", "", "time zone deciding today (default: TIMEZONE)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default: LOG_LEVEL)")

	_ = viper.BindPFlag("db", flags.Lookup("db"))
	_ = viper.BindPFlag("timezone", flags.Lookup("timezone"))
	_ = viper.BindPFlag("log-level", flags.Lookup("log-level"))

	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rulesCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	viper.SetEnvPrefix("FLUXO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	log.SetDefault(loadConfig().Logger(log.ComponentCLI))
	return nil
}

// loadConfig reads the service configuration and applies flag and FLUXO_*
// overrides on top.
func loadConfig() *config.Config {
	cfg := config.Load()
	if v := viper.GetString("db"); v != "" {
		cfg.SQLiteDBPath = v
	}
	if v := viper.GetString("timezone"); v != "" {
		cfg.Timezone = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}
