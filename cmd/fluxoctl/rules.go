package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect recurrence rules",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List an owner's active rules with their watermark and next occurrence",
		RunE:  runRulesList,
	}
	list.Flags().String("owner", "", "owner whose rules to list (required)")
	_ = list.MarkFlagRequired("owner")
	cmd.AddCommand(list)
	return cmd
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	cfg := loadConfig()
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("failed to close database", log.FieldError, closeErr.Error())
		}
	}()

	views, err := services.NewRuleService(repo, loc, log.Default(log.ComponentCLI)).List(cmd.Context(), owner)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintf(out, "No active rules for %s.\n", owner)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tAMOUNT\tPERIODICITY\tLAST PROCESSED\tNEXT")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Name, v.Kind, v.Amount, v.Periodicity, dateOrDash(v.LastProcessed), dateOrDash(v.NextOccurrence))
	}
	return w.Flush()
}

func dateOrDash(d *core.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
