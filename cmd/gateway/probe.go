package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/kuretru/quatt-gateway/internal/collector"
	"github.com/kuretru/quatt-gateway/internal/dashboard"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Poll every collector once and print the entity states as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := prepare(cmd)
		if err != nil {
			return err
		}
		db := database.New()
		if err = collector.Probe(cmd.Context(), config.Collectors, db); err != nil {
			return err
		}
		return writeStates(cmd.Context(), cmd.OutOrStdout(), db)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [card]",
	Short: "Poll every collector once and print a dashboard card as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := prepare(cmd)
		if err != nil {
			return err
		}
		name := defaultCardName
		if len(args) == 1 {
			name = args[0]
		}
		db := database.New()
		if err = collector.Probe(cmd.Context(), config.Collectors, db); err != nil {
			return err
		}
		return writeCard(cmd.OutOrStdout(), config.Dashboard, name, db)
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(renderCmd)
}

func writeStates(ctx context.Context, w io.Writer, db *database.Database) error {
	out, err := yaml.Marshal(db.GetAllRecords(ctx))
	if err != nil {
		return fmt.Errorf("marshal states failed, %w", err)
	}
	_, err = w.Write(out)
	return err
}

func writeCard(w io.Writer, config *DashboardConfig, name string, store dashboard.StateStore) error {
	if config == nil {
		config = &DashboardConfig{}
		config.applyDefaults()
	}
	instance, ok := config.Cards[name]
	if !ok {
		return fmt.Errorf("card %v is not configured", name)
	}
	registry := dashboard.NewRegistry()
	if err := dashboard.RegisterCards(registry); err != nil {
		return err
	}
	card, ok := registry.Lookup(instance.Type)
	if !ok {
		return fmt.Errorf("card %v has unknown type %v", name, instance.Type)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(card.Render(&instance.Config, store))
}
