package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dshills/suggestcheck/internal/config"
	"github.com/dshills/suggestcheck/internal/registry"
	"github.com/spf13/cobra"
)

func newScenariosCmd(cfg *config.Config) *cobra.Command {
	var path string
	var showRules bool

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List registered scenarios",
		RunE: func(_ *cobra.Command, _ []string) error {
			reg, err := loadRegistry(path)
			if err != nil {
				return err
			}
			return listScenarios(os.Stdout, reg, showRules)
		},
	}
	cmd.Flags().StringVar(&path, "registry", cfg.Registry, "Scenario registry YAML file (default: built-in)")
	cmd.Flags().BoolVar(&showRules, "rules", false, "Show the rules applied to each scenario")
	return cmd
}

func listScenarios(w io.Writer, reg *registry.Registry, showRules bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range reg.IDs() {
		sc, _ := reg.Scenario(id)
		fmt.Fprintf(tw, "%s\t%s\n", id, sc.Description)
		if showRules {
			for _, rule := range reg.Rules(id) {
				fmt.Fprintf(tw, "\t  %s\n", rule.Name())
			}
		}
	}
	return tw.Flush()
}
