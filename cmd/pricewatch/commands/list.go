package commands

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"pricewatch/lib/catalog"
	"pricewatch/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listAPI *string

func init() {
	listAPI = listCmd.Flags().String("api", "github_pages/api.json", "Path or URL of a published api.json.")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [--api <path or url>]",
	Short: "Prints the models of a published catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		view, err := loadSimplified(cmd, *listAPI)
		if err != nil {
			serviceutil.Fatal("failed to load pricing data", err)
		}

		names := make([]string, 0, len(view.Models))
		for name := range view.Models {
			names = append(names, name)
		}
		slices.Sort(names)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Model", "Type", "Category", "Pricing"})
		for _, name := range names {
			record := view.Models[name]
			t.AppendRow(table.Row{
				record.Model,
				record.PricingType,
				record.Category,
				formatPricing(record),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Printf("%d models as of %s\n", view.ModelsCount, view.Timestamp)
	},
}

func formatPricing(record catalog.Record) string {
	var parts []string
	if record.Input > 0 {
		parts = append(parts, fmt.Sprintf("in $%g", record.Input))
	}
	if record.CachedInput > 0 {
		parts = append(parts, fmt.Sprintf("cached $%g", record.CachedInput))
	}
	if record.Output > 0 {
		parts = append(parts, fmt.Sprintf("out $%g", record.Output))
	}
	if record.Price > 0 {
		parts = append(parts, fmt.Sprintf("$%g", record.Price))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " / ")
}
