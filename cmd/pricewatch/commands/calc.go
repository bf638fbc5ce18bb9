package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"pricewatch/lib/catalog"
	"pricewatch/lib/costcalc"
	"pricewatch/lib/util/serviceutil"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	calcAPI    *string
	calcInput  *int64
	calcOutput *int64
	calcCached *int64
	calcUnits  *float64
)

func init() {
	calcAPI = calcCmd.Flags().String("api", "github_pages/api.json", "Path or URL of a published api.json.")
	calcInput = calcCmd.Flags().Int64("input-tokens", 0, "Input token count.")
	calcOutput = calcCmd.Flags().Int64("output-tokens", 0, "Output token count.")
	calcCached = calcCmd.Flags().Int64("cached-tokens", 0, "Cached input token count.")
	calcUnits = calcCmd.Flags().Float64("units", 0, "Unit count for models billed per image/second/minute/character.")
	rootCmd.AddCommand(calcCmd)
}

var calcCmd = &cobra.Command{
	Use:   "calc <model> [--input-tokens <n>] [--output-tokens <n>] [--units <n>]",
	Short: "Calculates the cost of usage against a published catalog.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		view, err := loadSimplified(cmd, *calcAPI)
		if err != nil {
			serviceutil.Fatal("failed to load pricing data", err)
		}

		calculator := costcalc.New(view.Models)
		breakdown, err := calculator.Cost(args[0], costcalc.Usage{
			InputTokens:       *calcInput,
			OutputTokens:      *calcOutput,
			CachedInputTokens: *calcCached,
			Units:             *calcUnits,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			if suggestions := calculator.Suggest(args[0], 3); len(suggestions) > 0 {
				fmt.Fprintf(os.Stderr, "did you mean: %s\n", strings.Join(suggestions, ", "))
			}
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Model", "Type", "Category", "Cost"})
		t.AppendRow(table.Row{
			breakdown.Record.Model,
			breakdown.Record.PricingType,
			breakdown.Record.Category,
			fmt.Sprintf("$%.6f", breakdown.Total),
		})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if breakdown.Record.PricingType == catalog.Per1MTokens {
			fmt.Printf(
				"input $%.6f + cached $%.6f + output $%.6f\n",
				breakdown.InputCost, breakdown.CachedInputCost, breakdown.OutputCost,
			)
		}
	},
}

// loadSimplified reads a published api.json from a local path or over
// HTTP.
func loadSimplified(cmd *cobra.Command, source string) (catalog.Simplified, error) {
	var data []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		res, resErr := resty.New().R().SetContext(cmd.Context()).Get(source)
		if resErr != nil {
			return catalog.Simplified{}, resErr
		}
		if res.StatusCode() < 200 || res.StatusCode() > 299 {
			return catalog.Simplified{}, fmt.Errorf("unexpected status %d from %s", res.StatusCode(), source)
		}
		data = res.Body()
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return catalog.Simplified{}, err
		}
	}

	var view catalog.Simplified
	err = json.Unmarshal(data, &view)
	if err != nil {
		return catalog.Simplified{}, fmt.Errorf("%s: %w", source, err)
	}
	return view, nil
}
