package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/search"
)

var (
	searchItems    []string
	searchBudget   string
	searchDeadline string
	searchSize     string
	searchStyle    string
	searchTarget   string
	searchColor    string
	searchTrace    bool
)

type searchResult struct {
	Products []model.Product `json:"products"`
	Trace    *model.Trace    `json:"trace,omitempty"`
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search retailers for the requested items",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp()
		if err != nil {
			return err
		}

		cons := search.ConstraintsFromRequest(
			searchBudget, searchDeadline, searchSize, searchStyle, searchTarget, searchColor,
			searchItems,
		)

		products, trace, err := env.Controller.Search(ctx, cons)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		zap.L().Info("search complete",
			zap.Int("items", len(cons.Items)),
			zap.Int("products", len(products)),
			zap.String("session", trace.SessionID),
		)

		out := searchResult{Products: products}
		if searchTrace {
			out.Trace = trace
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchItems, "item", nil, "item to search for (repeatable, required)")
	searchCmd.Flags().StringVar(&searchBudget, "budget", "", `budget phrase, e.g. "under $100"`)
	searchCmd.Flags().StringVar(&searchDeadline, "deadline", "", `delivery deadline phrase, e.g. "1 week"`)
	searchCmd.Flags().StringVar(&searchSize, "size", "", "requested size")
	searchCmd.Flags().StringVar(&searchStyle, "style", "", "style keyword")
	searchCmd.Flags().StringVar(&searchTarget, "target", "", "target audience keyword")
	searchCmd.Flags().StringVar(&searchColor, "color", "", "requested color")
	searchCmd.Flags().BoolVar(&searchTrace, "trace", false, "include the per-stage diagnostic trace")
	_ = searchCmd.MarkFlagRequired("item")
	rootCmd.AddCommand(searchCmd)
}
