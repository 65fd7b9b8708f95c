package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/rank"
	"github.com/stylecart/shop-cli/internal/search"
)

var (
	rankItems         []string
	rankBudget        string
	rankDeadline      string
	rankSize          string
	rankStyle         string
	rankTarget        string
	rankColor         string
	rankPreferences   []string
	rankPersonaStyles []string
	rankPersonaColors []string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Search for items and rank the results by weighted score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp()
		if err != nil {
			return err
		}

		cons := search.ConstraintsFromRequest(
			rankBudget, rankDeadline, rankSize, rankStyle, rankTarget, rankColor,
			rankItems,
		)

		products, trace, err := env.Controller.Search(ctx, cons)
		if err != nil {
			return eris.Wrap(err, "search")
		}
		zap.L().Info("search complete",
			zap.Int("products", len(products)),
			zap.String("session", trace.SessionID),
		)

		ex := rank.Extract{
			Budget:      rankBudget,
			Deadline:    rankDeadline,
			Constraints: rankPreferences,
		}
		if rankStyle != "" {
			ex.Styles = []string{rankStyle}
		}
		if rankColor != "" {
			ex.Colors = []string{rankColor}
		}

		persona := rank.ResolvePersona(ctx, rank.StaticPersona(model.Persona{
			PreferredStyles: rankPersonaStyles,
			PreferredColors: rankPersonaColors,
		}))

		out := env.Ranker.RankProducts(ctx, ex, products, persona)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rankCmd.Flags().StringArrayVar(&rankItems, "item", nil, "item to search for (repeatable, required)")
	rankCmd.Flags().StringVar(&rankBudget, "budget", "", `budget phrase, e.g. "under $100"`)
	rankCmd.Flags().StringVar(&rankDeadline, "deadline", "", `delivery deadline phrase, e.g. "1 week"`)
	rankCmd.Flags().StringVar(&rankSize, "size", "", "requested size")
	rankCmd.Flags().StringVar(&rankStyle, "style", "", "style keyword")
	rankCmd.Flags().StringVar(&rankTarget, "target", "", "target audience keyword")
	rankCmd.Flags().StringVar(&rankColor, "color", "", "requested color")
	rankCmd.Flags().StringArrayVar(&rankPreferences, "prefer", nil, `ranking preference, e.g. "budget" or "fast delivery" (repeatable)`)
	rankCmd.Flags().StringArrayVar(&rankPersonaStyles, "persona-style", nil, "persona preferred style (repeatable)")
	rankCmd.Flags().StringArrayVar(&rankPersonaColors, "persona-color", nil, "persona preferred color (repeatable)")
	_ = rankCmd.MarkFlagRequired("item")
	rootCmd.AddCommand(rankCmd)
}
