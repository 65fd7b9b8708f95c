package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stylecart/shop-cli/internal/enrich"
	"github.com/stylecart/shop-cli/internal/rank"
	"github.com/stylecart/shop-cli/internal/retailer"
	"github.com/stylecart/shop-cli/internal/search"
	anthropicpkg "github.com/stylecart/shop-cli/pkg/anthropic"
	"github.com/stylecart/shop-cli/pkg/serper"
	"github.com/stylecart/shop-cli/pkg/tavily"
)

// appEnv holds the initialized adapters, controller, and ranker shared by
// the search/rank/serve commands.
type appEnv struct {
	Controller *search.Controller
	Ranker     *rank.Ranker
}

// initApp wires clients and the waterfall controller from configuration.
// Missing API keys disable the corresponding adapter rather than failing.
func initApp() (*appEnv, error) {
	retailers := retailer.Default()
	if cfg.Retailers.AllowlistPath != "" {
		rs, err := retailer.Load(cfg.Retailers.AllowlistPath)
		if err != nil {
			return nil, eris.Wrap(err, "load retailer allowlist")
		}
		retailers = rs
	}

	var shopping serper.Client
	if cfg.Serper.Key != "" {
		shopping = serper.NewClient(cfg.Serper.Key, serper.WithBaseURLs(cfg.Serper.BaseURLs...))
	} else {
		zap.L().Warn("serper key unset, search returns empty results")
	}

	var alternate tavily.Client
	if cfg.Tavily.Key != "" {
		alternate = tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	}

	engine := enrich.NewEngine(shopping, alternate, enrich.WithWorkers(cfg.Enrich.Workers))
	links := enrich.NewLinkChecker(enrich.WithCheckWorkers(cfg.Enrich.LinkCheckWorkers))

	searchCfg := search.Config{
		TargetPerItem:      cfg.Search.TargetPerItem,
		ShoppingNum:        cfg.Search.ShoppingNum,
		ExpandedNum:        cfg.Search.ExpandedNum,
		AlternateNum:       cfg.Search.AlternateNum,
		OrganicNum:         cfg.Search.OrganicNum,
		MaxConcurrentItems: cfg.Search.MaxConcurrentItems,
	}
	controller := search.NewController(shopping, alternate, retailers, engine, links, searchCfg)

	var explainer rank.Explainer
	if cfg.Anthropic.Key != "" {
		explainer = rank.NewAnthropicExplainer(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	}

	return &appEnv{
		Controller: controller,
		Ranker:     rank.NewRanker(explainer),
	}, nil
}
