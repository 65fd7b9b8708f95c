package model

// ItemTrace records per-stage counts for one item's waterfall so the
// decision path can be reconstructed from the trace alone.
type ItemTrace struct {
	ShoppingRaw       int      `json:"shopping_raw"`
	ShoppingParsed    int      `json:"shopping_parsed"`
	PrimaryOnly       int      `json:"primary_only"`
	SelectedInitial   int      `json:"selected_initial"`
	ExpandedRaw       int      `json:"expanded_raw"`
	ExpandedParsed    int      `json:"expanded_parsed"`
	SelectedExpanded  int      `json:"selected_expanded"`
	AlternateRaw      int      `json:"alternate_raw"`
	AlternateParsed   int      `json:"alternate_parsed"`
	SelectedAlternate int      `json:"selected_alternate"`
	AfterEnrich       int      `json:"after_enrich"`
	NonSearchLinks    int      `json:"non_search_links"`
	OrganicRaw        int      `json:"organic_raw"`
	OrganicParsed     int      `json:"organic_parsed"`
	AfterLinkFilter   int      `json:"after_link_filter"`
	FallbackOrganic   bool     `json:"fallback_organic_used"`
	FallbackAlternate bool     `json:"fallback_alternate_used"`
	StageErrors       []string `json:"stage_errors,omitempty"`
}

// Trace is the diagnostic record returned alongside search results. It is
// observability output, never control flow.
type Trace struct {
	SessionID    string                `json:"session_id"`
	SerperKeySet bool                  `json:"serper_key_set"`
	TavilyKeySet bool                  `json:"tavily_key_set"`
	Items        map[string]*ItemTrace `json:"items"`
}
