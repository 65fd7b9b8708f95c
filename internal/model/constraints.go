package model

// ItemSpec names one requested item, optionally pinning a color or size
// that overrides the request-wide values.
type ItemSpec struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// SearchConstraints captures one shopping request. It is immutable for the
// duration of a search call.
type SearchConstraints struct {
	MaxPrice        *float64   `json:"max_price,omitempty"`
	MaxDeliveryDays *int       `json:"max_delivery_days,omitempty"`
	Size            string     `json:"size,omitempty"`
	Style           string     `json:"style,omitempty"`
	Target          string     `json:"target,omitempty"`
	Color           string     `json:"color,omitempty"`
	Items           []ItemSpec `json:"items"`
}

// Persona holds the user's inferred style and color preferences, sourced
// from an external memory collaborator. An empty persona is valid.
type Persona struct {
	PreferredStyles []string `json:"preferred_styles"`
	PreferredColors []string `json:"preferred_colors"`
}
