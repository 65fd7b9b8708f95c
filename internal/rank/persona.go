package rank

import (
	"context"

	"github.com/stylecart/shop-cli/internal/model"
)

// PersonaProvider supplies the user's style/color persona from an
// external memory collaborator. An empty persona is a valid response.
type PersonaProvider interface {
	Persona(ctx context.Context) (model.Persona, error)
}

// StaticPersona is a PersonaProvider backed by a fixed persona, used when
// the memory collaborator is unavailable or the persona was derived from
// the request itself.
type StaticPersona model.Persona

// Persona implements PersonaProvider.
func (s StaticPersona) Persona(context.Context) (model.Persona, error) {
	return model.Persona(s), nil
}

// ResolvePersona fetches the persona, degrading to an empty persona when
// the provider is nil or failing. Missing personas must not break style
// scoring.
func ResolvePersona(ctx context.Context, provider PersonaProvider) model.Persona {
	if provider == nil {
		return model.Persona{}
	}
	p, err := provider.Persona(ctx)
	if err != nil {
		return model.Persona{}
	}
	return p
}
