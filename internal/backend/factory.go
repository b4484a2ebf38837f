// ABOUTME: Provider-name to Backend constructor registry
// ABOUTME: Provider subpackages register themselves from init

package backend

import (
	"context"
	"fmt"
)

// Factory constructs a Backend for a given model id and API key.
type Factory func(apiKey, model string) Backend

var factories = map[string]Factory{}

// Register adds a provider factory under name. Each provider subpackage
// calls this from init, so a blank import of the subpackage is enough to
// make the provider available.
func Register(name string, f Factory) {
	factories[name] = f
}

// New constructs a Backend for the named provider, or nil if unregistered.
func New(providerName, apiKey, model string) Backend {
	f, ok := factories[providerName]
	if !ok {
		return nil
	}
	return f(apiKey, model)
}

// Registered reports whether a provider name has a registered factory.
func Registered(providerName string) bool {
	_, ok := factories[providerName]
	return ok
}

// NewUnavailable returns a Backend whose every call fails with a clear
// message, used in place of nil when a provider name has no factory.
func NewUnavailable(providerName string) Backend {
	return unavailableBackend{provider: providerName}
}

type unavailableBackend struct {
	provider string
}

func (b unavailableBackend) SendMessage(ctx context.Context, req Request) (LlmResponse, error) {
	return LlmResponse{}, fmt.Errorf("no backend registered for provider %q", b.provider)
}
