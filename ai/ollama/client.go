package ollama

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// newClient builds an Ollama API client for host.
// No overall timeout is set: generation streams are bounded by the request context.
func newClient(host string) (*api.Client, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return api.NewClient(base, &http.Client{}), nil
}
