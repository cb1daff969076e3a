package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Probe performs one reachability attempt. A nil error means the endpoint
// could be reached. Failures are signals, not errors to report.
type Probe interface {
	Probe(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

// HTTPProbe sends a HEAD request to URL. Any response, whatever its status,
// counts as reachable: only failing to complete the exchange means offline.
type HTTPProbe struct {
	URL    string
	Client *http.Client
}

// NewHTTPProbe returns a probe for url. A zero timeout leaves the
// transport's own defaults in charge.
func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	return &HTTPProbe{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProbe) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
