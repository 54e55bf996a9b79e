package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/notebookctl/internal/authclient"
)

// HealthProber is the part of the auth client a gateway check needs.
type HealthProber interface {
	Health(ctx context.Context) (*authclient.Response, error)
	BaseURL(ctx context.Context) (string, error)
}

// GatewayChecker calls the auth gateway health endpoint. Any non-2xx or
// transport failure is unhealthy: without the gateway nobody can log in.
type GatewayChecker struct {
	client HealthProber
}

// NewGatewayChecker checks the gateway behind client.
func NewGatewayChecker(client HealthProber) *GatewayChecker {
	return &GatewayChecker{client: client}
}

func (c *GatewayChecker) Name() string {
	return "auth-gateway"
}

func (c *GatewayChecker) Check(ctx context.Context) *Result {
	base, err := c.client.BaseURL(ctx)
	if err != nil {
		return Unhealthy("auth API URL not configured").WithDetail("error", err.Error())
	}
	resp, err := c.client.Health(ctx)
	if err != nil {
		return Unhealthy("auth gateway unreachable").
			WithDetail("url", base).
			WithDetail("error", err.Error())
	}
	if !resp.OK() {
		return Unhealthy(fmt.Sprintf("auth gateway returned %d", resp.StatusCode)).
			WithDetail("url", base).
			WithDetail("status", resp.StatusCode)
	}
	return Healthy("auth gateway reachable").WithDetail("url", base)
}

// HTTPChecker issues a GET to a URL resolved per check. Failures are
// reported as degraded: the dashboard still loads without that backend.
type HTTPChecker struct {
	name    string
	resolve func(ctx context.Context) (string, error)
	client  *http.Client
}

// NewHTTPChecker checks the URL returned by resolve.
func NewHTTPChecker(name string, resolve func(ctx context.Context) (string, error), client *http.Client) *HTTPChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPChecker{name: name, resolve: resolve, client: client}
}

func (c *HTTPChecker) Name() string {
	return c.name
}

func (c *HTTPChecker) Check(ctx context.Context) *Result {
	target, err := c.resolve(ctx)
	if err != nil {
		return Degraded("URL not configured").WithDetail("error", err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Degraded("invalid URL").WithDetail("url", target)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Degraded("unreachable").WithDetail("url", target).WithDetail("error", err.Error())
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return Degraded(fmt.Sprintf("returned %d", resp.StatusCode)).WithDetail("url", target)
	}
	return Healthy("reachable").WithDetail("url", target).WithDetail("status", resp.StatusCode)
}
