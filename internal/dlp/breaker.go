package dlp

import (
	"context"
	"fmt"

	"aegis/pkg/circuitbreaker"
)

// CircuitBreakerClient guards a Deidentifier with a circuit breaker so a
// down de-identification service fails fast instead of tying up workers.
type CircuitBreakerClient struct {
	client Deidentifier
	cb     *circuitbreaker.Wrapper
	name   string
}

func NewCircuitBreakerClient(client Deidentifier, name string, cfg circuitbreaker.Config) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client: client,
		cb:     circuitbreaker.NewWrapper(cfg),
		name:   name,
	}
}

func (c *CircuitBreakerClient) Deidentify(ctx context.Context, text string) (string, error) {
	result, err := c.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return c.client.Deidentify(ctx, text)
	})

	c.cb.RecordRequest(err == nil)

	if err != nil {
		if c.cb.IsOpen() {
			return "", fmt.Errorf("circuit breaker is open for %s: %w", c.name, err)
		}
		return "", err
	}

	redacted, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("deidentifier returned invalid result type")
	}

	return redacted, nil
}

func (c *CircuitBreakerClient) State() string {
	return c.cb.State().String()
}

func (c *CircuitBreakerClient) IsOpen() bool {
	return c.cb.IsOpen()
}
