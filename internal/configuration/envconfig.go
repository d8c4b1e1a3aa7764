package configuration

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvconfigProvider is an implementation wrapping the envconfig framework.
type EnvconfigProvider struct{}

// Process overrides the fields of spec from prefixed environment variables.
func (*EnvconfigProvider) Process(prefix string, spec any) error {
	if err := envconfig.Process(prefix, spec); err != nil {
		return fmt.Errorf("(config-envconfig) %w", err)
	}

	return nil
}
