package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Memory.MinQuality <= 0 || c.Memory.MinQuality >= 1 {
		return fmt.Errorf("memory.min_quality must be in (0, 1) (got %v)", c.Memory.MinQuality)
	}
	if c.Memory.MaxResults <= 0 {
		return fmt.Errorf("memory.max_results must be > 0 (got %d)", c.Memory.MaxResults)
	}
	if c.Propagation.MaxRetries == 0 {
		return fmt.Errorf("propagation.max_retries must be > 0")
	}
	if c.Propagation.RetryBackoff <= 0 {
		return fmt.Errorf("propagation.retry_backoff must be > 0 (got %v)", c.Propagation.RetryBackoff)
	}
	return nil
}
