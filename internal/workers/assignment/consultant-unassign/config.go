// internal/workers/assignment/consultant-unassign/config.go
package consultantunassign

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
