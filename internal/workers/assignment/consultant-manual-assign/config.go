// internal/workers/assignment/consultant-manual-assign/config.go
package consultantmanualassign

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
