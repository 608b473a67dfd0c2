// internal/workers/application/application-submitted/config.go
package applicationsubmitted

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
