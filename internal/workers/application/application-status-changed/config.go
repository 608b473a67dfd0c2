// internal/workers/application/application-status-changed/config.go
package applicationstatuschanged

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
