// internal/workers/assignment/consultant-stats/config.go
package consultantstats

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: 2 * time.Minute,
	}
}
