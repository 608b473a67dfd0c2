// internal/workers/room/room-priority-override/config.go
package roompriorityoverride

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
