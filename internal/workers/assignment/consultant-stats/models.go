// internal/workers/assignment/consultant-stats/models.go
package consultantstats

import (
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workers/events"
)

type Input struct {
	ConsultantID string `json:"consultantId"`
	// SkipCache forces a fresh read from the ledger.
	SkipCache bool `json:"skipCache,omitempty"`
}

type Output struct {
	Stats  models.ConsultantStats `json:"consultantStats"`
	Cached bool                   `json:"statsCached"`
}

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["consultantId"],
	"properties": {
		"consultantId": {"type": "string", "minLength": 1},
		"skipCache":    {"type": "boolean"}
	}
}`)
