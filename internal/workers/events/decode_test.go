package events

import (
	"testing"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustSchema("message_posted", `{
	"type": "object",
	"required": ["roomId", "senderId"],
	"properties": {
		"roomId":   {"type": "string", "minLength": 1},
		"senderId": {"type": "string", "minLength": 1},
		"isStaff":  {"type": "boolean"}
	}
}`)

type testInput struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	IsStaff  bool   `json:"isStaff"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		want      testInput
		wantErr   bool
	}{
		{"valid", `{"roomId":"r1","senderId":"U","isStaff":true}`, testInput{"r1", "U", true}, false},
		{"extra process variables ignored", `{"roomId":"r1","senderId":"U","other":1}`, testInput{"r1", "U", false}, false},
		{"missing required", `{"roomId":"r1"}`, testInput{}, true},
		{"empty id", `{"roomId":"","senderId":"U"}`, testInput{}, true},
		{"wrong type", `{"roomId":"r1","senderId":"U","isStaff":"yes"}`, testInput{}, true},
		{"empty variables", ``, testInput{}, true},
		{"not json", `{roomId`, testInput{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got testInput
			err := Decode(tt.variables, testSchema, &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInvalidEventPayload)
				assert.False(t, apperrors.IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustSchemaPanicsOnMalformedSchema(t *testing.T) {
	assert.Panics(t, func() { MustSchema("broken", `{"type": 12`) })
}

func TestNewRoomOutcome(t *testing.T) {
	assert.Equal(t, &RoomOutcome{RoomFound: false}, NewRoomOutcome(nil))

	room := workflow.NewRoom("room-1", "app1", time.Now(), workflow.Policy{})
	room.Priority = models.PriorityUrgent
	out := NewRoomOutcome(&workflow.Result{Room: room, Change: workflow.Change{Ignored: true}})
	assert.True(t, out.RoomFound)
	assert.Equal(t, "room-1", out.RoomID)
	assert.Equal(t, "active", out.Status)
	assert.Equal(t, "urgent", out.Priority)
	assert.True(t, out.Ignored)
}
