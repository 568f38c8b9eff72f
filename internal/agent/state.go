// In file: internal/agent/state.go
package agent

import (
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/usage"
)

// ConversationState is the caller-owned record of a conversation: the
// displayed transcript and its usage stats. The Agent never reads it; each
// turn is answered from the query alone.
type ConversationState struct {
	ID        string        `json:"id"`
	Location  api.Location  `json:"location"`
	Messages  []api.Message `json:"messages"`
	Stats     usage.Stats   `json:"stats"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewConversationState starts an empty conversation at loc.
func NewConversationState(id string, loc api.Location) ConversationState {
	now := time.Now().UTC()
	return ConversationState{ID: id, Location: loc, CreatedAt: now, UpdatedAt: now}
}

// FriendlyError is the transcript text shown when a turn fails.
func FriendlyError(err error) string {
	return "Sorry, I encountered an error: " + err.Error()
}

// Record returns a copy of s with the turn appended. On failure the
// assistant entry is FriendlyError(err) and the stats are unchanged.
func (s ConversationState) Record(question string, res *Result, err error, pricing usage.Pricing) ConversationState {
	next := s
	next.Messages = make([]api.Message, len(s.Messages), len(s.Messages)+2)
	copy(next.Messages, s.Messages)
	next.Messages = append(next.Messages, api.Message{Role: "user", Content: question})

	switch {
	case err != nil:
		next.Messages = append(next.Messages, api.Message{Role: "assistant", Content: FriendlyError(err)})
	case res != nil:
		next.Messages = append(next.Messages, api.Message{Role: "assistant", Content: res.Answer})
		in, out := usage.Turn(res.Usage, question, res.Answer)
		next.Stats = s.Stats.Add(in, out, pricing)
	}
	next.UpdatedAt = time.Now().UTC()
	return next
}
