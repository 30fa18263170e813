package conversation

import (
	"context"
	"time"
)

// Message roles as stored in the session log.
const (
	RoleUser = "user"
	RoleNPC  = "npc"
)

// Turn is one entry of the conversation log, in creation order.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StyleGuide is the slice of a character's style configuration the
// evaluator cares about.
type StyleGuide struct {
	Tone string `json:"tone,omitempty"`
}

// Metrics are the quality heuristics computed for an npc reply.
// ToneMatch is three-valued: nil means no tone was configured.
type Metrics struct {
	Length        int      `json:"length"`
	ForbiddenHits []string `json:"forbiddenHits"`
	ToneMatch     *bool    `json:"toneMatch"`
}

// Meta is the metadata attached to a persisted message.
type Meta struct {
	At      int64    `json:"at,omitempty"`
	Model   string   `json:"model,omitempty"`
	Metrics *Metrics `json:"metrics,omitempty"`
	Compare bool     `json:"compare,omitempty"`
	Error   bool     `json:"error,omitempty"`
}

// Message is a persisted log entry as returned by the Store.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Meta      Meta      `json:"meta"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the persistence collaborator the orchestrator operates over.
// Reads must be strongly consistent with writes made earlier in the
// same turn.
type Store interface {
	History(ctx context.Context, sessionID string) ([]Turn, error)
	AppendMessage(ctx context.Context, sessionID, role, content string, meta Meta) (Message, error)
	UpdateSummary(ctx context.Context, sessionID, summary string, compactedOld int) error
}

// GenerationInput is everything a model needs for one reply. System
// already carries the previous-summary block when one exists.
type GenerationInput struct {
	System   string
	History  []Turn
	UserText string
}

// Generator produces a reply from a named model. Calls may fail or
// exceed their context deadline.
type Generator interface {
	Generate(ctx context.Context, model string, in GenerationInput) (string, error)
}

// Summarizer compresses a batch of turns into a short digest.
type Summarizer interface {
	Summarize(ctx context.Context, turns []Turn) (string, error)
}

// Recorder receives core observability events. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveTurn(model string, degraded bool, latency time.Duration)
	ObserveCompaction(degraded bool)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) ObserveTurn(string, bool, time.Duration) {}
func (NopRecorder) ObserveCompaction(bool)                  {}

// Outcome is the result of a capability call: either the model's text
// or a placeholder with the cause of degradation. Degraded outcomes are
// never fatal for the enclosing turn.
type Outcome struct {
	Text     string
	Degraded bool
	Cause    error
}
