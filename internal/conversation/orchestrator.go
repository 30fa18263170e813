package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"npc-chatlab/backend/pkg/logger"
)

// FallbackReply is persisted as the npc message when generation fails,
// so the log never holds a user message without a counterpart.
const FallbackReply = "Error: Unable to generate response"

// Profile carries the per-turn read-only inputs resolved by the caller:
// the session's compaction state plus the character and prompt texts in
// effect at generation time.
type Profile struct {
	SessionID string
	Persona   string
	System    string
	Style     StyleGuide
	State     SummaryState
}

// TurnResult is the outcome of a single-model turn.
type TurnResult struct {
	User Message `json:"user"`
	NPC  Message `json:"npc"`
}

// CompareResult is the outcome of a compare-mode turn. Replies holds
// one persisted npc message per requested model, error placeholders
// included.
type CompareResult struct {
	User    Message            `json:"user"`
	Replies map[string]Message `json:"replies"`
}

// Orchestrator drives one conversation turn: window the history,
// maybe compact it, persist the user message, call the model(s),
// score and persist the replies.
type Orchestrator struct {
	store      Store
	generator  Generator
	compactor  *Compactor
	genTimeout time.Duration
	rec        Recorder
	log        *logger.Logger
}

// NewOrchestrator wires the collaborators. genTimeout bounds each
// generation call.
func NewOrchestrator(store Store, generator Generator, compactor *Compactor, genTimeout time.Duration, rec Recorder, log *logger.Logger) *Orchestrator {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Orchestrator{
		store:      store,
		generator:  generator,
		compactor:  compactor,
		genTimeout: genTimeout,
		rec:        rec,
		log:        log,
	}
}

// GenerateReply runs one single-model turn.
func (o *Orchestrator) GenerateReply(ctx context.Context, p Profile, userText, model string) (*TurnResult, error) {
	recent, state, err := o.prepare(ctx, p)
	if err != nil {
		return nil, err
	}

	userMsg, err := o.store.AppendMessage(ctx, p.SessionID, RoleUser, userText, Meta{At: time.Now().UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	system := systemContext(p.Persona, p.System, state.Summary)
	out := o.generate(ctx, model, GenerationInput{System: system, History: recent, UserText: userText})

	metrics := Evaluate(out.Text, p.Style)
	npcMsg, err := o.store.AppendMessage(ctx, p.SessionID, RoleNPC, out.Text, Meta{
		At:      time.Now().UnixMilli(),
		Model:   model,
		Metrics: &metrics,
		Error:   out.Degraded,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting npc message: %w", err)
	}

	return &TurnResult{User: userMsg, NPC: npcMsg}, nil
}

// GenerateCompareReplies runs one turn against several models. The
// history windowing and compaction happen once; each model's generation
// is independent, and one model failing does not disturb the others.
func (o *Orchestrator) GenerateCompareReplies(ctx context.Context, p Profile, userText string, models []string) (*CompareResult, error) {
	recent, state, err := o.prepare(ctx, p)
	if err != nil {
		return nil, err
	}

	userMsg, err := o.store.AppendMessage(ctx, p.SessionID, RoleUser, userText, Meta{
		At:      time.Now().UnixMilli(),
		Compare: true,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	system := systemContext(p.Persona, p.System, state.Summary)
	in := GenerationInput{System: system, History: recent, UserText: userText}

	outcomes := make([]Outcome, len(models))
	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()
			outcomes[i] = o.generate(ctx, model, in)
		}(i, model)
	}
	wg.Wait()

	replies := make(map[string]Message, len(models))
	for i, model := range models {
		metrics := Evaluate(outcomes[i].Text, p.Style)
		npcMsg, err := o.store.AppendMessage(ctx, p.SessionID, RoleNPC, outcomes[i].Text, Meta{
			At:      time.Now().UnixMilli(),
			Model:   model,
			Metrics: &metrics,
			Error:   outcomes[i].Degraded,
		})
		if err != nil {
			return nil, fmt.Errorf("persisting reply for model %s: %w", model, err)
		}
		replies[model] = npcMsg
	}

	return &CompareResult{User: userMsg, Replies: replies}, nil
}

// prepare loads the history written before this turn, windows it, and
// runs compaction, persisting an updated summary when one is produced.
// The returned history is the recent window only.
func (o *Orchestrator) prepare(ctx context.Context, p Profile) ([]Turn, SummaryState, error) {
	history, err := o.store.History(ctx, p.SessionID)
	if err != nil {
		return nil, SummaryState{}, fmt.Errorf("loading history: %w", err)
	}

	recent, old := SelectWindow(history)

	state, changed := o.compactor.MaybeCompact(ctx, p.State, old)
	if changed {
		if err := o.store.UpdateSummary(ctx, p.SessionID, state.Summary, state.CompactedOld); err != nil {
			return nil, SummaryState{}, fmt.Errorf("persisting summary: %w", err)
		}
	}

	return recent, state, nil
}

// generate runs one bounded generation call. Failure, timeout, or an
// empty result all degrade to the fallback reply.
func (o *Orchestrator) generate(ctx context.Context, model string, in GenerationInput) Outcome {
	cctx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()

	start := time.Now()
	text, err := o.generator.Generate(cctx, model, in)
	latency := time.Since(start)

	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			o.log.LogError(err, "generation failed",
				"model", model,
				"latency_ms", latency.Milliseconds(),
			)
		} else {
			o.log.Warn("generation returned empty reply", "model", model)
		}
		o.rec.ObserveTurn(model, true, latency)
		return Outcome{Text: FallbackReply, Degraded: true, Cause: err}
	}

	o.log.Debug("generation succeeded",
		"model", model,
		"latency_ms", latency.Milliseconds(),
		"reply_chars", len(text),
	)
	o.rec.ObserveTurn(model, false, latency)
	return Outcome{Text: text}
}

// systemContext composes persona and prompt system text, appending the
// running summary as a delimited block when one exists.
func systemContext(persona, system, summary string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n")
	b.WriteString(system)
	if summary != "" {
		b.WriteString("\n\n[previous summary]\n")
		b.WriteString(summary)
	}
	return b.String()
}
