package conversation

import (
	"context"
	"strings"
	"time"

	"npc-chatlab/backend/pkg/logger"
)

// RecompactThreshold is how many old messages must accrue beyond the
// last compaction before the summary is rewritten again. It amortizes
// summarization cost once the window is full.
const RecompactThreshold = 5

// FallbackSummary replaces the running summary when the summarization
// capability fails, so the turn can proceed with degraded context.
const FallbackSummary = "There is earlier conversation that could not be summarized."

// previousSummaryPrefix marks the synthetic turn that feeds the prior
// summary back into re-summarization.
const previousSummaryPrefix = "[previous summary]: "

// SummaryState is the explicit compaction state of a session. A zero
// value means no summary exists yet.
type SummaryState struct {
	// Summary is the running digest of everything older than the
	// recent window at the time of the last compaction.
	Summary string
	// CompactedOld is how many old messages Summary reflects.
	CompactedOld int
}

// Empty reports whether no compaction has happened yet.
func (s SummaryState) Empty() bool {
	return s.Summary == ""
}

// Compactor maintains a session's running summary.
type Compactor struct {
	summarizer Summarizer
	timeout    time.Duration
	rec        Recorder
	log        *logger.Logger
}

// NewCompactor builds a compactor around the given summarization
// capability. timeout bounds each summarization call.
func NewCompactor(summarizer Summarizer, timeout time.Duration, rec Recorder, log *logger.Logger) *Compactor {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Compactor{summarizer: summarizer, timeout: timeout, rec: rec, log: log}
}

// MaybeCompact decides whether the old batch warrants (re)writing the
// summary and returns the resulting state. changed reports whether the
// state differs from the input and must be persisted. The whole old
// batch is re-fed on every re-compaction together with the previous
// summary; only the firing condition looks at the delta since the last
// compaction.
func (c *Compactor) MaybeCompact(ctx context.Context, state SummaryState, old []Turn) (updated SummaryState, changed bool) {
	if len(old) == 0 {
		return state, false
	}

	switch {
	case state.Empty():
		// First compaction: history just outgrew the window.
		out := c.summarize(ctx, old)
		c.log.Info("created initial summary",
			"old_messages", len(old),
			"degraded", out.Degraded,
		)
		return SummaryState{Summary: out.Text, CompactedOld: len(old)}, true

	case len(old)-state.CompactedOld >= RecompactThreshold:
		// Enough new old messages accrued: re-compress the previous
		// summary together with the full current old batch.
		batch := make([]Turn, 0, len(old)+1)
		batch = append(batch, Turn{Role: RoleNPC, Content: previousSummaryPrefix + state.Summary})
		batch = append(batch, old...)

		out := c.summarize(ctx, batch)
		c.log.Info("updated summary",
			"old_messages", len(old),
			"previously_compacted", state.CompactedOld,
			"degraded", out.Degraded,
		)
		return SummaryState{Summary: out.Text, CompactedOld: len(old)}, true

	default:
		return state, false
	}
}

// summarize runs the capability under the configured deadline. Failure
// or an empty result degrades to the static fallback instead of
// propagating an error.
func (c *Compactor) summarize(ctx context.Context, turns []Turn) Outcome {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.summarizer.Summarize(cctx, turns)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			c.log.LogError(err, "summarization failed, using fallback")
		} else {
			c.log.Warn("summarization returned empty result, using fallback")
		}
		c.rec.ObserveCompaction(true)
		return Outcome{Text: FallbackSummary, Degraded: true, Cause: err}
	}

	c.rec.ObserveCompaction(false)
	return Outcome{Text: text}
}
