// Package events carries orchestrator progress to the transport layer.
// Events are append-only and one-way: later events may supersede earlier
// ones semantically (model_error after model_started) but nothing is ever
// retracted.
package events

import (
	"log"
	"sync"
	"time"

	"github.com/quorumtrade/quorum/internal/models"
)

// Event types on the wire.
const (
	TypeConnected          = "connected"
	TypeRoundStarted       = "round_started"
	TypeModelStarted       = "model_started"
	TypeModelThinking      = "model_thinking"
	TypeWebSearchStarted   = "web_search_started"
	TypeWebSearchCompleted = "web_search_completed"
	TypeWebSearchFailed    = "web_search_failed"
	TypeFallbackUsed       = "fallback_used"
	TypeModelCompleted     = "model_completed"
	TypeModelError         = "model_error"
	TypeRoundCompleted     = "round_completed"
	TypeSynthesisStarted   = "synthesis_started"
	TypeSynthesisCompleted = "synthesis_completed"
	TypeComparisonStarted  = "comparison_started"
	TypeComparisonComplete = "comparison_completed"
	TypePhaseStart         = "phase_start"
	TypeAgentComplete      = "agent_complete"
	TypeDecisionStart      = "decision_start"
	TypeDecisionComplete   = "decision_complete"
	TypeWarning            = "warning"
	TypeFallback           = "fallback"
	TypeError              = "error"
	TypeJudgeStart         = "judge_start"
	TypeJudgeComplete      = "judge_complete"
	TypeFinalResult        = "final_result"
	TypeDebateCompleted    = "debate_completed"
)

// Event is the tagged union written to the progress stream. Only the
// fields relevant to its Type are populated.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Round       int             `json:"round,omitempty"`
	AgentID     string          `json:"agent_id,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	Model       *models.ModelID `json:"model,omitempty"`
	Fallback    *models.ModelID `json:"fallback_model,omitempty"`

	Message  string `json:"message,omitempty"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`

	TokensUsed int      `json:"tokens_used,omitempty"`
	Queries    []string `json:"queries,omitempty"`
	Results    int      `json:"results,omitempty"`

	Decision  *models.Decision        `json:"decision,omitempty"`
	Tally     *models.VoteTally       `json:"tally,omitempty"`
	Verdict   *models.JudgeVerdict    `json:"verdict,omitempty"`
	Synthesis *models.SynthesisReport `json:"synthesis,omitempty"`
	Debate    *models.DebateResult    `json:"debate,omitempty"`
	Consensus *models.ConsensusResult `json:"consensus,omitempty"`

	// Terminal marks the last event of a stream. The transport closes
	// the connection after writing it.
	Terminal bool `json:"terminal,omitempty"`
}

// IsTerminal reports whether the stream ends after this event.
func (e Event) IsTerminal() bool {
	if e.Terminal {
		return true
	}
	return e.Type == TypeDebateCompleted || e.Type == TypeFinalResult
}

// Stream is the sink both orchestrators write to. Emit never blocks the
// orchestrator: when the buffer is full (client stopped reading) events
// are dropped with a log line rather than stalling model calls.
type Stream struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

const defaultBuffer = 256

func NewStream() *Stream {
	return &Stream{ch: make(chan Event, defaultBuffer)}
}

// Emit stamps and queues one event. Safe to call after Close; writes to a
// closed stream are discarded, never a panic. An aborted client must not
// crash an orchestrator mid-round.
func (s *Stream) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		log.Printf("events: buffer full, dropping %s", e.Type)
	}
}

// Events is the transport's read side. The channel closes after Close.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Close ends the stream. Idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
