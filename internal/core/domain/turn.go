package domain

import "time"

// RefusalMessage is returned for questions outside the tax domain.
const RefusalMessage = "I can only help with questions about taxation and tax law. " +
	"Please ask a tax-related question."

// NoInformationMessage is returned when retrieval finds nothing to answer from.
const NoInformationMessage = "No relevant information found in the documents."

// TurnState is a step in the question-answer state machine.
type TurnState string

// Turn states. Returned and Rejected are the successful terminal states.
const (
	TurnReceived    TurnState = "received"
	TurnRouted      TurnState = "routed"
	TurnRejected    TurnState = "rejected"
	TurnRetrieved   TurnState = "retrieved"
	TurnSynthesized TurnState = "synthesized"
	TurnReturned    TurnState = "returned"
	TurnFailed      TurnState = "failed"
)

// IsTerminal reports whether no further stage runs after this state.
func (s TurnState) IsTerminal() bool {
	return s == TurnReturned || s == TurnRejected || s == TurnFailed
}

// RouteDecision is the Router's classification of a query.
type RouteDecision struct {
	// InDomain is true when the question is tax-related.
	InDomain bool

	// Parsed is false when the model output did not match the expected
	// format and the original query was used instead.
	Parsed bool

	// Rewritten is the retrieval-optimised query. It equals the original
	// query when Parsed is false.
	Rewritten string

	// Reason is the model's explanation for an out-of-domain decision.
	Reason string

	// Raw is the unparsed model output.
	Raw string
}

// Passage is one retrieved excerpt.
type Passage struct {
	Key        string
	Source     string
	ChunkIndex int
	Text       string
	Score      float64
}

// RetrievalResult is the ordered top-K passages for one query.
type RetrievalResult struct {
	// Query is the text that was embedded.
	Query string

	// Passages are ordered by descending score.
	Passages []Passage

	// Found is false when the store was empty or unreachable.
	Found bool
}

// Turn carries the accumulating state of one question through
// Router, Researcher and Advisor.
type Turn struct {
	ID             string
	Query          string
	RewrittenQuery string
	Route          RouteDecision
	Retrieval      *RetrievalResult
	Answer         string
	State          TurnState

	// Err is set when State is TurnFailed.
	Err error

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewTurn starts a turn for the given query.
func NewTurn(id, query string) *Turn {
	return &Turn{
		ID:        id,
		Query:     query,
		State:     TurnReceived,
		StartedAt: time.Now(),
	}
}

// Reject ends the turn at the router with the fixed refusal.
func (t *Turn) Reject(reason string) {
	t.Route.InDomain = false
	t.Route.Reason = reason
	t.Answer = RefusalMessage
	t.State = TurnRejected
	t.FinishedAt = time.Now()
}

// Fail ends the turn with a turn-level error.
func (t *Turn) Fail(err error) {
	t.Err = err
	t.Answer = UserMessage(err)
	t.State = TurnFailed
	t.FinishedAt = time.Now()
}

// Complete ends the turn with an answer.
func (t *Turn) Complete(answer string) {
	t.Answer = answer
	t.State = TurnReturned
	t.FinishedAt = time.Now()
}

// Duration returns how long the turn took. Zero while running.
func (t *Turn) Duration() time.Duration {
	if t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}
