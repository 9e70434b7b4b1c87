package interpreter

type Intent string

const (
	IntentStartBatch Intent = "start_batch"
	IntentAddWeight  Intent = "add_weight"
	IntentEndBatch   Intent = "end_batch"
	IntentUnknown    Intent = "unknown"
)

// Action is one structured instruction extracted from a message.
type Action struct {
	Intent      Intent
	BatchNumber string
	Weight      float64
	Reply       string
}

// Result is an ordered sequence of actions plus the top-level reply
// to use when the sequence is empty.
type Result struct {
	Actions  []Action
	Fallback string
}
