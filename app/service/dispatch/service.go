package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"soapbatch/app/client/sheets"
	"soapbatch/app/service/batch"
	"soapbatch/app/service/interpreter"
	"soapbatch/app/service/state"

	"github.com/samber/do"
)

const (
	replyNoBatchNumber = "Please tell me the batch number first."
	replyNoBatch       = "No batch in progress."
	replyNoWeights     = "No weights recorded."
	replySaveFailed    = "Sorry, I couldn't save the batch. Please try again."
)

// Sink receives exactly one record per completed batch.
type Sink interface {
	AppendRecord(ctx context.Context, rec batch.Record) error
}

type Service struct {
	store *state.Store
	sink  Sink
}

func New(di *do.Injector) (*Service, error) {
	return newService(
		do.MustInvoke[*state.Store](di),
		do.MustInvoke[*sheets.Client](di),
	), nil
}

func newService(store *state.Store, sink Sink) *Service {
	return &Service{
		store: store,
		sink:  sink,
	}
}

// Apply runs the interpreted actions against the conversation's
// batch state, in order, and returns the replies to send in the same
// order. An empty action sequence yields the interpreter's own
// fallback reply.
func (s *Service) Apply(ctx context.Context, chatID int64, result interpreter.Result) []string {
	if len(result.Actions) == 0 {
		return []string{result.Fallback}
	}

	replies := make([]string, 0, len(result.Actions))

	for _, action := range result.Actions {
		switch action.Intent {
		case interpreter.IntentStartBatch:
			// Starting over an open batch silently discards it.
			s.store.Set(chatID, state.Batch{Number: action.BatchNumber})
			replies = append(replies, action.Reply)

		case interpreter.IntentAddWeight:
			current := s.store.Get(chatID)
			if !current.Open() {
				replies = append(replies, replyNoBatchNumber)
				continue
			}

			current.Weights = append(current.Weights, action.Weight)
			s.store.Set(chatID, current)
			replies = append(replies, action.Reply)

		case interpreter.IntentEndBatch:
			replies = append(replies, s.endBatch(ctx, chatID))

		default:
			replies = append(replies, action.Reply)
		}
	}

	return replies
}

// endBatch finalizes the conversation's batch: summary stats, one
// sink write, then removal from the store. The batch stays open on
// any failure so nothing recorded is lost.
func (s *Service) endBatch(ctx context.Context, chatID int64) string {
	current := s.store.Get(chatID)
	if !current.Open() {
		return replyNoBatch
	}

	if len(current.Weights) == 0 {
		return replyNoWeights
	}

	rec, err := batch.Summarize(current.Number, current.Weights)
	if err != nil {
		slog.Error("Failed to summarize batch",
			"batch", current.Number,
			"error", err)

		return fmt.Sprintf("Can't save batch %s, the batch number looks invalid.", current.Number)
	}

	if err = s.sink.AppendRecord(ctx, rec); err != nil {
		slog.Error("Failed to append batch record",
			"batch", current.Number,
			"error", err)

		return replySaveFailed
	}

	s.store.Remove(chatID)

	slog.Info("Batch saved",
		"batch", rec.Number,
		"count", rec.Count,
		"telegram", true)

	return fmt.Sprintf("✅ Batch saved: %s\n%d soaps — Avg: %sg | Min: %sg | Max: %sg",
		rec.Number,
		rec.Count,
		formatStat(rec.Average),
		formatStat(rec.Min),
		formatStat(rec.Max),
	)
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
