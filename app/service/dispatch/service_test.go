package dispatch

import (
	"context"
	"errors"
	"testing"

	"soapbatch/app/service/batch"
	"soapbatch/app/service/interpreter"
	"soapbatch/app/service/state"

	"github.com/stretchr/testify/require"
)

type mockSink struct {
	records []batch.Record
	err     error
}

func (m *mockSink) AppendRecord(_ context.Context, rec batch.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func newTestService(t *testing.T) (*Service, *state.Store, *mockSink) {
	t.Helper()

	store, err := state.New(nil)
	require.NoError(t, err)

	sink := &mockSink{}

	return newService(store, sink), store, sink
}

func actions(a ...interpreter.Action) interpreter.Result {
	return interpreter.Result{Actions: a, Fallback: interpreter.FallbackReply}
}

func TestApply_StartBatch(t *testing.T) {
	svc, store, _ := newTestService(t)

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentStartBatch, BatchNumber: "50630ANA", Reply: "Started!"},
	))

	require.Equal(t, []string{"Started!"}, replies)
	require.Equal(t, "50630ANA", store.Get(1).Number)
	require.Empty(t, store.Get(1).Weights)
}

func TestApply_StartBatchOverOpenBatchResets(t *testing.T) {
	svc, store, _ := newTestService(t)

	store.Set(1, state.Batch{Number: "50630ANA", Weights: []float64{201, 199}})

	svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentStartBatch, BatchNumber: "50701CHA", Reply: "OK"},
	))

	b := store.Get(1)
	require.Equal(t, "50701CHA", b.Number)
	require.Empty(t, b.Weights, "prior weights must be discarded")
}

func TestApply_AddWeightWhileIdle(t *testing.T) {
	svc, store, _ := newTestService(t)

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 201, Reply: "Noted 201g"},
	))

	require.Equal(t, []string{replyNoBatchNumber}, replies, "model reply must be replaced by the fixed prompt")
	require.False(t, store.Get(1).Open())
}

func TestApply_AddWeightAppends(t *testing.T) {
	svc, store, _ := newTestService(t)

	store.Set(1, state.Batch{Number: "50630ANA"})

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 201, Reply: "Got 201"},
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 199, Reply: "Got 199"},
	))

	require.Equal(t, []string{"Got 201", "Got 199"}, replies)
	require.Equal(t, []float64{201, 199}, store.Get(1).Weights)
}

func TestApply_EndBatchWhileIdle(t *testing.T) {
	svc, store, sink := newTestService(t)

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentEndBatch, Reply: "Done!"},
	))

	require.Equal(t, []string{replyNoBatch}, replies)
	require.Empty(t, sink.records)
	require.False(t, store.Get(1).Open())
}

func TestApply_EndBatchWithoutWeightsKeepsBatchOpen(t *testing.T) {
	svc, store, sink := newTestService(t)

	store.Set(1, state.Batch{Number: "50630ANA"})

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentEndBatch, Reply: "Done!"},
	))

	require.Equal(t, []string{replyNoWeights}, replies)
	require.Empty(t, sink.records)
	require.Equal(t, "50630ANA", store.Get(1).Number, "batch must stay open")
}

func TestApply_EndBatchSuccess(t *testing.T) {
	svc, store, sink := newTestService(t)

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentStartBatch, BatchNumber: "50630ANA", Reply: "Started"},
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 201, Reply: "OK"},
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 199, Reply: "OK"},
		interpreter.Action{Intent: interpreter.IntentEndBatch, Reply: "Done!"},
	))

	require.Len(t, replies, 4)
	require.Equal(t, "Started", replies[0])
	require.Contains(t, replies[3], "✅ Batch saved: 50630ANA")
	require.Contains(t, replies[3], "2 soaps")
	require.Contains(t, replies[3], "Avg: 200g")
	require.Contains(t, replies[3], "Min: 199g")
	require.Contains(t, replies[3], "Max: 201g")

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	require.Equal(t, "50630ANA", rec.Number)
	require.Equal(t, 2, rec.Count)
	require.Equal(t, []float64{201, 199}, rec.Weights)
	require.Equal(t, 200.0, rec.Average)
	require.Equal(t, 199.0, rec.Min)
	require.Equal(t, 201.0, rec.Max)

	require.False(t, store.Get(1).Open(), "conversation must be removed from the store")
}

func TestApply_EndBatchInvalidNumberKeepsBatch(t *testing.T) {
	svc, store, sink := newTestService(t)

	store.Set(1, state.Batch{Number: "xx", Weights: []float64{201}})

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentEndBatch, Reply: "Done!"},
	))

	require.Len(t, replies, 1)
	require.Contains(t, replies[0], "invalid")
	require.Empty(t, sink.records)
	require.Equal(t, "xx", store.Get(1).Number)
}

func TestApply_EndBatchSinkFailureKeepsBatch(t *testing.T) {
	svc, store, sink := newTestService(t)
	sink.err = errors.New("sheets unavailable")

	store.Set(1, state.Batch{Number: "50630ANA", Weights: []float64{201}})

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentEndBatch, Reply: "Done!"},
	))

	require.Equal(t, []string{replySaveFailed}, replies)
	require.Equal(t, "50630ANA", store.Get(1).Number, "batch must survive a failed write")
}

func TestApply_UnknownRepliesVerbatim(t *testing.T) {
	svc, store, _ := newTestService(t)

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentUnknown, Reply: "Sorry, I didn't understand that."},
	))

	require.Equal(t, []string{"Sorry, I didn't understand that."}, replies)
	require.False(t, store.Get(1).Open())
}

func TestApply_NoActionsUsesFallback(t *testing.T) {
	svc, _, _ := newTestService(t)

	replies := svc.Apply(context.Background(), 1, interpreter.Result{
		Fallback: "Try telling me a batch number.",
	})

	require.Equal(t, []string{"Try telling me a batch number."}, replies)
}

func TestApply_ContinuesAfterSequencingError(t *testing.T) {
	svc, store, _ := newTestService(t)

	replies := svc.Apply(context.Background(), 1, actions(
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 201, Reply: "OK"},
		interpreter.Action{Intent: interpreter.IntentStartBatch, BatchNumber: "50630ANA", Reply: "Started"},
		interpreter.Action{Intent: interpreter.IntentAddWeight, Weight: 199, Reply: "Got it"},
	))

	require.Equal(t, []string{replyNoBatchNumber, "Started", "Got it"}, replies)
	require.Equal(t, []float64{199}, store.Get(1).Weights)
}
