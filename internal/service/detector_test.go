package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

func newDetector(store *fakeStore, state *fakeState, notifier *fakeNotifier) *DetectorService {
	return NewDetectorService(store, state, notifier, nil, zerolog.Nop())
}

func TestDetectorNewContractEvent(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	notifier := &fakeNotifier{}
	detector := newDetector(store, state, notifier)

	contract := seedContract(t, store, model.ContractStatusPending)

	err := detector.RunCycle(context.Background(), contract.ProviderID)
	require.NoError(t, err)

	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, contract.ProviderID, events[0].identityID)
	assert.Equal(t, "New contract", events[0].title)
	assert.Contains(t, events[0].body, "PENDING")
}

func TestDetectorIdempotentCycles(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	notifier := &fakeNotifier{}
	detector := newDetector(store, state, notifier)

	contract := seedContract(t, store, model.ContractStatusPending)

	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))
	require.Len(t, notifier.recorded(), 1)

	// Nothing changed: the second cycle is silent.
	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))
	assert.Len(t, notifier.recorded(), 1)
}

func TestDetectorStatusChangeEvent(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	notifier := &fakeNotifier{}
	detector := newDetector(store, state, notifier)

	contract := seedContract(t, store, model.ContractStatusPending)
	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))

	// Provider accepts between cycles.
	_, err := store.UpdateStatus(context.Background(), contract.ID, model.ContractStatusPending, model.ContractStatusAccepted)
	require.NoError(t, err)

	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))

	events := notifier.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, "Contract status changed", events[1].title)
	assert.Contains(t, events[1].body, "PENDING")
	assert.Contains(t, events[1].body, "ACCEPTED")

	// And exactly once: a third cycle stays quiet.
	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))
	assert.Len(t, notifier.recorded(), 2)
}

func TestDetectorNotifierFailureStillRecords(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	notifier := &fakeNotifier{failWith: errors.New("push gateway down")}
	detector := newDetector(store, state, notifier)

	contract := seedContract(t, store, model.ContractStatusPending)

	// Delivery fails, the cycle does not.
	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))
	assert.Empty(t, notifier.recorded())

	// Bookkeeping advanced anyway: once delivery recovers, the missed event
	// is not replayed.
	notifier.failWith = nil
	require.NoError(t, detector.RunCycle(context.Background(), contract.RequesterID))
	assert.Empty(t, notifier.recorded())
}

func TestDetectorStateStoreFailure(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	state.failWith = errors.New("disk full")
	detector := newDetector(store, state, &fakeNotifier{})

	contract := seedContract(t, store, model.ContractStatusPending)

	err := detector.RunCycle(context.Background(), contract.RequesterID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDetectorScopedToIdentity(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	notifier := &fakeNotifier{}
	detector := newDetector(store, state, notifier)

	mine := seedContract(t, store, model.ContractStatusPending)
	seedContract(t, store, model.ContractStatusPending) // belongs to others

	require.NoError(t, detector.RunCycle(context.Background(), mine.RequesterID))

	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, mine.RequesterID, events[0].identityID)
}

func TestDetectorRunAllCoversEveryParty(t *testing.T) {
	store := newFakeStore()
	state := newFakeState()
	notifier := &fakeNotifier{}
	detector := newDetector(store, state, notifier)

	contract := seedContract(t, store, model.ContractStatusPending)

	detector.RunAll(context.Background())

	// Both the requester and the provider learn about the new contract.
	identities := map[string]bool{}
	for _, event := range notifier.recorded() {
		identities[event.identityID.String()] = true
	}
	assert.True(t, identities[contract.RequesterID.String()])
	assert.True(t, identities[contract.ProviderID.String()])
}
