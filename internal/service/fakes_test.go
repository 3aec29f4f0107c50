package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

// fakeStore is an in-memory ContractStore with the same compare-and-swap
// semantics as the Postgres repository.
type fakeStore struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*model.Contract
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{contracts: make(map[uuid.UUID]*model.Contract)}
}

func (s *fakeStore) put(contract *model.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *contract
	s.contracts[contract.ID] = &copied
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	contract, ok := s.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *contract
	return &copied, nil
}

func (s *fakeStore) ListForIdentity(_ context.Context, identityID uuid.UUID) ([]model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var result []model.Contract
	for _, contract := range s.contracts {
		if contract.RequesterID == identityID || contract.ProviderID == identityID {
			result = append(result, *contract)
		}
	}
	return result, nil
}

func (s *fakeStore) ListIdentities(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	seen := make(map[uuid.UUID]struct{})
	var identities []uuid.UUID
	for _, contract := range s.contracts {
		for _, id := range []uuid.UUID{contract.RequesterID, contract.ProviderID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				identities = append(identities, id)
			}
		}
	}
	return identities, nil
}

func (s *fakeStore) Create(_ context.Context, contract *model.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	copied := *contract
	s.contracts[contract.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.ContractStatus) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	contract, ok := s.contracts[id]
	if !ok || contract.Status != from {
		return nil, gorm.ErrRecordNotFound
	}
	contract.Status = to
	contract.UpdatedAt = time.Now().UTC()
	copied := *contract
	return &copied, nil
}

func (s *fakeStore) UpdateSchedule(_ context.Context, id uuid.UUID, scheduledStart time.Time) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	contract, ok := s.contracts[id]
	if !ok || contract.Status != model.ContractStatusPending {
		return nil, gorm.ErrRecordNotFound
	}
	contract.ScheduledStart = scheduledStart
	contract.UpdatedAt = time.Now().UTC()
	copied := *contract
	return &copied, nil
}

func (s *fakeStore) ConsumeCodeAndTransition(_ context.Context, id uuid.UUID, phase model.VerificationPhase, code string, from, to model.ContractStatus) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	contract, ok := s.contracts[id]
	if !ok || contract.Status != from {
		return nil, gorm.ErrRecordNotFound
	}
	switch phase {
	case model.PhaseStart:
		if contract.StartCodeUsed || contract.StartCode != code {
			return nil, gorm.ErrRecordNotFound
		}
		contract.StartCodeUsed = true
	case model.PhaseEnd:
		if contract.EndCodeUsed || contract.EndCode != code {
			return nil, gorm.ErrRecordNotFound
		}
		contract.EndCodeUsed = true
	}
	contract.Status = to
	contract.UpdatedAt = time.Now().UTC()
	copied := *contract
	return &copied, nil
}

// fakeCodes hands out a deterministic sequence.
type fakeCodes struct {
	mu   sync.Mutex
	next int
}

func (g *fakeCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("CODE%02d", g.next), nil
}

// fakeState is an in-memory NotificationStateStore.
type fakeState struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]map[uuid.UUID]model.ContractStatus
	failWith error
}

func newFakeState() *fakeState {
	return &fakeState{statuses: make(map[uuid.UUID]map[uuid.UUID]model.ContractStatus)}
}

func (s *fakeState) ListStatuses(_ context.Context, identityID uuid.UUID) (map[uuid.UUID]model.ContractStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	result := make(map[uuid.UUID]model.ContractStatus, len(s.statuses[identityID]))
	for id, status := range s.statuses[identityID] {
		result[id] = status
	}
	return result, nil
}

func (s *fakeState) SetStatus(_ context.Context, identityID, contractID uuid.UUID, status model.ContractStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if s.statuses[identityID] == nil {
		s.statuses[identityID] = make(map[uuid.UUID]model.ContractStatus)
	}
	s.statuses[identityID][contractID] = status
	return nil
}

type notifiedEvent struct {
	identityID uuid.UUID
	title      string
	body       string
}

// fakeNotifier records events and can be told to fail delivery.
type fakeNotifier struct {
	mu       sync.Mutex
	events   []notifiedEvent
	failWith error
}

func (n *fakeNotifier) Notify(_ context.Context, identityID uuid.UUID, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.events = append(n.events, notifiedEvent{identityID: identityID, title: title, body: body})
	return nil
}

func (n *fakeNotifier) recorded() []notifiedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifiedEvent(nil), n.events...)
}
