package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
	"github.com/Taskify-udl/taskify-contracts/pkg/metrics"
)

// ContractStore is the durable record of contracts. Implementations must make
// UpdateStatus, UpdateSchedule and ConsumeCodeAndTransition compare-and-swap:
// the update applies only if the contract is still in the expected state, and
// a lost race surfaces as gorm.ErrRecordNotFound so the caller can re-read
// and classify.
type ContractStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	ListForIdentity(ctx context.Context, identityID uuid.UUID) ([]model.Contract, error)
	ListIdentities(ctx context.Context) ([]uuid.UUID, error)
	Create(ctx context.Context, contract *model.Contract) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ContractStatus) (*model.Contract, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledStart time.Time) (*model.Contract, error)
	ConsumeCodeAndTransition(ctx context.Context, id uuid.UUID, phase model.VerificationPhase, code string, from, to model.ContractStatus) (*model.Contract, error)
}

type CodeGenerator interface {
	Generate() (string, error)
}

type ContractService struct {
	store   ContractStore
	codes   CodeGenerator
	metrics *metrics.Metrics
}

func NewContractService(store ContractStore, codes CodeGenerator, m *metrics.Metrics) *ContractService {
	return &ContractService{
		store:   store,
		codes:   codes,
		metrics: m,
	}
}

type lifecycleEdge struct {
	from, to model.ContractStatus
}

// transitionActors defines every actor-driven edge of the state machine. The
// ACCEPTED→ACTIVE and ACTIVE→FINISHED edges are absent on purpose: they are
// driven exclusively by code verification.
var transitionActors = map[lifecycleEdge]model.Role{
	{model.ContractStatusPending, model.ContractStatusAccepted}:   model.RoleProvider,
	{model.ContractStatusPending, model.ContractStatusRejected}:   model.RoleProvider,
	{model.ContractStatusPending, model.ContractStatusCancelled}:  model.RoleRequester,
	{model.ContractStatusAccepted, model.ContractStatusCancelled}: model.RoleRequester,
}

var verificationEdges = map[model.VerificationPhase]lifecycleEdge{
	model.PhaseStart: {model.ContractStatusAccepted, model.ContractStatusActive},
	model.PhaseEnd:   {model.ContractStatusActive, model.ContractStatusFinished},
}

type CreateContractInput struct {
	Principal      model.Principal
	ProviderID     uuid.UUID
	ServiceID      uuid.UUID
	Description    string
	ScheduledStart time.Time
	AgreedPrice    float64
}

type TransitionInput struct {
	ContractID uuid.UUID
	Principal  model.Principal
	Target     model.ContractStatus
}

func (s *ContractService) CreateContract(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	if !input.Principal.IsRequester() {
		return nil, fmt.Errorf("%w: only a requester may create a contract", ErrPermissionDenied)
	}
	if input.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider_id is required", ErrInvalidInput)
	}
	if input.ServiceID == uuid.Nil {
		return nil, fmt.Errorf("%w: service_id is required", ErrInvalidInput)
	}
	if input.ProviderID == input.Principal.UserID {
		return nil, fmt.Errorf("%w: requester and provider must differ", ErrInvalidInput)
	}
	if input.ScheduledStart.Before(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled_start must be in the future", ErrInvalidInput)
	}
	if input.AgreedPrice < 0 {
		return nil, fmt.Errorf("%w: agreed_price must not be negative", ErrInvalidInput)
	}

	startCode, err := s.codes.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate start code: %w", err)
	}
	endCode, err := s.codes.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate end code: %w", err)
	}

	now := time.Now().UTC()
	contract := &model.Contract{
		ID:             uuid.New(),
		RequesterID:    input.Principal.UserID,
		ProviderID:     input.ProviderID,
		ServiceID:      input.ServiceID,
		Description:    input.Description,
		ScheduledStart: input.ScheduledStart,
		AgreedPrice:    input.AgreedPrice,
		Status:         model.ContractStatusPending,
		StartCode:      startCode,
		EndCode:        endCode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Create(ctx, contract); err != nil {
		return nil, storeErr(err)
	}

	s.metrics.ContractCreated()
	return contract, nil
}

func (s *ContractService) Transition(ctx context.Context, input TransitionInput) (*model.Contract, error) {
	if model.ParseContractStatus(string(input.Target)) == model.ContractStatusUnknown {
		return nil, fmt.Errorf("%w: unknown target status %q", ErrInvalidInput, input.Target)
	}

	contract, err := visibleContract(ctx, s.store, input.ContractID, input.Principal)
	if err != nil {
		return nil, err
	}
	if contract.Status.IsTerminal() {
		return nil, ErrContractTerminal
	}

	edge := lifecycleEdge{from: contract.Status, to: input.Target}
	for _, ve := range verificationEdges {
		if edge == ve {
			return nil, fmt.Errorf("%w: %s is entered through code verification", ErrInvalidTransition, input.Target)
		}
	}
	role, ok := transitionActors[edge]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contract.Status, input.Target)
	}
	if input.Principal.Role != role {
		return nil, fmt.Errorf("%w: %s -> %s requires role %s", ErrPermissionDenied, contract.Status, input.Target, role)
	}
	if !actsAsParty(contract, input.Principal) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateStatus(ctx, contract.ID, contract.Status, input.Target)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race: someone moved the contract between our read and
			// the swap. Re-read to report the state the winner left behind.
			return nil, s.classifyConflict(ctx, contract.ID)
		}
		return nil, storeErr(err)
	}

	s.metrics.TransitionApplied(string(input.Target))
	return updated, nil
}

// Reschedule changes the requested start. Allowed to the requester only and
// only while the contract is still PENDING.
func (s *ContractService) Reschedule(ctx context.Context, contractID uuid.UUID, principal model.Principal, scheduledStart time.Time) (*model.Contract, error) {
	if scheduledStart.Before(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled_start must be in the future", ErrInvalidInput)
	}

	contract, err := visibleContract(ctx, s.store, contractID, principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsRequester() || contract.RequesterID != principal.UserID {
		return nil, fmt.Errorf("%w: only the requester may reschedule", ErrPermissionDenied)
	}
	if contract.Status != model.ContractStatusPending {
		if contract.Status.IsTerminal() {
			return nil, ErrContractTerminal
		}
		return nil, fmt.Errorf("%w: reschedule is allowed only while pending", ErrInvalidTransition)
	}

	updated, err := s.store.UpdateSchedule(ctx, contractID, scheduledStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.classifyConflict(ctx, contractID)
		}
		return nil, storeErr(err)
	}
	return updated, nil
}

func (s *ContractService) GetContract(ctx context.Context, contractID uuid.UUID, principal model.Principal) (*model.Contract, error) {
	return visibleContract(ctx, s.store, contractID, principal)
}

func (s *ContractService) ListContracts(ctx context.Context, principal model.Principal) ([]model.Contract, error) {
	contracts, err := s.store.ListForIdentity(ctx, principal.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	return contracts, nil
}

// visibleContract loads a contract and enforces party-scoped visibility: a
// contract exists only for its requester and provider.
func visibleContract(ctx context.Context, store ContractStore, contractID uuid.UUID, principal model.Principal) (*model.Contract, error) {
	contract, err := store.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if contract.RequesterID != principal.UserID && contract.ProviderID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

// classifyConflict reports a lost compare-and-swap in terms of the contract's
// current state.
func (s *ContractService) classifyConflict(ctx context.Context, contractID uuid.UUID) error {
	current, err := s.store.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storeErr(err)
	}
	if current.Status.IsTerminal() {
		return ErrContractTerminal
	}
	return fmt.Errorf("%w: contract moved to %s", ErrInvalidTransition, current.Status)
}

func actsAsParty(contract *model.Contract, principal model.Principal) bool {
	switch principal.Role {
	case model.RoleRequester:
		return contract.RequesterID == principal.UserID
	case model.RoleProvider:
		return contract.ProviderID == principal.UserID
	default:
		return false
	}
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
