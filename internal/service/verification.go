package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
	"github.com/Taskify-udl/taskify-contracts/pkg/metrics"
)

// VerificationService turns a presented one-time code into the
// ACCEPTED→ACTIVE or ACTIVE→FINISHED transition. It does not care whether the
// code was typed or scanned off a QR; both arrive as the same string.
type VerificationService struct {
	store   ContractStore
	metrics *metrics.Metrics
}

func NewVerificationService(store ContractStore, m *metrics.Metrics) *VerificationService {
	return &VerificationService{store: store, metrics: m}
}

type VerifyCodeInput struct {
	ContractID uuid.UUID
	Principal  model.Principal
	Code       string
	Phase      model.VerificationPhase
}

func (s *VerificationService) VerifyCode(ctx context.Context, input VerifyCodeInput) (*model.Contract, error) {
	edge, ok := verificationEdges[input.Phase]
	if !ok {
		return nil, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, input.Phase)
	}

	contract, err := visibleContract(ctx, s.store, input.ContractID, input.Principal)
	if err != nil {
		return nil, err
	}

	// A consumed code is a mismatch no matter what state the contract has
	// since moved to: replaying it must never look like a phase problem.
	if phaseCodeConsumed(contract, input.Phase) {
		s.metrics.VerificationRejected(string(input.Phase))
		return nil, ErrCodeMismatch
	}

	if contract.Status != edge.from {
		s.metrics.VerificationRejected(string(input.Phase))
		if contract.Status.IsTerminal() {
			return nil, ErrContractTerminal
		}
		return nil, fmt.Errorf("%w: phase %s requires status %s, contract is %s",
			ErrPhaseViolation, input.Phase, edge.from, contract.Status)
	}
	if input.Phase == model.PhaseEnd && !contract.StartCodeUsed {
		s.metrics.VerificationRejected(string(input.Phase))
		return nil, fmt.Errorf("%w: start code has not been verified", ErrPhaseViolation)
	}

	presented := NormalizeCode(input.Code)
	if !codeMatches(contract, input.Phase, presented) {
		s.metrics.VerificationRejected(string(input.Phase))
		return nil, ErrCodeMismatch
	}

	// Compare, consume and transition are a single swap at the store; a
	// concurrent duplicate of the same correct code loses the swap and is
	// reported as a mismatch against the consumed code.
	updated, err := s.store.ConsumeCodeAndTransition(ctx, contract.ID, input.Phase, presented, edge.from, edge.to)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.VerificationRejected(string(input.Phase))
			return nil, ErrCodeMismatch
		}
		return nil, storeErr(err)
	}

	s.metrics.VerificationAccepted(string(input.Phase))
	return updated, nil
}

// NormalizeCode is the canonical form both for storage and comparison:
// surrounding whitespace dropped, letters upper-cased.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func phaseCodeConsumed(contract *model.Contract, phase model.VerificationPhase) bool {
	if phase == model.PhaseEnd {
		return contract.EndCodeUsed
	}
	return contract.StartCodeUsed
}

func codeMatches(contract *model.Contract, phase model.VerificationPhase, presented string) bool {
	if presented == "" {
		return false
	}
	switch phase {
	case model.PhaseStart:
		return !contract.StartCodeUsed && presented == contract.StartCode
	case model.PhaseEnd:
		return !contract.EndCodeUsed && presented == contract.EndCode
	default:
		return false
	}
}
