package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
	"github.com/Taskify-udl/taskify-contracts/pkg/metrics"
)

// NotificationStateStore remembers the last status the detector observed per
// (identity, contract).
type NotificationStateStore interface {
	ListStatuses(ctx context.Context, identityID uuid.UUID) (map[uuid.UUID]model.ContractStatus, error)
	SetStatus(ctx context.Context, identityID, contractID uuid.UUID, status model.ContractStatus) error
}

// Notifier delivers an event to the identity. Best effort: the detector
// ignores delivery failures.
type Notifier interface {
	Notify(ctx context.Context, identityID uuid.UUID, title, body string) error
}

// DetectorService surfaces status changes a party was not present for. It is
// stateless between cycles except for the persisted notification state; an
// external scheduler decides when a cycle runs.
type DetectorService struct {
	contracts ContractStore
	state     NotificationStateStore
	notifier  Notifier
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewDetectorService(contracts ContractStore, state NotificationStateStore, notifier Notifier, m *metrics.Metrics, log zerolog.Logger) *DetectorService {
	return &DetectorService{
		contracts: contracts,
		state:     state,
		notifier:  notifier,
		metrics:   m,
		log:       log,
	}
}

// RunCycle performs one read-compare-record pass for a single identity.
// Notification delivery failures are swallowed; the remembered status always
// advances so the same change is never reported twice.
func (s *DetectorService) RunCycle(ctx context.Context, identityID uuid.UUID) error {
	contracts, err := s.contracts.ListForIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return storeErr(err)
	}

	remembered, err := s.state.ListStatuses(ctx, identityID)
	if err != nil {
		return storeErr(err)
	}

	for _, contract := range contracts {
		last, seen := remembered[contract.ID]
		switch {
		case !seen:
			s.emit(ctx, identityID, "New contract",
				fmt.Sprintf("A new contract for your service was created (status %s).", contract.Status))
		case last != contract.Status:
			s.emit(ctx, identityID, "Contract status changed",
				fmt.Sprintf("Contract status changed from %s to %s.", last, contract.Status))
		}

		// Bookkeeping has priority over delivery: record the current status
		// whether or not an event fired or reached the notifier.
		if err := s.state.SetStatus(ctx, identityID, contract.ID, contract.Status); err != nil {
			return storeErr(err)
		}
	}

	s.metrics.DetectorCycleCompleted()
	return nil
}

// RunAll cycles every identity that currently has contracts. Per-identity
// failures are logged and do not stop the sweep.
func (s *DetectorService) RunAll(ctx context.Context) {
	identities, err := s.contracts.ListIdentities(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("detector: list identities failed")
		return
	}
	for _, identity := range identities {
		if err := s.RunCycle(ctx, identity); err != nil {
			s.log.Error().Err(err).Str("identity", identity.String()).Msg("detector: cycle failed")
		}
	}
}

func (s *DetectorService) emit(ctx context.Context, identityID uuid.UUID, title, body string) {
	if err := s.notifier.Notify(ctx, identityID, title, body); err != nil {
		s.log.Warn().Err(err).Str("identity", identityID.String()).Msg("detector: notify failed")
		return
	}
	s.metrics.NotificationEmitted()
}
