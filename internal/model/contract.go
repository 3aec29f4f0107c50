package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusPending   ContractStatus = "PENDING"
	ContractStatusAccepted  ContractStatus = "ACCEPTED"
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusFinished  ContractStatus = "FINISHED"
	ContractStatusRejected  ContractStatus = "REJECTED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
	// ContractStatusUnknown is the decode fallback for status values this
	// version does not recognize. Never reachable through a transition and
	// never accepted as a target.
	ContractStatusUnknown ContractStatus = "UNKNOWN"
)

// ParseContractStatus maps a raw status string to a known status,
// falling back to UNKNOWN for anything unrecognized.
func ParseContractStatus(raw string) ContractStatus {
	switch ContractStatus(raw) {
	case ContractStatusPending, ContractStatusAccepted, ContractStatusActive,
		ContractStatusFinished, ContractStatusRejected, ContractStatusCancelled:
		return ContractStatus(raw)
	default:
		return ContractStatusUnknown
	}
}

// IsTerminal reports whether no further transition is permitted.
func (s ContractStatus) IsTerminal() bool {
	switch s {
	case ContractStatusFinished, ContractStatusRejected, ContractStatusCancelled:
		return true
	default:
		return false
	}
}

type VerificationPhase string

const (
	PhaseStart VerificationPhase = "START"
	PhaseEnd   VerificationPhase = "END"
)

// Contract is a single booking between a requester and a provider for one
// service. Status moves only along the lifecycle edges; scheduledStart is the
// only field mutable after creation, and only while PENDING.
type Contract struct {
	ID             uuid.UUID
	RequesterID    uuid.UUID
	ProviderID     uuid.UUID
	ServiceID      uuid.UUID
	Description    string
	ScheduledStart time.Time
	AgreedPrice    float64
	Status         ContractStatus
	StartCode      string
	EndCode        string
	StartCodeUsed  bool
	EndCodeUsed    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
