package model

import (
	"time"

	"github.com/google/uuid"
)

// CertificateDocument carries everything the PDF generator needs for a
// completion certificate of one finished contract.
type CertificateDocument struct {
	Contract    Contract
	GeneratedAt time.Time
}

// ContractHistory is the input for the XLSX history export: all contracts
// visible to one identity.
type ContractHistory struct {
	IdentityID  uuid.UUID
	Role        Role
	Contracts   []Contract
	GeneratedAt time.Time
}
