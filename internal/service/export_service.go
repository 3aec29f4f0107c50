package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

type CertificateGenerator interface {
	Generate(doc model.CertificateDocument) ([]byte, error)
}

type HistoryGenerator interface {
	Generate(history model.ContractHistory) ([]byte, error)
}

// ExportService produces the completion paperwork: a PDF certificate for one
// finished contract and an XLSX workbook of the caller's contract history.
type ExportService struct {
	store ContractStore
	pdf   CertificateGenerator
	excel HistoryGenerator
}

func NewExportService(store ContractStore, pdf CertificateGenerator, excel HistoryGenerator) *ExportService {
	return &ExportService{store: store, pdf: pdf, excel: excel}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ExportService) CompletionCertificate(ctx context.Context, contractID uuid.UUID, principal model.Principal) (*ExportResult, error) {
	contract, err := visibleContract(ctx, s.store, contractID, principal)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractStatusFinished {
		return nil, fmt.Errorf("%w: certificate is available only for finished contracts", ErrInvalidInput)
	}

	content, err := s.pdf.Generate(model.CertificateDocument{
		Contract:    *contract,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s-certificate.pdf", contract.ID),
		Content:  content,
	}, nil
}

func (s *ExportService) HistoryExport(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	contracts, err := s.store.ListForIdentity(ctx, principal.UserID)
	if err != nil {
		return nil, storeErr(err)
	}

	now := time.Now().UTC()
	content, err := s.excel.Generate(model.ContractHistory{
		IdentityID:  principal.UserID,
		Role:        principal.Role,
		Contracts:   contracts,
		GeneratedAt: now,
	})
	if err != nil {
		return nil, err
	}

	role := strings.ToLower(string(principal.Role))
	return &ExportResult{
		FileName: fmt.Sprintf("contracts-%s-%s.xlsx", role, now.Format("20060102")),
		Content:  content,
	}, nil
}
