package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id,
	requester_id,
	provider_id,
	service_id,
	description,
	scheduled_start,
	agreed_price,
	status,
	start_code,
	end_code,
	start_code_used,
	end_code_used,
	created_at,
	updated_at`

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	decodeStatus(&contract)
	return &contract, nil
}

func (r *ContractRepository) ListForIdentity(ctx context.Context, identityID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+contractColumns+`
		FROM contracts
		WHERE requester_id = ? OR provider_id = ?
		ORDER BY created_at DESC
	`, identityID, identityID).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	for i := range contracts {
		decodeStatus(&contracts[i])
	}
	return contracts, nil
}

func (r *ContractRepository) ListIdentities(ctx context.Context) ([]uuid.UUID, error) {
	var identities []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT requester_id AS id FROM contracts
		UNION
		SELECT provider_id AS id FROM contracts
	`).Scan(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO contracts (
			id,
			requester_id,
			provider_id,
			service_id,
			description,
			scheduled_start,
			agreed_price,
			status,
			start_code,
			end_code,
			start_code_used,
			end_code_used,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		contract.ID,
		contract.RequesterID,
		contract.ProviderID,
		contract.ServiceID,
		contract.Description,
		contract.ScheduledStart,
		contract.AgreedPrice,
		contract.Status,
		contract.StartCode,
		contract.EndCode,
		contract.StartCodeUsed,
		contract.EndCodeUsed,
		contract.CreatedAt,
		contract.UpdatedAt,
	).Error
}

// UpdateStatus swaps the status only if the contract still holds the expected
// one. A concurrent writer that got there first leaves zero matching rows,
// reported as gorm.ErrRecordNotFound.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ContractStatus) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		UPDATE contracts
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?
		RETURNING`+contractColumns+`
	`, to, id, from).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	decodeStatus(&contract)
	return &contract, nil
}

// UpdateSchedule moves the requested start while the contract is still
// PENDING. Same compare-and-swap contract as UpdateStatus.
func (r *ContractRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledStart time.Time) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		UPDATE contracts
		SET scheduled_start = ?, updated_at = NOW()
		WHERE id = ? AND status = ?
		RETURNING`+contractColumns+`
	`, scheduledStart, id, model.ContractStatusPending).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	decodeStatus(&contract)
	return &contract, nil
}

// ConsumeCodeAndTransition is the verification swap: status check, code
// equality and single-use consumption in one statement, so a duplicate of a
// correct code can never transition twice.
func (r *ContractRepository) ConsumeCodeAndTransition(ctx context.Context, id uuid.UUID, phase model.VerificationPhase, code string, from, to model.ContractStatus) (*model.Contract, error) {
	codeColumn := "start_code"
	usedColumn := "start_code_used"
	if phase == model.PhaseEnd {
		codeColumn = "end_code"
		usedColumn = "end_code_used"
	}

	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		UPDATE contracts
		SET status = ?, `+usedColumn+` = TRUE, updated_at = NOW()
		WHERE id = ?
			AND status = ?
			AND `+codeColumn+` = ?
			AND `+usedColumn+` = FALSE
		RETURNING`+contractColumns+`
	`, to, id, from, code).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	decodeStatus(&contract)
	return &contract, nil
}

func decodeStatus(contract *model.Contract) {
	contract.Status = model.ParseContractStatus(string(contract.Status))
}
