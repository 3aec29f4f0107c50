package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

// ExcelGenerator builds the contract history workbook for one identity.
type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

func (g *ExcelGenerator) Generate(history model.ContractHistory) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Contracts"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Contract", "Counterparty", "Service", "Scheduled start", "Price", "Status", "Created"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, contract := range history.Contracts {
		counterparty := contract.ProviderID
		if history.Role == model.RoleProvider {
			counterparty = contract.RequesterID
		}
		values := []interface{}{
			contract.ID.String(),
			counterparty.String(),
			contract.ServiceID.String(),
			contract.ScheduledStart.UTC().Format("2006-01-02 15:04"),
			contract.AgreedPrice,
			string(contract.Status),
			contract.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	summaryRow := len(history.Contracts) + 3
	summary := fmt.Sprintf("%d contracts for %s (%s), generated %s",
		len(history.Contracts),
		history.IdentityID,
		strings.ToLower(string(history.Role)),
		history.GeneratedAt.Format("2006-01-02 15:04"),
	)
	cell, err := excelize.CoordinatesToCellName(1, summaryRow)
	if err != nil {
		return nil, err
	}
	if err := file.SetCellValue(sheet, cell, summary); err != nil {
		return nil, err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
