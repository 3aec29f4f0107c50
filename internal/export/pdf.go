package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

// PDFGenerator renders the completion certificate for a finished contract.
type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

func (g *PDFGenerator) Generate(doc model.CertificateDocument) ([]byte, error) {
	contract := doc.Contract

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Service Completion Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s", contract.ID), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	addField(pdf, "Requester", contract.RequesterID.String())
	addField(pdf, "Provider", contract.ProviderID.String())
	addField(pdf, "Service", contract.ServiceID.String())
	if contract.Description != "" {
		addField(pdf, "Description", contract.Description)
	}
	addField(pdf, "Scheduled start", formatTime(contract.ScheduledStart))
	addField(pdf, "Agreed price", fmt.Sprintf("%.2f", contract.AgreedPrice))
	addField(pdf, "Status", string(contract.Status))
	addField(pdf, "Requested on", formatTime(contract.CreatedAt))
	addField(pdf, "Completed on", formatTime(contract.UpdatedAt))

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", formatTime(doc.GeneratedAt)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func addField(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 7, value, "", "L", false)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
