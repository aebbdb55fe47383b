package mockapi

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"offsetmarket-buyer-go/internal/models"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// storageUrlPrefix mirrors the container-internal path the backend prepends
// to certificate URLs. Clients are expected to strip it.
const storageUrlPrefix = "/app/public/storage/"

// GenerateCertificate renders the offset certificate PDF for a settled
// transaction and returns the URL to publish on the transaction record. The
// file lands under <storageDir>/certificates/; the returned URL carries the
// storage prefix and a doubled .pdf extension, matching what the production
// backend emits.
func GenerateCertificate(storageDir string, transaction models.Transaction, buyerName string) (string, error) {
	dir := filepath.Join(storageDir, "certificates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create certificate directory: %w", err)
	}

	fileName := fmt.Sprintf("certificate-%d.pdf", transaction.TransactionId)
	destPath := filepath.Join(dir, fileName)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 25, "Carbon Offset Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, buyerName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("has offset %s tCO2e through", transaction.TotalCarbon.String()), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, fmt.Sprintf("%s, %s", transaction.ZoneName, transaction.ZoneLocation), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(8)
	pdf.CellFormat(0, 8, fmt.Sprintf("Certificate No. %s", uuid.New().String()), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Transaction #%d", transaction.TransactionId), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued %s", time.Now().Format("January 2, 2006")), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(destPath); err != nil {
		return "", fmt.Errorf("unable to write certificate pdf: %w", err)
	}

	zap.L().Info("Certificate generated",
		zap.Int64("transaction_id", transaction.TransactionId),
		zap.String("file", destPath))
	return storageUrlPrefix + "certificates/" + fileName + ".pdf", nil
}
