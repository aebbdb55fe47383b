package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"offsetmarket-buyer-go/internal/models"

	"go.uber.org/zap"
)

// SubmitNeeds posts a carbon-needs request. The server matches it to a
// conservation zone and creates a pending_payment transaction.
func (c *Client) SubmitNeeds(ctx context.Context, needs models.NeedsRequest) error {
	var envelope models.APIResponse
	if err := c.postJSON(ctx, "/api/buyer/transactions", "submit needs", needs, &envelope); err != nil {
		return err
	}
	if err := checkEnvelope(envelope.Status, envelope.Message); err != nil {
		return err
	}

	zap.L().Info("Carbon needs submitted",
		zap.String("carbon_needs", needs.CarbonNeeds.String()),
		zap.String("prefered_forest", needs.PreferedForest))
	return nil
}

// ListTransactions fetches the buyer's transactions filtered by status
// (pending_payment or paid) and the isToday flag. Order is as the server
// returns it; callers must not re-sort.
func (c *Client) ListTransactions(ctx context.Context, status string, todayOnly bool) ([]models.Transaction, error) {
	isToday := "no"
	if todayOnly {
		isToday = "yes"
	}
	query := url.Values{}
	query.Set("isToday", isToday)
	query.Set("status", status)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/buyer/transactions/list?"+query.Encode(), nil, true)
	if err != nil {
		return nil, err
	}

	var envelope models.TransactionListResponse
	if err := c.doJSON(req, "list transactions", &envelope); err != nil {
		return nil, err
	}
	if err := checkEnvelope(envelope.Status, envelope.Message); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// ProceedPayment invokes the completion endpoint for one pending
// transaction. This is a fire-once action: the caller gets exactly one
// attempt per invocation and decides itself whether to re-run after a
// failure.
func (c *Client) ProceedPayment(ctx context.Context, transactionId int64) error {
	path := fmt.Sprintf("/api/buyer/transactions/%d/proceed-payment", transactionId)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return err
	}

	var envelope models.APIResponse
	if err := c.doJSON(req, "proceed payment", &envelope); err != nil {
		return err
	}
	if err := checkEnvelope(envelope.Status, envelope.Message); err != nil {
		return err
	}

	zap.L().Info("Payment completed", zap.Int64("transaction_id", transactionId))
	return nil
}

// DownloadCertificate streams a certificate document (already-normalized
// path, relative to the API base URL) into destPath.
func (c *Client) DownloadCertificate(ctx context.Context, certificatePath, destPath string) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/"+certificatePath, nil, true)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkFailure{Op: "download certificate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ServerRejection{StatusCode: resp.StatusCode, Message: "certificate not available"}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", destPath, err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("unable to write certificate: %w", err)
	}

	zap.L().Info("Certificate downloaded",
		zap.String("certificate", certificatePath),
		zap.String("dest", destPath),
		zap.Int64("bytes", written))
	return nil
}
