package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"offsetmarket-buyer-go/internal/models"

	"go.uber.org/zap"
)

// Login exchanges credentials for a bearer token plus the session payload
// (user object, roles, permissions). The endpoint takes form-encoded fields,
// not JSON.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()), false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var envelope models.LoginResponse
	if err := c.doJSON(req, "login", &envelope); err != nil {
		return nil, err
	}
	if err := checkEnvelope(envelope.Status, envelope.Message); err != nil {
		return nil, err
	}
	if envelope.Token == "" {
		return nil, &ServerRejection{StatusCode: http.StatusOK, Message: "login response carried no token"}
	}

	zap.L().Info("Login succeeded", zap.String("email", email), zap.Strings("roles", envelope.Roles))
	return &envelope, nil
}

// RegisterParams is the company registration form. The role is fixed to
// "buyer" on the wire; KYC files are attached when paths are provided.
type RegisterParams struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	FirstName            string
	LastName             string
	NationalId           string
	BirthPlace           string
	BirthDate            string
	Gender               string
	PhoneNumber          string
	Address              string
	Village              string
	Subdistrict          string
	City                 string
	Province             string
	Country              string
	PostalCode           string
	CompanyName          string
	KycPersonalFile      string
	KycCompanyFile       string
}

func (p *RegisterParams) fields() map[string]string {
	return map[string]string{
		"username":              p.Username,
		"email":                 p.Email,
		"password":              p.Password,
		"password_confirmation": p.PasswordConfirmation,
		"first_name":            p.FirstName,
		"last_name":             p.LastName,
		"national_id":           p.NationalId,
		"birth_place":           p.BirthPlace,
		"birth_date":            p.BirthDate,
		"gender":                p.Gender,
		"phone_number":          p.PhoneNumber,
		"address":               p.Address,
		"village":               p.Village,
		"subdistrict":           p.Subdistrict,
		"city":                  p.City,
		"province":              p.Province,
		"country":               p.Country,
		"postal_code":           p.PostalCode,
		"company_name":          p.CompanyName,
		"role":                  "buyer",
		"kyc_type_personal":     "ktp",
		"kyc_type_company":      "company_document",
	}
}

// Register submits the multipart company registration. Field-keyed
// validation errors from the server are folded into one message so the
// caller can surface them as-is.
func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, value := range params.fields() {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("unable to encode field %s: %w", name, err)
		}
	}
	if err := attachFile(writer, "kyc_proof_file_personal", params.KycPersonalFile); err != nil {
		return err
	}
	if err := attachFile(writer, "kyc_proof_file_company", params.KycCompanyFile); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("unable to finalize registration form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/register", &body, false)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	statusCode, raw, err := c.doRaw(req, "register")
	if err != nil {
		return err
	}
	var envelope models.RegisterResponse
	if unmarshalErr := json.Unmarshal(raw, &envelope); unmarshalErr != nil && statusCode >= 200 && statusCode <= 299 {
		return &NetworkFailure{Op: "register", Err: fmt.Errorf("unparseable response body: %w", unmarshalErr)}
	}
	if statusCode < 200 || statusCode > 299 || envelope.Status != models.APIStatusSuccess {
		return &ServerRejection{StatusCode: statusCode, Message: foldFieldErrors(envelope.Errors, envelope.Message)}
	}

	zap.L().Info("Company registered", zap.String("company_name", params.CompanyName), zap.String("email", params.Email))
	return nil
}

func attachFile(writer *multipart.Writer, field, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read %s file %s: %w", field, path, err)
	}
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("unable to attach %s: %w", field, err)
	}
	if _, err := part.Write(raw); err != nil {
		return fmt.Errorf("unable to write %s: %w", field, err)
	}
	return nil
}

// foldFieldErrors joins a field -> messages map into one displayable string,
// one "field: msg, msg" line per field, sorted for stable output.
func foldFieldErrors(fieldErrors map[string][]string, fallback string) string {
	if len(fieldErrors) == 0 {
		if fallback != "" {
			return fallback
		}
		return "registration failed"
	}

	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, field+": "+strings.Join(fieldErrors[field], ", "))
	}
	return strings.Join(lines, "\n")
}
