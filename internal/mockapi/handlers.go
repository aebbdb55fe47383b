package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"offsetmarket-buyer-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const buyerIdKey = "buyer_id"

func successResponse(message string) gin.H {
	return gin.H{"status": "success", "message": message}
}

func errorResponse(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}

// requireBuyer authenticates the bearer token and stashes the buyer id on
// the request context.
func (s *Server) requireBuyer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("missing bearer token"))
			return
		}

		buyerId, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid or expired token"))
			return
		}
		c.Set(buyerIdKey, buyerId)
		c.Next()
	}
}

var requiredRegistrationFields = []string{
	"username", "email", "password", "password_confirmation", "first_name",
	"last_name", "national_id", "phone_number", "address", "city", "province",
	"country", "postal_code", "company_name",
}

func (s *Server) handleRegister(c *gin.Context) {
	fieldErrors := make(map[string][]string)
	for _, field := range requiredRegistrationFields {
		if c.PostForm(field) == "" {
			fieldErrors[field] = append(fieldErrors[field], fmt.Sprintf("The %s field is required.", field))
		}
	}
	password := c.PostForm("password")
	if password != "" && password != c.PostForm("password_confirmation") {
		fieldErrors["password"] = append(fieldErrors["password"], "The password confirmation does not match.")
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "The given data was invalid.",
			"errors":  fieldErrors,
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("unable to process registration"))
		return
	}

	params := RegisterBuyerParams{
		Username:     c.PostForm("username"),
		Email:        c.PostForm("email"),
		PasswordHash: string(hash),
		FirstName:    c.PostForm("first_name"),
		LastName:     c.PostForm("last_name"),
		NationalId:   c.PostForm("national_id"),
		BirthPlace:   c.PostForm("birth_place"),
		BirthDate:    c.PostForm("birth_date"),
		Gender:       c.PostForm("gender"),
		PhoneNumber:  c.PostForm("phone_number"),
		Address:      c.PostForm("address"),
		Village:      c.PostForm("village"),
		Subdistrict:  c.PostForm("subdistrict"),
		City:         c.PostForm("city"),
		Province:     c.PostForm("province"),
		Country:      c.PostForm("country"),
		PostalCode:   c.PostForm("postal_code"),
		CompanyName:  c.PostForm("company_name"),
	}

	buyerId, err := s.storage.CreateBuyer(c.Request.Context(), params)
	if errors.Is(err, ErrEmailTaken) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"email": {"The email has already been taken."}},
		})
		return
	}
	if errors.Is(err, ErrUsernameTaken) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"username": {"The username has already been taken."}},
		})
		return
	}
	if err != nil {
		zap.L().Error("Registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to process registration"))
		return
	}

	s.saveKycUpload(c, buyerId, "kyc_proof_file_personal")
	s.saveKycUpload(c, buyerId, "kyc_proof_file_company")

	c.JSON(http.StatusCreated, successResponse("Registration successful. You can now log in."))
}

// saveKycUpload stores an optional KYC attachment; upload problems are
// logged, not fatal, matching the lenient production behavior.
func (s *Server) saveKycUpload(c *gin.Context, buyerId int64, field string) {
	file, err := c.FormFile(field)
	if err != nil {
		return
	}
	dir := filepath.Join(s.cfg.StorageDir, "kyc")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Warn("Unable to create kyc directory", zap.Error(err))
		return
	}
	dest := filepath.Join(dir, fmt.Sprintf("%d-%s-%s", buyerId, field, filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		zap.L().Warn("Unable to save kyc upload", zap.String("field", field), zap.Error(err))
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.JSON(http.StatusUnprocessableEntity, errorResponse("email and password are required"))
		return
	}

	buyer, err := s.storage.GetBuyerByEmail(c.Request.Context(), email)
	if errors.Is(err, ErrBuyerNotFound) {
		c.JSON(http.StatusUnauthorized, errorResponse("These credentials do not match our records."))
		return
	}
	if err != nil {
		zap.L().Error("Login lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to process login"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(buyer.PasswordHash), []byte(password)) != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("These credentials do not match our records."))
		return
	}

	token, err := s.tokens.Issue(buyer.Id, buyer.Email)
	if err != nil {
		zap.L().Error("Token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to process login"))
		return
	}

	user, _ := json.Marshal(gin.H{
		"id":           buyer.Id,
		"username":     buyer.Username,
		"email":        buyer.Email,
		"first_name":   buyer.FirstName,
		"last_name":    buyer.LastName,
		"company_name": buyer.CompanyName,
	})
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"message":     "Login successful",
		"token":       token,
		"user":        json.RawMessage(user),
		"roles":       []string{"buyer"},
		"permissions": []string{"transaction.create", "transaction.pay"},
	})
}

func (s *Server) handleSubmitNeeds(c *gin.Context) {
	buyerId := c.GetInt64(buyerIdKey)

	var needs models.NeedsRequest
	if err := c.ShouldBindJSON(&needs); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse("invalid request body"))
		return
	}
	if !needs.CarbonNeeds.IsPositive() {
		c.JSON(http.StatusUnprocessableEntity, errorResponse("carbon_needs must be a positive amount"))
		return
	}

	zone := MatchZone(s.zones, needs.PreferedForest)
	totalPrice := needs.CarbonNeeds.Mul(zone.Price())
	tax := totalPrice.Mul(models.TaxRate).Round(2)

	transaction := models.Transaction{
		ZoneName:     zone.Name,
		ZoneLocation: zone.Location,
		TotalCarbon:  needs.CarbonNeeds,
		PricePerTon:  zone.Price(),
		TotalPrice:   totalPrice,
		Tax:          tax,
		GrandTotal:   totalPrice.Add(tax),
		Status:       models.StatusPendingPayment,
	}

	if _, err := s.storage.InsertTransaction(c.Request.Context(), buyerId, transaction, needs.Notes); err != nil {
		zap.L().Error("Needs submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to create transaction"))
		return
	}
	c.JSON(http.StatusCreated, successResponse("Transaction created. Complete the payment to receive your certificate."))
}

func (s *Server) handleListZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": s.zones})
}

func (s *Server) handleListTransactions(c *gin.Context) {
	buyerId := c.GetInt64(buyerIdKey)

	status := c.Query("status")
	if status != models.StatusPendingPayment && status != models.StatusPaid {
		c.JSON(http.StatusUnprocessableEntity, errorResponse("status must be pending_payment or paid"))
		return
	}
	todayOnly := c.Query("isToday") == "yes"

	transactions, err := s.storage.ListTransactions(c.Request.Context(), buyerId, status, todayOnly)
	if err != nil {
		zap.L().Error("Transaction listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to list transactions"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": transactions})
}

func (s *Server) handleProceedPayment(c *gin.Context) {
	buyerId := c.GetInt64(buyerIdKey)

	transactionId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse("invalid transaction id"))
		return
	}

	pending, err := s.storage.ListTransactions(c.Request.Context(), buyerId, models.StatusPendingPayment, false)
	if err != nil {
		zap.L().Error("Payment lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to complete payment"))
		return
	}
	var transaction *models.Transaction
	for i := range pending {
		if pending[i].TransactionId == transactionId {
			transaction = &pending[i]
			break
		}
	}

	buyerName := fmt.Sprintf("Buyer #%d", buyerId)
	if buyer, err := s.storage.GetBuyerById(c.Request.Context(), buyerId); err == nil && buyer.CompanyName != "" {
		buyerName = buyer.CompanyName
	}

	certificateUrl := ""
	if transaction != nil {
		certificateUrl, err = GenerateCertificate(s.cfg.StorageDir, *transaction, buyerName)
		if err != nil {
			zap.L().Error("Certificate generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse("unable to issue certificate"))
			return
		}
	}

	err = s.storage.CompletePayment(c.Request.Context(), buyerId, transactionId, certificateUrl)
	if errors.Is(err, ErrTransactionNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("transaction not found"))
		return
	}
	if errors.Is(err, ErrAlreadyPaid) {
		c.JSON(http.StatusConflict, errorResponse("transaction already paid"))
		return
	}
	if err != nil {
		zap.L().Error("Payment completion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("unable to complete payment"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Payment completed. Your certificate is ready."))
}
