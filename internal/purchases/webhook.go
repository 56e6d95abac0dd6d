package purchases

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/backend/internal/models"
	"github.com/nexlearn/backend/pkg/response"
)

// Enroller grants course access once a payment settles.
type Enroller interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Enroll(ctx context.Context, courseID, userID uuid.UUID) error
}

// PaymentCompletedPayload is the expected body from the payment gateway's
// payment-completed webhook.
type PaymentCompletedPayload struct {
	Provider    string `json:"provider"`
	ProviderRef string `json:"provider_ref"`
	UserID      string `json:"user_id"`
	CourseID    string `json:"course_id"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// WebhookHandler handles payment webhooks from the gateway.
type WebhookHandler struct {
	repo     *Repository
	enroller Enroller
	secret   string
	logger   *zap.Logger
}

// NewWebhookHandler creates a payment webhook handler. An empty secret
// disables signature verification (local development).
func NewWebhookHandler(repo *Repository, enroller Enroller, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{repo: repo, enroller: enroller, secret: secret, logger: logger}
}

// PaymentCompleted handles POST /webhooks/payment-completed. Validates the
// HMAC signature when a secret is configured, records the purchase and
// enrolls the buyer. Idempotent per provider reference: gateways redeliver.
func (h *WebhookHandler) PaymentCompleted(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	if h.secret != "" && !h.verifySignature(raw, c.GetHeader("X-Webhook-Signature")) {
		response.Unauthorized(c, "invalid signature")
		return
	}

	// The body was consumed for signature verification, so decode the raw copy.
	var body PaymentCompletedPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.ProviderRef == "" {
		response.BadRequest(c, "provider_ref required")
		return
	}
	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}
	courseID, err := uuid.Parse(body.CourseID)
	if err != nil {
		response.BadRequest(c, "invalid course_id")
		return
	}

	existing, err := h.repo.GetByProviderRef(c.Request.Context(), body.Provider, body.ProviderRef)
	if err != nil {
		response.Internal(c, "failed to look up purchase")
		return
	}
	if existing != nil && existing.Status == models.PurchaseStatusCompleted {
		response.OK(c, gin.H{"purchase_id": existing.ID, "status": existing.Status})
		return
	}

	course, err := h.enroller.GetByID(c.Request.Context(), courseID)
	if err != nil {
		response.Internal(c, "failed to load course")
		return
	}
	if course == nil {
		response.NotFound(c, "course not found")
		return
	}

	status := models.PurchaseStatusCompleted
	if body.Status == models.PurchaseStatusFailed {
		status = models.PurchaseStatusFailed
	}

	purchase := existing
	if purchase == nil {
		purchase = &models.Purchase{
			UserID:      userID,
			CourseID:    courseID,
			AmountCents: body.AmountCents,
			Currency:    body.Currency,
			Provider:    body.Provider,
			ProviderRef: body.ProviderRef,
			Status:      status,
		}
		if err := h.repo.Create(c.Request.Context(), purchase); err != nil {
			h.logger.Error("create purchase failed", zap.Error(err), zap.String("provider_ref", body.ProviderRef))
			response.Internal(c, "failed to record purchase")
			return
		}
	} else if err := h.repo.SetStatus(c.Request.Context(), purchase.ID, status); err != nil {
		h.logger.Error("update purchase status failed", zap.Error(err), zap.String("purchase_id", purchase.ID.String()))
		response.Internal(c, "failed to record purchase")
		return
	}

	if status == models.PurchaseStatusCompleted {
		if err := h.enroller.Enroll(c.Request.Context(), courseID, userID); err != nil {
			h.logger.Error("enroll after purchase failed", zap.Error(err),
				zap.String("course_id", courseID.String()), zap.String("user_id", userID.String()))
			response.Internal(c, "failed to enroll buyer")
			return
		}
	}

	h.logger.Info("payment webhook processed",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("provider_ref", body.ProviderRef),
		zap.String("status", status))
	response.OK(c, gin.H{"purchase_id": purchase.ID, "status": status})
}

func (h *WebhookHandler) verifySignature(body []byte, header string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}
