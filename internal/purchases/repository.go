package purchases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexlearn/backend/internal/models"
)

const purchaseColumns = `id, user_id, course_id, amount_cents, currency,
		COALESCE(provider,''), COALESCE(provider_ref,''), status, created_at, updated_at`

// Repository handles purchase persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a purchase repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPurchase(row pgx.Row) (*models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.AmountCents, &p.Currency,
		&p.Provider, &p.ProviderRef, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a purchase row.
func (r *Repository) Create(ctx context.Context, p *models.Purchase) error {
	const q = `INSERT INTO purchases (user_id, course_id, amount_cents, currency, provider, provider_ref, status)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), $7)
		RETURNING id, created_at, updated_at`
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Status == "" {
		p.Status = models.PurchaseStatusPending
	}
	return r.pool.QueryRow(ctx, q, p.UserID, p.CourseID, p.AmountCents, p.Currency, p.Provider, p.ProviderRef, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByProviderRef returns the purchase matching a gateway reference, or nil.
// Gateways retry webhook delivery, so lookups by reference must be cheap.
func (r *Repository) GetByProviderRef(ctx context.Context, provider, ref string) (*models.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE provider = $1 AND provider_ref = $2`
	return scanPurchase(r.pool.QueryRow(ctx, q, provider, ref))
}

// SetStatus updates the lifecycle status of a purchase.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE purchases SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, status, id)
	return err
}

// ListByUser returns a user's purchases, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
