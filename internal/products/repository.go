package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
)

// Catalog resolves cart inputs against persisted products and quotes.
type Catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (cart.Product, error)
	FindApprovedQuote(ctx context.Context, quoteID, userID string, productID uuid.UUID) (cart.Quote, error)
}

// Repository reads the product catalog through GORM.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn, now: time.Now}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, now: r.now}
}

// FindByID loads an active product as a cart snapshot.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (cart.Product, error) {
	if id == uuid.Nil {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var row models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&row).Error
	if err != nil {
		return cart.Product{}, db.MapError(err, "product not found")
	}
	return toCartProduct(row), nil
}

// FindApprovedQuote returns the quote only when it was approved for userID on
// productID and has not expired.
func (r *Repository) FindApprovedQuote(ctx context.Context, quoteID, userID string, productID uuid.UUID) (cart.Quote, error) {
	id, err := uuid.Parse(strings.TrimSpace(quoteID))
	if err != nil {
		return cart.Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote id")
	}
	if strings.TrimSpace(userID) == "" {
		return cart.Quote{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "quotes require a signed-in user")
	}

	var row models.Quote
	err = r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND product_id = ? AND status = ?", id, userID, productID, enums.QuoteStatusApproved).
		First(&row).Error
	if err != nil {
		return cart.Quote{}, db.MapError(err, "quote not found")
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(r.now()) {
		return cart.Quote{}, pkgerrors.New(pkgerrors.CodeConflict, "quote has expired").WithDetails(map[string]any{
			"quote_id":   row.ID.String(),
			"expired_at": row.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return cart.Quote{ID: row.ID.String(), UnitPrice: money.FromMinorUnits(row.UnitPriceCents)}, nil
}

func toCartProduct(row models.Product) cart.Product {
	p := cart.Product{
		ID:                   row.ID,
		Name:                 row.Name,
		Category:             row.Category,
		BasePrice:            money.FromMinorUnits(row.PriceCents),
		Telecom:              row.IsTelecom,
		MaxDirectPurchaseQty: row.MaxDirectPurchaseQty,
		Warranty:             cart.Warranty{StandardPeriod: row.StandardWarranty},
	}
	if row.RetailerPriceCents != nil {
		retail := money.FromMinorUnits(*row.RetailerPriceCents)
		p.RetailerPrice = &retail
	}
	if row.TaxPercent != nil {
		tax := decimal.NewFromFloat(*row.TaxPercent)
		p.TaxPercentage = &tax
	}
	if row.ExtendedWarrantyCents != nil {
		price := money.FromMinorUnits(*row.ExtendedWarrantyCents)
		p.Warranty.ExtendedPrice = &price
		if row.ExtendedWarranty != nil {
			p.Warranty.ExtendedPeriod = *row.ExtendedWarranty
		}
	}
	return p
}
