package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func ptr[T any](v T) *T { return &v }

func mustCreateProduct(t *testing.T, conn *gorm.DB, mutate func(*models.Product)) models.Product {
	t.Helper()
	row := models.Product{
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       "Fiber Router",
		Category:   "networking",
		Tags:       pq.StringArray{"wifi", "router"},
		PriceCents: 129900,
		IsActive:   true,
	}
	if mutate != nil {
		mutate(&row)
	}
	require.NoError(t, conn.Create(&row).Error)
	if !row.IsActive {
		// gorm skips zero-value bools that carry a default.
		require.NoError(t, conn.Model(&row).Update("is_active", false).Error)
	}
	return row
}

func TestFindByIDMapsCatalogRow(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	row := mustCreateProduct(t, conn, func(p *models.Product) {
		p.RetailerPriceCents = ptr(int64(99900))
		p.TaxPercent = ptr(5.0)
		p.StandardWarranty = "1 year"
		p.ExtendedWarranty = ptr("3 years")
		p.ExtendedWarrantyCents = ptr(int64(19900))
		p.IsTelecom = true
		p.MaxDirectPurchaseQty = ptr(5)
	})

	product, err := repo.FindByID(context.Background(), row.ID)
	require.NoError(t, err)

	assert.Equal(t, row.ID, product.ID)
	assert.Equal(t, "1299", product.BasePrice.String())
	require.NotNil(t, product.RetailerPrice)
	assert.Equal(t, "999", product.RetailerPrice.String())
	require.NotNil(t, product.TaxPercentage)
	assert.Equal(t, "5", product.TaxPercentage.String())
	assert.True(t, product.Warranty.ExtendedAvailable())
	assert.Equal(t, "3 years", product.Warranty.ExtendedPeriod)
	assert.Equal(t, "199", product.Warranty.ExtendedPrice.String())
	assert.True(t, product.Telecom)
	require.NotNil(t, product.MaxDirectPurchaseQty)
	assert.Equal(t, 5, *product.MaxDirectPurchaseQty)
}

func TestFindByIDMissingOrInactive(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)

	inactive := mustCreateProduct(t, conn, func(p *models.Product) { p.IsActive = false })
	_, err = repo.FindByID(ctx, inactive.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = repo.FindByID(ctx, uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestFindApprovedQuote(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	product := mustCreateProduct(t, conn, nil)
	approved := models.Quote{ProductID: product.ID, UserID: "u-1", UnitPriceCents: 75050, Status: enums.QuoteStatusApproved, ExpiresAt: ptr(now.Add(time.Hour))}
	pending := models.Quote{ProductID: product.ID, UserID: "u-1", UnitPriceCents: 70000, Status: enums.QuoteStatusPending}
	expired := models.Quote{ProductID: product.ID, UserID: "u-1", UnitPriceCents: 70000, Status: enums.QuoteStatusApproved, ExpiresAt: ptr(now.Add(-time.Minute))}
	require.NoError(t, conn.Create(&approved).Error)
	require.NoError(t, conn.Create(&pending).Error)
	require.NoError(t, conn.Create(&expired).Error)

	quote, err := repo.FindApprovedQuote(ctx, approved.ID.String(), "u-1", product.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.ID.String(), quote.ID)
	assert.Equal(t, "750.5", quote.UnitPrice.String())

	tests := []struct {
		name      string
		quoteID   string
		userID    string
		productID uuid.UUID
		code      pkgerrors.Code
	}{
		{"other user", approved.ID.String(), "u-2", product.ID, pkgerrors.CodeNotFound},
		{"other product", approved.ID.String(), "u-1", uuid.New(), pkgerrors.CodeNotFound},
		{"pending", pending.ID.String(), "u-1", product.ID, pkgerrors.CodeNotFound},
		{"expired", expired.ID.String(), "u-1", product.ID, pkgerrors.CodeConflict},
		{"malformed id", "q-1", "u-1", product.ID, pkgerrors.CodeValidation},
		{"guest", approved.ID.String(), "", product.ID, pkgerrors.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.FindApprovedQuote(ctx, tt.quoteID, tt.userID, tt.productID)
			assert.True(t, pkgerrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}
