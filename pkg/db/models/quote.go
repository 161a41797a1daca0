package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

// Quote is a negotiated unit price granted to one user for one product.
type Quote struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	UserID         string            `gorm:"column:user_id;not null"`
	UnitPriceCents int64             `gorm:"column:unit_price_cents;not null"`
	Status         enums.QuoteStatus `gorm:"column:status;not null;default:'pending'"`
	ExpiresAt      *time.Time        `gorm:"column:expires_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Quote) TableName() string { return "quotes" }

func (q *Quote) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// All lists the models the sqlite dev mode migrates with AutoMigrate.
func All() []any {
	return []any{&Product{}, &Quote{}}
}
