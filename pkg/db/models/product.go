package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is a catalog listing the checkout prices against.
type Product struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SKU                   string         `gorm:"column:sku;not null"`
	Name                  string         `gorm:"column:name;not null"`
	Category              string         `gorm:"column:category;not null"`
	Tags                  pq.StringArray `gorm:"column:tags;type:text[]"`
	PriceCents            int64          `gorm:"column:price_cents;not null"`
	RetailerPriceCents    *int64         `gorm:"column:retailer_price_cents"`
	TaxPercent            *float64       `gorm:"column:tax_percent;type:numeric(5,2)"`
	StandardWarranty      string         `gorm:"column:standard_warranty;not null;default:''"`
	ExtendedWarranty      *string        `gorm:"column:extended_warranty"`
	ExtendedWarrantyCents *int64         `gorm:"column:extended_warranty_cents"`
	IsTelecom             bool           `gorm:"column:is_telecom;not null;default:false"`
	MaxDirectPurchaseQty  *int           `gorm:"column:max_direct_purchase_qty"`
	IsActive              bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt             time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
