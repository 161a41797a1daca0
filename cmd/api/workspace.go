package main

import (
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/internal/session"
	"github.com/angelmondragon/storefront-checkout/pkg/config"
	"github.com/angelmondragon/storefront-checkout/pkg/documents"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/ordersapi"
)

// collaborators are shared by every session engine.
type collaborators struct {
	postal  checkout.PostalLookup
	lock    checkout.SubmissionLock
	metrics checkout.Metrics
}

// newWorkspaceFactory builds the per-session engine factory. Optional
// upstreams left unconfigured stay nil so the engine reports them as unavailable.
func newWorkspaceFactory(cfg *config.Config, logg *logger.Logger, shared collaborators) (session.Factory[*checkout.Engine], error) {
	shipping, err := cfg.Checkout.Shipping()
	if err != nil {
		return nil, err
	}

	var docs checkout.DocumentGenerator
	if cfg.Documents.BaseURL != "" {
		client, err := documents.NewClient(cfg.Documents.BaseURL, cfg.Documents.APIKey, documents.WithTimeout(cfg.Documents.Timeout))
		if err != nil {
			return nil, err
		}
		docs = client
	}

	var orders checkout.OrderAPI
	if cfg.OrdersAPI.BaseURL != "" {
		client, err := ordersapi.NewClient(cfg.OrdersAPI.BaseURL, cfg.OrdersAPI.APIKey, ordersapi.WithTimeout(cfg.OrdersAPI.Timeout))
		if err != nil {
			return nil, err
		}
		orders = client
	}

	calculator := pricing.NewCalculator(
		pricing.WithDefaultTaxPercent(cfg.Checkout.DefaultTaxPercent),
		pricing.WithShipping(shipping),
	)
	validator := checkout.NewValidator(cfg.Checkout.QuoteLineThreshold)

	return func(key string) (*checkout.Engine, error) {
		return checkout.NewEngine(checkout.Dependencies{
			SessionKey:       key,
			Cart:             cart.NewStore(),
			Sessions:         session.ContextService{},
			Pricing:          calculator,
			Validator:        validator,
			Postal:           shared.postal,
			Documents:        docs,
			Orders:           orders,
			Payment:          cfg.Payment,
			Lock:             shared.lock,
			LockTTL:          cfg.Checkout.SubmissionLockTTL,
			Metrics:          shared.metrics,
			Logger:           logg,
			Currency:         cfg.Checkout.Currency,
			PostalCodeLength: cfg.Checkout.PostalCodeLength,
		})
	}, nil
}
