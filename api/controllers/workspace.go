package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/api/middleware"
	"github.com/angelmondragon/storefront-checkout/api/validators"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

// Workspaces resolves the checkout engine owned by a session key.
type Workspaces interface {
	Workspace(key string) (*checkout.Engine, error)
}

func engineFor(r *http.Request, ws Workspaces) (*checkout.Engine, error) {
	if ws == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout workspaces unavailable")
	}
	return ws.Workspace(middleware.SessionKeyFromContext(r.Context()))
}

// lineKeyFromRequest reads the product path parameter and the optional quote_id query parameter.
func lineKeyFromRequest(r *http.Request) (cart.LineKey, error) {
	productID, err := validators.ParseUUIDParam(r, "productId")
	if err != nil {
		return cart.LineKey{}, err
	}
	return cart.LineKey{ProductID: productID, QuoteID: strings.TrimSpace(r.URL.Query().Get("quote_id"))}, nil
}

func parseUUIDField(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]string{field: "must be a valid uuid"})
	}
	return id, nil
}
