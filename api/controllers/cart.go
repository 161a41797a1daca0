package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-checkout/api/responses"
	"github.com/angelmondragon/storefront-checkout/api/validators"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/products"
	"github.com/angelmondragon/storefront-checkout/internal/session"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

// CartFetch returns the priced cart of the session.
func CartFetch(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricedCart(r, engine))
	}
}

// CartAddItem adds a catalog product to the cart. Quoted lines resolve their
// price from an approved quote of the signed-in user.
func CartAddItem(ws Workspaces, catalog products.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDField(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalog.FindByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var quote *cart.Quote
		if quoteID := strings.TrimSpace(payload.QuoteID); quoteID != "" {
			actor := session.ActorFromContext(r.Context())
			q, err := catalog.FindApprovedQuote(r.Context(), quoteID, actor.UserID, productID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			quote = &q
		}

		useRetailerPrice := true
		if payload.UseRetailerPrice != nil {
			useRetailerPrice = *payload.UseRetailerPrice
		}

		if _, err := engine.AddItem(product, payload.Quantity, quote, useRetailerPrice); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pricedCart(r, engine))
	}
}

// CartUpdateItem sets the quantity of a cart line.
func CartUpdateItem(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := lineKeyFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.UpdateQuantity(key, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricedCart(r, engine))
	}
}

// CartRemoveItem deletes a cart line.
func CartRemoveItem(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := lineKeyFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.RemoveItem(key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricedCart(r, engine))
	}
}

// CartSetWarranty selects the warranty of every line of a product.
func CartSetWarranty(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload warrantyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		choice, err := enums.ParseWarrantyChoice(payload.Warranty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warranty"))
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.SetWarranty(productID, choice); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricedCart(r, engine))
	}
}

func pricedCart(r *http.Request, engine *checkout.Engine) cartResponse {
	return newCartResponse(engine.Cart(), engine.Totals(r.Context()))
}
