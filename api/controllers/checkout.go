package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-checkout/api/responses"
	"github.com/angelmondragon/storefront-checkout/api/validators"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/shipment"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

// CheckoutSetDropship toggles dropship mode. Turning it off discards every group.
func CheckoutSetDropship(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload dropshipRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.SetDropship(payload.Enabled); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"dropship": engine.Allocator().Dropship()})
	}
}

// CheckoutCreateGroup adds a shipment group for a dropship customer.
func CheckoutCreateGroup(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := engine.CreateGroup(r.Context(), payload.Customer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := engine.Allocator().Group(groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newGroupResponse(group))
	}
}

// CheckoutRemoveGroup deletes a shipment group, returning its units to the purchaser.
func CheckoutRemoveGroup(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.ParseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.RemoveGroup(groupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CheckoutAssign routes units of a cart line to a group.
func CheckoutAssign(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.ParseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload assignRequest
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
		key := cart.LineKey{ProductID: productID, QuoteID: strings.TrimSpace(payload.QuoteID)}
		if err := engine.Assign(r.Context(), groupID, key, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := engine.Allocator().Group(groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"group":     newGroupResponse(group),
			"remaining": engine.Allocator().RemainingQuantity(key),
		})
	}
}

// CheckoutUnassign removes a cart line from a group.
func CheckoutUnassign(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.ParseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
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
		if err := engine.Unassign(groupID, key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := engine.Allocator().Group(groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newGroupResponse(group))
	}
}

// CheckoutGenerateDocument renders and attaches the delivery document of a group.
func CheckoutGenerateDocument(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.ParseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		url, err := engine.GenerateDocument(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"group_id": groupID.String(), "document_url": url})
	}
}

// CheckoutSummary prices the cart, lists the groups and evaluates the gate. The
// purchaser address of standard orders is read from query parameters.
func CheckoutSummary(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary := engine.Summary(r.Context(), addressFromQuery(r))
		responses.WriteSuccess(w, newSummaryResponse(engine.Cart(), summary))
	}
}

// CheckoutSubmit gates the checkout and creates the order awaiting payment.
func CheckoutSubmit(ws Workspaces, paymentKeyID string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pending, err := engine.Submit(r.Context(), payload.Address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPendingPaymentResponse(pending, paymentKeyID))
	}
}

// CheckoutConfirm settles the pending payment with the provider's outcome.
func CheckoutConfirm(ws Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := engineFor(r, ws)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmation, err := engine.ConfirmPayment(r.Context(), checkout.PaymentResult{
			Outcome:   enums.PaymentOutcome(payload.Outcome),
			PaymentID: strings.TrimSpace(payload.PaymentID),
			Signature: strings.TrimSpace(payload.Signature),
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if confirmation == nil {
			responses.WriteSuccess(w, map[string]string{"status": string(enums.PaymentDismissed)})
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"status":       "paid",
			"order_handle": confirmation.OrderHandle,
			"payment_id":   confirmation.PaymentID,
		})
	}
}

func addressFromQuery(r *http.Request) shipment.CustomerDetails {
	q := r.URL.Query()
	return shipment.CustomerDetails{
		Name:  q.Get("name"),
		Email: q.Get("email"),
		Phone: q.Get("phone"),
		Address: shipment.Address{
			Line:       q.Get("line"),
			Landmark:   q.Get("landmark"),
			City:       q.Get("city"),
			State:      q.Get("state"),
			PostalCode: q.Get("postal_code"),
		},
	}
}
