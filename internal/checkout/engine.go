// Package checkout gates, assembles and submits orders built from a session's
// cart and shipment groups.
package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/internal/session"
	"github.com/angelmondragon/storefront-checkout/internal/shipment"
	"github.com/angelmondragon/storefront-checkout/pkg/documents"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/ordersapi"
	"github.com/angelmondragon/storefront-checkout/pkg/postal"
)

// PostalLookup resolves postal codes to city and state.
type PostalLookup interface {
	Lookup(ctx context.Context, code string) (postal.Result, error)
}

// DocumentGenerator renders delivery documents.
type DocumentGenerator interface {
	Generate(ctx context.Context, req documents.Request) (string, error)
}

// OrderAPI persists orders and verifies their payments.
type OrderAPI interface {
	CreateOrder(ctx context.Context, idempotencyKey string, body any) (*ordersapi.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, req ordersapi.VerifyRequest) error
}

// PaymentChannel reports whether the hosted payment provider can be opened.
type PaymentChannel interface {
	Enabled() bool
}

// SubmissionLock guards submissions across processes.
type SubmissionLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Metrics records checkout outcomes.
type Metrics interface {
	ObserveGate(reason enums.GateReason)
	ObserveSubmission(result string)
	ObserveDocument(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveGate(enums.GateReason)  {}
func (nopMetrics) ObserveSubmission(string)      {}
func (nopMetrics) ObserveDocument(time.Duration) {}

// Submission results reported to Metrics.
const (
	ResultBlocked          = "blocked"
	ResultRejected         = "rejected"
	ResultSubmitted        = "submitted"
	ResultPaid             = "paid"
	ResultPaymentFailed    = "payment_failed"
	ResultPaymentDismissed = "payment_dismissed"
	ResultFailed           = "failed"
)

// Dependencies wires an Engine. Cart, Sessions and Pricing are required.
type Dependencies struct {
	SessionKey string
	Cart       cart.Service
	Sessions   session.Service
	Pricing    *pricing.Calculator
	Validator  *Validator
	Postal     PostalLookup
	Documents  DocumentGenerator
	Orders     OrderAPI
	Payment    PaymentChannel
	Lock       SubmissionLock
	LockKey    string
	LockTTL    time.Duration
	Metrics    Metrics
	Logger     *logger.Logger
	Currency   string
	// PostalCodeLength is the digit count of valid postal codes.
	PostalCodeLength int
}

// Engine drives one session's checkout.
type Engine struct {
	sessionKey   string
	cart         cart.Service
	sessions     session.Service
	pricing      *pricing.Calculator
	alloc        *shipment.Allocator
	validator    *Validator
	postal       PostalLookup
	documents    DocumentGenerator
	orders       OrderAPI
	payment      PaymentChannel
	lock         SubmissionLock
	lockKey      string
	lockTTL      time.Duration
	metrics      Metrics
	logg         *logger.Logger
	currency     string
	postalLength int
	now          func() time.Time

	// mu guards the submission state and serializes every cart and group
	// change against the start of a submission.
	mu            sync.Mutex
	inFlight      bool
	inFlightUntil time.Time
	lockHeld      bool
	pending       *PendingPayment
}

// NewEngine builds an engine and its shipment allocator.
func NewEngine(deps Dependencies) (*Engine, error) {
	if deps.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service is required")
	}
	if deps.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session service is required")
	}
	if deps.Pricing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing calculator is required")
	}
	if deps.PostalCodeLength <= 0 {
		deps.PostalCodeLength = shipment.DefaultPostalCodeLength
	}
	alloc, err := shipment.NewAllocator(deps.Cart, deps.Pricing, shipment.WithPostalCodeLength(deps.PostalCodeLength))
	if err != nil {
		return nil, err
	}
	if deps.Validator == nil {
		deps.Validator = NewValidator(DefaultQuoteLineThreshold)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if strings.TrimSpace(deps.Currency) == "" {
		deps.Currency = "INR"
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 15 * time.Minute
	}
	if deps.LockKey == "" {
		deps.LockKey = "checkout:" + deps.SessionKey
	}
	return &Engine{
		sessionKey:   deps.SessionKey,
		cart:         deps.Cart,
		sessions:     deps.Sessions,
		pricing:      deps.Pricing,
		alloc:        alloc,
		validator:    deps.Validator,
		postal:       deps.Postal,
		documents:    deps.Documents,
		orders:       deps.Orders,
		payment:      deps.Payment,
		lock:         deps.Lock,
		lockKey:      deps.LockKey,
		lockTTL:      deps.LockTTL,
		metrics:      deps.Metrics,
		logg:         deps.Logger,
		currency:     deps.Currency,
		postalLength: deps.PostalCodeLength,
		now:          time.Now,
	}, nil
}

// Cart exposes the session cart for reading. Changes go through the engine.
func (e *Engine) Cart() cart.Reader {
	return e.cart
}

// Allocator exposes the shipment groups for reading. Changes go through the engine.
func (e *Engine) Allocator() *shipment.Allocator {
	return e.alloc
}

// InFlight reports whether a submission awaits its payment outcome.
func (e *Engine) InFlight() bool {
	e.mu.Lock()
	busy, expiredLock := e.busyLocked()
	e.mu.Unlock()
	e.releaseExpired(expiredLock)
	return busy
}

// busyLocked reports whether a submission is in flight. A submission older
// than the lock TTL is dropped; expiredLock reports whether it held the lock.
// e.mu must be held.
func (e *Engine) busyLocked() (busy, expiredLock bool) {
	if !e.inFlight {
		return false, false
	}
	if e.now().Before(e.inFlightUntil) {
		return true, false
	}
	expiredLock = e.lockHeld
	e.inFlight = false
	e.inFlightUntil = time.Time{}
	e.lockHeld = false
	e.pending = nil
	return false, expiredLock
}

func (e *Engine) releaseExpired(held bool) {
	if !held {
		return
	}
	ctx := e.logger(context.Background())
	e.logg.Warn(ctx, "checkout submission expired without a payment outcome")
	if err := e.lock.Release(ctx, e.lockKey); err != nil {
		e.logg.WarnErr(ctx, "release checkout lock failed", err)
	}
}

// Mutate runs fn unless a submission is in flight. Submit cannot start while
// fn runs, so the gate and the payload never see a half-applied change.
func (e *Engine) Mutate(fn func() error) error {
	e.mu.Lock()
	busy, expiredLock := e.busyLocked()
	if busy {
		e.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "checkout in progress; settle the payment first")
	}
	err := func() error {
		defer e.mu.Unlock()
		return fn()
	}()
	e.releaseExpired(expiredLock)
	return err
}

// AddItem adds units of a product to the cart.
func (e *Engine) AddItem(product cart.Product, quantity int, quote *cart.Quote, useRetailerPrice bool) (cart.Line, error) {
	var line cart.Line
	err := e.Mutate(func() error {
		var err error
		line, err = e.cart.Add(product, quantity, quote, useRetailerPrice)
		return err
	})
	return line, err
}

// UpdateQuantity sets the quantity of a cart line.
func (e *Engine) UpdateQuantity(key cart.LineKey, quantity int) error {
	return e.Mutate(func() error {
		return e.cart.UpdateQuantity(key, quantity)
	})
}

// RemoveItem deletes a cart line.
func (e *Engine) RemoveItem(key cart.LineKey) error {
	return e.Mutate(func() error {
		return e.cart.Remove(key)
	})
}

// SetWarranty selects the warranty of every line of a product.
func (e *Engine) SetWarranty(productID uuid.UUID, choice enums.WarrantyChoice) error {
	return e.Mutate(func() error {
		return e.cart.SetWarranty(productID, choice)
	})
}

// LookupPostal resolves a postal code to its city and state.
func (e *Engine) LookupPostal(ctx context.Context, code string) (postal.Result, error) {
	code = strings.TrimSpace(code)
	if err := shipment.ValidatePostalCode(code, e.postalLength); err != nil {
		return postal.Result{}, err
	}
	if e.postal == nil {
		return postal.Result{}, pkgerrors.New(pkgerrors.CodeDependency, "postal lookup not configured")
	}
	result, err := e.postal.Lookup(ctx, code)
	if err != nil {
		e.logg.WarnErr(e.logger(ctx), "postal lookup failed", err)
		return postal.Result{}, dependencyError(err, "postal lookup failed")
	}
	return result, nil
}

// FillLocality sets city and state from the postal code, replacing whatever
// the client sent. Both stay empty when the lookup fails.
func (e *Engine) FillLocality(ctx context.Context, customer shipment.CustomerDetails) (shipment.CustomerDetails, error) {
	customer = customer.Normalize()
	customer.Address.City = ""
	customer.Address.State = ""
	result, err := e.LookupPostal(ctx, customer.Address.PostalCode)
	if err != nil {
		return customer, err
	}
	customer.Address.City = strings.TrimSpace(result.City)
	customer.Address.State = strings.TrimSpace(result.State)
	return customer, nil
}

// SetDropship toggles dropship mode.
func (e *Engine) SetDropship(on bool) error {
	return e.Mutate(func() error {
		e.alloc.SetMode(on)
		return nil
	})
}

// CreateGroup validates the customer, resolves its locality and appends a shipment group.
func (e *Engine) CreateGroup(ctx context.Context, customer shipment.CustomerDetails) (uuid.UUID, error) {
	customer = customer.Normalize()
	if err := shipment.ValidateCustomer(customer, e.postalLength); err != nil {
		return uuid.Nil, err
	}
	if !e.alloc.Dropship() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "dropship mode is not enabled")
	}
	customer, err := e.FillLocality(ctx, customer)
	if err != nil {
		return uuid.Nil, err
	}
	if customer.Address.City == "" || customer.Address.State == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeDependency, "postal lookup returned no locality")
	}
	var groupID uuid.UUID
	err = e.Mutate(func() error {
		var err error
		groupID, err = e.alloc.CreateGroup(customer)
		return err
	})
	return groupID, err
}

// RemoveGroup deletes a shipment group, returning its units to the purchaser.
func (e *Engine) RemoveGroup(groupID uuid.UUID) error {
	return e.Mutate(func() error {
		return e.alloc.RemoveGroup(groupID)
	})
}

// Assign routes units of a cart line to a group, priced for the acting role.
func (e *Engine) Assign(ctx context.Context, groupID uuid.UUID, key cart.LineKey, quantity int) error {
	role := e.sessions.Actor(ctx).EffectiveRole()
	return e.Mutate(func() error {
		return e.alloc.Assign(groupID, key, quantity, role)
	})
}

// Unassign removes a cart line from a group.
func (e *Engine) Unassign(groupID uuid.UUID, key cart.LineKey) error {
	return e.Mutate(func() error {
		return e.alloc.Unassign(groupID, key)
	})
}

// GenerateDocument renders the delivery document of a group and attaches it if the group did not change meanwhile.
func (e *Engine) GenerateDocument(ctx context.Context, groupID uuid.UUID) (string, error) {
	if e.InFlight() {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "checkout in progress; settle the payment first")
	}
	group, err := e.alloc.Group(groupID)
	if err != nil {
		return "", err
	}
	if group.Empty() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipment group has no items")
	}
	if e.documents == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "document generation not configured")
	}

	req := documents.Request{
		Customer: documents.Customer{
			Name:    group.Customer.Name,
			Email:   group.Customer.Email,
			Phone:   group.Customer.Phone,
			Address: FormatAddress(group.Customer),
		},
		Items: make([]documents.Item, len(group.Items)),
	}
	for i, item := range group.Items {
		req.Items[i] = documents.Item{Name: item.Name, Quantity: item.Quantity}
	}

	started := time.Now()
	url, err := e.documents.Generate(ctx, req)
	e.metrics.ObserveDocument(time.Since(started))
	if err != nil {
		e.logg.WarnErr(e.logger(ctx), "document generation failed", err)
		return "", dependencyError(err, "generate document")
	}
	err = e.Mutate(func() error {
		return e.alloc.AttachDocument(groupID, url, group.Revision)
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// Totals prices the cart for the acting role.
func (e *Engine) Totals(ctx context.Context) pricing.Totals {
	return e.pricing.CartTotals(e.cart, e.sessions.Actor(ctx).EffectiveRole())
}

// Summary is the checkout view of the session.
type Summary struct {
	Totals          pricing.Totals
	Dropship        bool
	Groups          []shipment.Group
	Unassigned      []shipment.Remainder
	OverAllocations []shipment.OverAllocation
	Outcome         Outcome
	InFlight        bool
}

// Summary prices the cart and evaluates the gate for the given purchaser address.
func (e *Engine) Summary(ctx context.Context, address shipment.CustomerDetails) Summary {
	state := e.state(ctx, cart.Freeze(e.cart), address)
	return Summary{
		Totals:          e.pricing.CartTotals(state.Cart, state.Actor.EffectiveRole()),
		Dropship:        state.Dropship,
		Groups:          state.Groups,
		Unassigned:      e.alloc.Unassigned(),
		OverAllocations: state.OverAllocations,
		Outcome:         e.validator.Evaluate(state),
		InFlight:        e.InFlight(),
	}
}

// state gathers what the gate evaluates. The purchaser's city and state of a
// standard order always come from the postal lookup.
func (e *Engine) state(ctx context.Context, snapshot cart.Reader, address shipment.CustomerDetails) State {
	paymentAvailable := e.payment != nil && e.payment.Enabled()
	dropship := e.alloc.Dropship()
	address = address.Normalize()
	if !dropship {
		// A failed lookup leaves city and state empty, which the gate reports as an incomplete address.
		address, _ = e.FillLocality(ctx, address)
	}
	return State{
		Actor:            e.sessions.Actor(ctx),
		Cart:             snapshot,
		Dropship:         dropship,
		Address:          address,
		Groups:           e.alloc.Groups(),
		OverAllocations:  e.alloc.OverAllocations(),
		PaymentAvailable: paymentAvailable,
	}
}

// PendingPayment is an order awaiting its hosted payment.
type PendingPayment struct {
	SubmissionID string
	OrderHandle  string
	PaymentOrder ordersapi.PaymentOrder
	Payload      OrderPayload
}

// Submit gates the checkout, builds the payload and creates the order. Only one
// submission may be in flight; it stays in flight until ConfirmPayment settles
// it or the lock TTL passes. Cart and group changes are rejected meanwhile.
func (e *Engine) Submit(ctx context.Context, address shipment.CustomerDetails) (*PendingPayment, error) {
	e.mu.Lock()
	busy, expiredLock := e.busyLocked()
	if busy {
		e.mu.Unlock()
		e.metrics.ObserveSubmission(ResultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	e.inFlight = true
	e.inFlightUntil = e.now().Add(e.lockTTL)
	e.mu.Unlock()
	e.releaseExpired(expiredLock)

	pending, err := e.submit(ctx, address)
	if err != nil {
		e.settle(ctx)
		return nil, err
	}

	e.mu.Lock()
	e.pending = pending
	e.mu.Unlock()

	e.metrics.ObserveSubmission(ResultSubmitted)
	e.logg.Info(e.logg.WithOrderHandle(e.logger(ctx), pending.OrderHandle), "order submitted")
	return pending, nil
}

func (e *Engine) submit(ctx context.Context, address shipment.CustomerDetails) (*PendingPayment, error) {
	if e.lock != nil {
		acquired, err := e.lock.Acquire(ctx, e.lockKey, e.lockTTL)
		if err != nil {
			e.metrics.ObserveSubmission(ResultFailed)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
		}
		if !acquired {
			e.metrics.ObserveSubmission(ResultRejected)
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
		}
		e.mu.Lock()
		e.lockHeld = true
		e.mu.Unlock()
	}

	// One snapshot feeds both the gate and the payload.
	state := e.state(ctx, cart.Freeze(e.cart), address)
	outcome := e.validator.Evaluate(state)
	e.metrics.ObserveGate(outcome.Reason)
	if err := outcome.Err(); err != nil {
		e.metrics.ObserveSubmission(ResultBlocked)
		e.logg.Info(e.logg.WithField(e.logger(ctx), "gate_reason", string(outcome.Reason)), "checkout blocked")
		return nil, err
	}

	payload, err := BuildPayload(PayloadInput{
		Cart:     state.Cart,
		Pricing:  e.pricing,
		Role:     state.Actor.EffectiveRole(),
		Dropship: state.Dropship,
		Address:  state.Address,
		Groups:   state.Groups,
		Currency: e.currency,
	})
	if err != nil {
		e.metrics.ObserveSubmission(ResultFailed)
		e.logg.Error(e.logger(ctx), "order payload rejected", err)
		return nil, err
	}

	if e.orders == nil {
		e.metrics.ObserveSubmission(ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order api not configured")
	}
	submissionID := uuid.NewString()
	resp, err := e.orders.CreateOrder(ctx, submissionID, payload)
	if err != nil {
		e.metrics.ObserveSubmission(ResultFailed)
		e.logg.Error(e.logger(ctx), "order submission failed", err)
		return nil, dependencyError(err, "submit order")
	}
	if resp == nil || resp.PaymentOrder == nil {
		e.metrics.ObserveSubmission(ResultFailed)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order api returned no payment order")
	}

	return &PendingPayment{
		SubmissionID: submissionID,
		OrderHandle:  resp.OrderHandle,
		PaymentOrder: *resp.PaymentOrder,
		Payload:      payload,
	}, nil
}

// PaymentResult is the provider callback of a hosted checkout.
type PaymentResult struct {
	Outcome   enums.PaymentOutcome
	PaymentID string
	Signature string
	Reason    string
}

// Confirmation is the settled state of a paid order.
type Confirmation struct {
	OrderHandle string
	PaymentID   string
}

// ConfirmPayment settles the in-flight submission. A successful payment is
// verified with the order API before the cart and groups are cleared; any
// other outcome releases the submission and leaves the cart untouched. The
// pending payment is taken once, so a repeated callback finds nothing to settle.
func (e *Engine) ConfirmPayment(ctx context.Context, result PaymentResult) (*Confirmation, error) {
	if !result.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment outcome")
	}
	if result.Outcome == enums.PaymentSucceeded && (strings.TrimSpace(result.PaymentID) == "" || strings.TrimSpace(result.Signature) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id and signature are required")
	}

	e.mu.Lock()
	busy, expiredLock := e.busyLocked()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	e.releaseExpired(expiredLock)
	if !busy || pending == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no payment pending")
	}
	ctx = e.logg.WithOrderHandle(e.logger(ctx), pending.OrderHandle)

	switch result.Outcome {
	case enums.PaymentDismissed:
		e.settle(ctx)
		e.metrics.ObserveSubmission(ResultPaymentDismissed)
		e.logg.Info(ctx, "payment dismissed")
		return nil, nil
	case enums.PaymentFailed:
		e.settle(ctx)
		e.metrics.ObserveSubmission(ResultPaymentFailed)
		err := pkgerrors.New(pkgerrors.CodeDependency, "payment failed").WithDetails(map[string]any{
			"reason": result.Reason,
		})
		e.logg.WarnErr(ctx, "payment failed", err)
		return nil, err
	}

	err := e.orders.VerifyPayment(ctx, ordersapi.VerifyRequest{
		OrderHandle: pending.OrderHandle,
		PaymentID:   result.PaymentID,
		Signature:   result.Signature,
	})
	if err != nil {
		e.settle(ctx)
		e.metrics.ObserveSubmission(ResultPaymentFailed)
		e.logg.Error(ctx, "payment verification failed", err)
		return nil, dependencyError(err, "verify payment")
	}

	e.cart.Clear()
	e.alloc.SetMode(false)
	e.settle(ctx)
	e.metrics.ObserveSubmission(ResultPaid)
	e.logg.Info(ctx, "order paid")
	return &Confirmation{OrderHandle: pending.OrderHandle, PaymentID: result.PaymentID}, nil
}

// settle clears the in-flight flag and releases the distributed lock.
func (e *Engine) settle(ctx context.Context) {
	e.mu.Lock()
	held := e.lockHeld
	e.inFlight = false
	e.inFlightUntil = time.Time{}
	e.lockHeld = false
	e.pending = nil
	e.mu.Unlock()

	if held {
		if err := e.lock.Release(context.WithoutCancel(ctx), e.lockKey); err != nil {
			e.logg.WarnErr(ctx, "release checkout lock failed", err)
		}
	}
}

func (e *Engine) logger(ctx context.Context) context.Context {
	if e.sessionKey == "" {
		return ctx
	}
	return e.logg.WithSessionID(ctx, e.sessionKey)
}

// dependencyError keeps typed collaborator errors and wraps untyped ones as CodeDependency.
func dependencyError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
