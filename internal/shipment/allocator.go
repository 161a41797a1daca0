// Package shipment partitions cart quantities across dropship destinations.
//
// Quantities not assigned to any group ship to the purchaser. Remaining
// quantities are always derived from the live cart, never cached, so a cart
// shrinking underneath existing groups shows up as an over-allocation.
package shipment

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

// Allocator owns the shipment groups of one checkout session.
type Allocator struct {
	mu           sync.RWMutex
	cart         cart.Reader
	pricing      *pricing.Calculator
	postalLength int
	dropship     bool
	groups       []*Group
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithPostalCodeLength sets the digit count required for customer postal codes.
func WithPostalCodeLength(length int) Option {
	return func(a *Allocator) {
		if length > 0 {
			a.postalLength = length
		}
	}
}

// NewAllocator builds an allocator reading quantities from the cart.
func NewAllocator(c cart.Reader, calc *pricing.Calculator, opts ...Option) (*Allocator, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart reader is required")
	}
	if calc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing calculator is required")
	}
	a := &Allocator{
		cart:         c,
		pricing:      calc,
		postalLength: DefaultPostalCodeLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Dropship reports whether dropship mode is on.
func (a *Allocator) Dropship() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dropship
}

// SetMode toggles dropship mode. Turning it off discards every group.
func (a *Allocator) SetMode(dropship bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !dropship {
		a.groups = nil
	}
	a.dropship = dropship
}

// Reset discards every group while keeping the current mode.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.groups = nil
}

// CreateGroup appends an empty group for the customer.
func (a *Allocator) CreateGroup(customer CustomerDetails) (uuid.UUID, error) {
	customer = customer.Normalize()
	if err := ValidateCustomer(customer, a.postalLength); err != nil {
		return uuid.Nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.dropship {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "dropship mode is not enabled")
	}
	group := &Group{ID: uuid.New(), Customer: customer}
	a.groups = append(a.groups, group)
	return group.ID, nil
}

// RemoveGroup deletes a group; its quantities return to the unassigned pool.
func (a *Allocator) RemoveGroup(groupID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, group := range a.groups {
		if group.ID == groupID {
			a.groups = append(a.groups[:i], a.groups[i+1:]...)
			return nil
		}
	}
	return groupNotFound(groupID)
}

// Assign routes quantity units of a cart line to a group, capturing the line's current price.
func (a *Allocator) Assign(groupID uuid.UUID, key cart.LineKey, quantity int, role enums.Role) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeAllocation, "quantity must be positive").WithDetails(map[string]any{
			"product_id": key.ProductID.String(),
			"quantity":   quantity,
		})
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	group := a.group(groupID)
	if group == nil {
		return groupNotFound(groupID)
	}

	line, inCart := a.cart.Line(key)
	remaining := a.remaining(key)
	if !inCart || quantity > remaining {
		return pkgerrors.New(pkgerrors.CodeAllocation, "quantity exceeds unassigned cart quantity").WithDetails(map[string]any{
			"product_id": key.ProductID.String(),
			"quote_id":   key.QuoteID,
			"requested":  quantity,
			"remaining":  remaining,
		})
	}

	for i := range group.Items {
		if group.Items[i].Key() == key {
			group.Items[i].Quantity += quantity
			group.touch()
			return nil
		}
	}

	priced := a.pricing.PriceLine(line, a.cart.Warranty(key.ProductID), role)
	group.Items = append(group.Items, AssignedItem{
		ProductID:         key.ProductID,
		QuoteID:           key.QuoteID,
		Name:              line.Product.Name,
		Quantity:          quantity,
		Tier:              priced.Tier,
		UnitPrice:         priced.UnitPrice,
		WarrantySurcharge: priced.WarrantySurcharge,
		Warranty:          priced.Warranty,
	})
	group.touch()
	return nil
}

// Unassign removes a line from a group entirely.
func (a *Allocator) Unassign(groupID uuid.UUID, key cart.LineKey) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	group := a.group(groupID)
	if group == nil {
		return groupNotFound(groupID)
	}
	for i := range group.Items {
		if group.Items[i].Key() == key {
			group.Items = append(group.Items[:i], group.Items[i+1:]...)
			group.touch()
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not assigned to group").WithDetails(map[string]any{
		"group_id":   groupID.String(),
		"product_id": key.ProductID.String(),
	})
}

// AttachDocument stores a generated document URL, provided the group has not changed since revision.
func (a *Allocator) AttachDocument(groupID uuid.UUID, url string, revision uint64) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "document url is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	group := a.group(groupID)
	if group == nil {
		return groupNotFound(groupID)
	}
	if group.Revision != revision {
		return pkgerrors.New(pkgerrors.CodeConflict, "group changed while the document was generated").WithDetails(map[string]any{
			"group_id": groupID.String(),
		})
	}
	group.DocumentURL = url
	return nil
}

// Group returns a copy of one group.
func (a *Allocator) Group(groupID uuid.UUID) (Group, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	group := a.group(groupID)
	if group == nil {
		return Group{}, groupNotFound(groupID)
	}
	return group.clone(), nil
}

// Groups returns copies of every group in creation order.
func (a *Allocator) Groups() []Group {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Group, len(a.groups))
	for i, group := range a.groups {
		out[i] = group.clone()
	}
	return out
}

// RemainingQuantity is the cart quantity of a line minus what the groups hold, never below zero.
func (a *Allocator) RemainingQuantity(key cart.LineKey) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.remaining(key)
}

// RemainingForProduct sums the remaining quantity across every line of a product.
func (a *Allocator) RemainingForProduct(productID uuid.UUID) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total := 0
	for _, line := range a.cart.Lines() {
		if line.Product.ID == productID {
			total += a.remaining(line.Key())
		}
	}
	return total
}

// Unassigned lists the quantities shipped to the purchaser's own address.
func (a *Allocator) Unassigned() []Remainder {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []Remainder
	for _, line := range a.cart.Lines() {
		if qty := a.remaining(line.Key()); qty > 0 {
			out = append(out, Remainder{Key: line.Key(), Name: line.Product.Name, Quantity: qty})
		}
	}
	return out
}

// OverAllocations lists lines whose assigned quantity exceeds the live cart quantity.
func (a *Allocator) OverAllocations() []OverAllocation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	assigned := a.assignedByKey()
	var out []OverAllocation
	for _, group := range a.groups {
		for _, item := range group.Items {
			key := item.Key()
			total, pending := assigned[key]
			if !pending {
				continue
			}
			delete(assigned, key)
			if cartQty := cart.QuantityOf(a.cart, key); total > cartQty {
				out = append(out, OverAllocation{Key: key, CartQuantity: cartQty, Assigned: total})
			}
		}
	}
	return out
}

func (a *Allocator) remaining(key cart.LineKey) int {
	left := cart.QuantityOf(a.cart, key) - a.assigned(key)
	if left < 0 {
		return 0
	}
	return left
}

func (a *Allocator) assigned(key cart.LineKey) int {
	total := 0
	for _, group := range a.groups {
		for _, item := range group.Items {
			if item.Key() == key {
				total += item.Quantity
			}
		}
	}
	return total
}

func (a *Allocator) assignedByKey() map[cart.LineKey]int {
	out := map[cart.LineKey]int{}
	for _, group := range a.groups {
		for _, item := range group.Items {
			out[item.Key()] += item.Quantity
		}
	}
	return out
}

func (a *Allocator) group(groupID uuid.UUID) *Group {
	for _, group := range a.groups {
		if group.ID == groupID {
			return group
		}
	}
	return nil
}

// touch invalidates the generated document after a composition change.
func (g *Group) touch() {
	g.DocumentURL = ""
	g.Revision++
}

func groupNotFound(groupID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "shipment group not found").WithDetails(map[string]any{
		"group_id": groupID.String(),
	})
}
