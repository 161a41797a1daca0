package cart

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

// Reader is the read-only cart surface consumed by pricing, allocation and validation.
type Reader interface {
	Lines() []Line
	Line(key LineKey) (Line, bool)
	Warranty(productID uuid.UUID) enums.WarrantyChoice
}

// Service exposes the cart of a single session.
type Service interface {
	Reader
	Add(product Product, quantity int, quote *Quote, useRetailerPrice bool) (Line, error)
	UpdateQuantity(key LineKey, quantity int) error
	Remove(key LineKey) error
	SetWarranty(productID uuid.UUID, choice enums.WarrantyChoice) error
	Clear()
}

// Store is the in-memory, order-preserving cart owned by a session.
type Store struct {
	mu       sync.RWMutex
	lines    []Line
	warranty map[uuid.UUID]enums.WarrantyChoice
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{warranty: map[uuid.UUID]enums.WarrantyChoice{}}
}

var _ Service = (*Store)(nil)

// Add appends a line, or increments the quantity of the line sharing its key.
func (s *Store) Add(product Product, quantity int, quote *Quote, useRetailerPrice bool) (Line, error) {
	if product.ID == uuid.Nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if product.BasePrice.IsNegative() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if quote != nil {
		if strings.TrimSpace(quote.ID) == "" {
			return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
		}
		if quote.UnitPrice.IsNegative() {
			return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quoted price cannot be negative")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := KeyFor(product.ID, quote)
	if idx := s.indexOf(key); idx >= 0 {
		s.lines[idx].Quantity += quantity
		s.lines[idx].UseRetailerPrice = useRetailerPrice
		return s.lines[idx].clone(), nil
	}

	line := Line{
		Product:          product,
		Quantity:         quantity,
		Quote:            quote,
		UseRetailerPrice: useRetailerPrice,
	}.clone()
	s.lines = append(s.lines, line)
	return line.clone(), nil
}

// UpdateQuantity replaces the quantity of an existing line.
func (s *Store) UpdateQuantity(key LineKey, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	s.lines[idx].Quantity = quantity
	return nil
}

// Remove deletes a line; the warranty choice is dropped once no line references the product.
func (s *Store) Remove(key LineKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)

	for _, line := range s.lines {
		if line.Product.ID == key.ProductID {
			return nil
		}
	}
	delete(s.warranty, key.ProductID)
	return nil
}

// SetWarranty records the warranty choice for a product in the cart.
func (s *Store) SetWarranty(productID uuid.UUID, choice enums.WarrantyChoice) error {
	if !choice.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid warranty choice")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var product *Product
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			product = &s.lines[i].Product
			break
		}
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	if choice == enums.WarrantyExtended && !product.Warranty.ExtendedAvailable() {
		return pkgerrors.New(pkgerrors.CodeValidation, "extended warranty not offered for product")
	}
	if choice == enums.WarrantyStandard {
		delete(s.warranty, productID)
		return nil
	}
	s.warranty[productID] = choice
	return nil
}

// Warranty returns the chosen warranty for a product, standard when unset.
func (s *Store) Warranty(productID uuid.UUID) enums.WarrantyChoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if choice, ok := s.warranty[productID]; ok {
		return choice
	}
	return enums.WarrantyStandard
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Line, len(s.lines))
	for i, line := range s.lines {
		out[i] = line.clone()
	}
	return out
}

// Line returns a copy of the line identified by key.
func (s *Store) Line(key LineKey) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(key)
	if idx < 0 {
		return Line{}, false
	}
	return s.lines[idx].clone(), true
}

// Clear empties the cart after a successful checkout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.warranty = map[uuid.UUID]enums.WarrantyChoice{}
}

func (s *Store) indexOf(key LineKey) int {
	for i, line := range s.lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

// QuantityOf returns the quantity of the line identified by key, zero when absent.
func QuantityOf(r Reader, key LineKey) int {
	line, ok := r.Line(key)
	if !ok {
		return 0
	}
	return line.Quantity
}

// ProductQuantity sums the quantity of a product across all of its lines.
func ProductQuantity(r Reader, productID uuid.UUID) int {
	total := 0
	for _, line := range r.Lines() {
		if line.Product.ID == productID {
			total += line.Quantity
		}
	}
	return total
}

// Snapshot is an immutable copy of a cart taken at one instant.
type Snapshot struct {
	lines    []Line
	warranty map[uuid.UUID]enums.WarrantyChoice
}

var _ Reader = (*Snapshot)(nil)

// Freeze copies the lines of r and their warranty choices.
func Freeze(r Reader) *Snapshot {
	lines := r.Lines()
	snap := &Snapshot{lines: lines, warranty: make(map[uuid.UUID]enums.WarrantyChoice, len(lines))}
	for _, line := range lines {
		snap.warranty[line.Product.ID] = r.Warranty(line.Product.ID)
	}
	return snap
}

// Lines returns a copy of the frozen lines.
func (s *Snapshot) Lines() []Line {
	out := make([]Line, len(s.lines))
	for i, line := range s.lines {
		out[i] = line.clone()
	}
	return out
}

// Line returns a copy of the frozen line identified by key.
func (s *Snapshot) Line(key LineKey) (Line, bool) {
	for _, line := range s.lines {
		if line.Key() == key {
			return line.clone(), true
		}
	}
	return Line{}, false
}

// Warranty returns the frozen warranty choice, standard when unset.
func (s *Snapshot) Warranty(productID uuid.UUID) enums.WarrantyChoice {
	if choice, ok := s.warranty[productID]; ok {
		return choice
	}
	return enums.WarrantyStandard
}
