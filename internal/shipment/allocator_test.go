package shipment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

func validCustomer() CustomerDetails {
	return CustomerDetails{
		Name:  "Asha Rao",
		Email: "asha@example.com",
		Phone: "9876543210",
		Address: Address{
			Line:       "12 MG Road",
			PostalCode: "560001",
		},
	}
}

func newFixture(t *testing.T, qty int) (*cart.Store, *Allocator, cart.LineKey) {
	t.Helper()

	store := cart.NewStore()
	product := cart.Product{ID: uuid.New(), Name: "Product B", BasePrice: decimal.NewFromInt(250)}
	line, err := store.Add(product, qty, nil, false)
	require.NoError(t, err)

	alloc, err := NewAllocator(store, pricing.NewCalculator())
	require.NoError(t, err)
	alloc.SetMode(true)
	return store, alloc, line.Key()
}

func TestNewAllocatorRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewAllocator(nil, pricing.NewCalculator())
	require.Error(t, err)
	_, err = NewAllocator(cart.NewStore(), nil)
	require.Error(t, err)
}

func TestCreateGroupValidatesCustomer(t *testing.T) {
	t.Parallel()

	_, alloc, _ := newFixture(t, 1)

	tests := []struct {
		name   string
		mutate func(*CustomerDetails)
		field  string
	}{
		{name: "missing name", mutate: func(c *CustomerDetails) { c.Name = "  " }, field: "name"},
		{name: "bad email", mutate: func(c *CustomerDetails) { c.Email = "nope" }, field: "email"},
		{name: "missing address line", mutate: func(c *CustomerDetails) { c.Address.Line = "" }, field: "address.line"},
		{name: "short postal code", mutate: func(c *CustomerDetails) { c.Address.PostalCode = "5600" }, field: "address.postal_code"},
		{name: "decimal postal code", mutate: func(c *CustomerDetails) { c.Address.PostalCode = "56.001" }, field: "address.postal_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer := validCustomer()
			tt.mutate(&customer)

			_, err := alloc.CreateGroup(customer)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			details, ok := typed.Details().(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.field)
		})
	}
	assert.Empty(t, alloc.Groups())
}

func TestCreateGroupRequiresDropshipMode(t *testing.T) {
	t.Parallel()

	_, alloc, _ := newFixture(t, 1)
	alloc.SetMode(false)

	_, err := alloc.CreateGroup(validCustomer())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestAssignTracksRemainingQuantity(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 3)
	groupID, err := alloc.CreateGroup(validCustomer())
	require.NoError(t, err)

	require.NoError(t, alloc.Assign(groupID, key, 2, enums.RoleUser))
	assert.Equal(t, 1, alloc.RemainingQuantity(key))
	assert.Equal(t, 1, alloc.RemainingForProduct(key.ProductID))

	require.Len(t, alloc.Unassigned(), 1)
	assert.Equal(t, 1, alloc.Unassigned()[0].Quantity)

	group, err := alloc.Group(groupID)
	require.NoError(t, err)
	require.Len(t, group.Items, 1)
	assert.Equal(t, "250", group.Items[0].UnitPrice.String())
	assert.Equal(t, enums.PriceTierBase, group.Items[0].Tier)
}

func TestAssignRejectsInvalidQuantities(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 3)
	groupID, err := alloc.CreateGroup(validCustomer())
	require.NoError(t, err)

	assert.True(t, pkgerrors.HasCode(alloc.Assign(groupID, key, 0, enums.RoleUser), pkgerrors.CodeAllocation))
	assert.True(t, pkgerrors.HasCode(alloc.Assign(groupID, key, 4, enums.RoleUser), pkgerrors.CodeAllocation))
	assert.True(t, pkgerrors.HasCode(alloc.Assign(groupID, cart.LineKey{ProductID: uuid.New()}, 1, enums.RoleUser), pkgerrors.CodeAllocation))
	assert.True(t, pkgerrors.HasCode(alloc.Assign(uuid.New(), key, 1, enums.RoleUser), pkgerrors.CodeNotFound))

	group, err := alloc.Group(groupID)
	require.NoError(t, err)
	assert.True(t, group.Empty(), "failed assignments must not mutate state")
	assert.Equal(t, 3, alloc.RemainingQuantity(key))
}

func TestAssignMergesAcrossCallsAndGroupsNeverExceedCart(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 5)
	first, _ := alloc.CreateGroup(validCustomer())
	second, _ := alloc.CreateGroup(validCustomer())

	require.NoError(t, alloc.Assign(first, key, 2, enums.RoleUser))
	require.NoError(t, alloc.Assign(first, key, 1, enums.RoleUser))
	require.NoError(t, alloc.Assign(second, key, 2, enums.RoleUser))
	assert.Error(t, alloc.Assign(second, key, 1, enums.RoleUser))

	group, _ := alloc.Group(first)
	require.Len(t, group.Items, 1)
	assert.Equal(t, 3, group.Items[0].Quantity)
	assert.Equal(t, 0, alloc.RemainingQuantity(key))
}

func TestAssignUnassignRoundTrip(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 4)
	groupID, _ := alloc.CreateGroup(validCustomer())
	require.NoError(t, alloc.Assign(groupID, key, 1, enums.RoleUser))

	before := alloc.RemainingQuantity(key)
	require.NoError(t, alloc.Assign(groupID, cart.LineKey{ProductID: key.ProductID}, 2, enums.RoleUser))
	require.NoError(t, alloc.Unassign(groupID, key))

	// Unassign drops the whole item, including the unit assigned first.
	assert.Equal(t, before+1, alloc.RemainingQuantity(key))

	require.NoError(t, alloc.Assign(groupID, key, 2, enums.RoleUser))
	require.NoError(t, alloc.Unassign(groupID, key))
	assert.Equal(t, 4, alloc.RemainingQuantity(key))

	assert.True(t, pkgerrors.HasCode(alloc.Unassign(groupID, key), pkgerrors.CodeNotFound))
}

func TestCompositionChangeClearsDocument(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 3)
	groupID, _ := alloc.CreateGroup(validCustomer())
	require.NoError(t, alloc.Assign(groupID, key, 1, enums.RoleUser))

	group, _ := alloc.Group(groupID)
	require.NoError(t, alloc.AttachDocument(groupID, "https://docs.example.com/1.pdf", group.Revision))
	group, _ = alloc.Group(groupID)
	assert.Equal(t, "https://docs.example.com/1.pdf", group.DocumentURL)

	require.NoError(t, alloc.Assign(groupID, key, 1, enums.RoleUser))
	group, _ = alloc.Group(groupID)
	assert.Empty(t, group.DocumentURL)

	require.NoError(t, alloc.AttachDocument(groupID, "https://docs.example.com/2.pdf", group.Revision))
	require.NoError(t, alloc.Unassign(groupID, key))
	group, _ = alloc.Group(groupID)
	assert.Empty(t, group.DocumentURL)
}

func TestAttachDocumentRejectsStaleRevision(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 3)
	groupID, _ := alloc.CreateGroup(validCustomer())
	require.NoError(t, alloc.Assign(groupID, key, 1, enums.RoleUser))
	snapshot, _ := alloc.Group(groupID)

	require.NoError(t, alloc.Assign(groupID, key, 1, enums.RoleUser))

	err := alloc.AttachDocument(groupID, "https://docs.example.com/stale.pdf", snapshot.Revision)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	group, _ := alloc.Group(groupID)
	assert.Empty(t, group.DocumentURL)

	assert.True(t, pkgerrors.HasCode(alloc.AttachDocument(groupID, " ", group.Revision), pkgerrors.CodeValidation))
}

func TestShrinkingCartSurfacesOverAllocation(t *testing.T) {
	t.Parallel()

	store, alloc, key := newFixture(t, 3)
	groupID, _ := alloc.CreateGroup(validCustomer())
	require.NoError(t, alloc.Assign(groupID, key, 2, enums.RoleUser))
	assert.Empty(t, alloc.OverAllocations())

	require.NoError(t, store.UpdateQuantity(key, 1))

	over := alloc.OverAllocations()
	require.Len(t, over, 1)
	assert.Equal(t, key, over[0].Key)
	assert.Equal(t, 1, over[0].CartQuantity)
	assert.Equal(t, 2, over[0].Assigned)
	assert.Equal(t, 0, alloc.RemainingQuantity(key))

	group, _ := alloc.Group(groupID)
	assert.Equal(t, 2, group.Quantity(), "allocations are never clamped silently")
}

func TestRemoveGroupAndModeToggle(t *testing.T) {
	t.Parallel()

	_, alloc, key := newFixture(t, 3)
	groupID, _ := alloc.CreateGroup(validCustomer())
	require.NoError(t, alloc.Assign(groupID, key, 3, enums.RoleUser))

	require.NoError(t, alloc.RemoveGroup(groupID))
	assert.Equal(t, 3, alloc.RemainingQuantity(key))
	assert.True(t, pkgerrors.HasCode(alloc.RemoveGroup(groupID), pkgerrors.CodeNotFound))

	_, _ = alloc.CreateGroup(validCustomer())
	alloc.SetMode(false)
	assert.False(t, alloc.Dropship())
	assert.Empty(t, alloc.Groups())

	alloc.SetMode(true)
	assert.Empty(t, alloc.Groups())
}

func TestAssignCapturesPriceSnapshot(t *testing.T) {
	t.Parallel()

	store := cart.NewStore()
	extended := decimal.NewFromInt(40)
	retail := decimal.NewFromInt(90)
	product := cart.Product{
		ID:            uuid.New(),
		Name:          "Modem",
		BasePrice:     decimal.NewFromInt(120),
		RetailerPrice: &retail,
		Warranty:      cart.Warranty{ExtendedPeriod: "2y", ExtendedPrice: &extended},
	}
	line, err := store.Add(product, 2, nil, true)
	require.NoError(t, err)
	require.NoError(t, store.SetWarranty(product.ID, enums.WarrantyExtended))

	alloc, err := NewAllocator(store, pricing.NewCalculator())
	require.NoError(t, err)
	alloc.SetMode(true)
	groupID, _ := alloc.CreateGroup(validCustomer())
	require.NoError(t, alloc.Assign(groupID, line.Key(), 1, enums.RoleRetailer))

	require.NoError(t, store.SetWarranty(product.ID, enums.WarrantyStandard))

	group, _ := alloc.Group(groupID)
	item := group.Items[0]
	assert.Equal(t, enums.PriceTierRetailer, item.Tier)
	assert.True(t, item.UnitPrice.Equal(retail))
	assert.True(t, item.WarrantySurcharge.Equal(extended))
	assert.Equal(t, enums.WarrantyExtended, item.Warranty)
}

func TestValidatePostalCode(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePostalCode("110001", 6))
	assert.Error(t, ValidatePostalCode("11000", 6))
	assert.Error(t, ValidatePostalCode("11000a", 6))
	assert.NoError(t, ValidatePostalCode("94105", 5))
}
