package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
)

type fakeRepo struct {
	subs   map[int64]Subscription
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: map[int64]Subscription{}}
}

func (f *fakeRepo) Create(ctx context.Context, input Input) (*Subscription, error) {
	f.nextID++
	status := input.Status
	if status == "" {
		status = StatusActive
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	sub := Subscription{
		ID:        f.nextID,
		ClientID:  input.ClientID,
		ProductID: input.ProductID,
		Quantity:  quantity,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    status,
	}
	f.subs[sub.ID] = sub
	return &sub, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, input Input) (*Subscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	sub.Quantity = input.Quantity
	sub.StartDate = input.StartDate
	sub.EndDate = input.EndDate
	sub.Status = input.Status
	f.subs[id] = sub
	return &sub, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (*Subscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sub, nil
}

func (f *fakeRepo) ListByClient(ctx context.Context, clientID int64) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range f.subs {
		if sub.ClientID == clientID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range f.subs {
		if sub.ClientID != clientID || sub.Status != StatusActive {
			continue
		}
		if sub.StartDate.After(periodEnd) {
			continue
		}
		if sub.EndDate != nil && sub.EndDate.Before(periodStart) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.subs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.subs, id)
	return nil
}

type fakeMasterdata struct {
	clients  map[int64]masterdata.Client
	products map[int64]masterdata.Product
}

func newFakeMasterdata() *fakeMasterdata {
	return &fakeMasterdata{
		clients: map[int64]masterdata.Client{
			10: {ID: 10, Name: "PT Contoso"},
		},
		products: map[int64]masterdata.Product{
			1: {ID: 1, Name: "Seats", PricingType: masterdata.PricingFixed, PriceUsd: decimal.NewFromInt(12), Active: true},
		},
	}
}

func (f *fakeMasterdata) CreateClient(ctx context.Context, input masterdata.ClientInput) (*masterdata.Client, error) {
	panic("not used")
}

func (f *fakeMasterdata) UpdateClient(ctx context.Context, id int64, input masterdata.ClientInput) (*masterdata.Client, error) {
	panic("not used")
}

func (f *fakeMasterdata) GetClient(ctx context.Context, id int64) (*masterdata.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (f *fakeMasterdata) ListClients(ctx context.Context) ([]masterdata.Client, error) {
	return nil, nil
}

func (f *fakeMasterdata) CreateProduct(ctx context.Context, input masterdata.ProductInput) (*masterdata.Product, error) {
	panic("not used")
}

func (f *fakeMasterdata) UpdateProduct(ctx context.Context, id int64, input masterdata.ProductInput) (*masterdata.Product, error) {
	panic("not used")
}

func (f *fakeMasterdata) GetProduct(ctx context.Context, id int64) (*masterdata.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (f *fakeMasterdata) ListProducts(ctx context.Context, activeOnly bool) ([]masterdata.Product, error) {
	return nil, nil
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestCreateVerifiesClientAndProduct(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeMasterdata())
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{ClientID: 99, ProductID: 1, StartDate: date("2025-01-01")})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, Input{ClientID: 10, ProductID: 99, StartDate: date("2025-01-01")})
	require.ErrorIs(t, err, shared.ErrNotFound)

	sub, err := svc.Create(ctx, Input{ClientID: 10, ProductID: 1, StartDate: date("2025-01-01")})
	require.NoError(t, err)
	require.Equal(t, StatusActive, sub.Status)
	require.Equal(t, int64(1), sub.Quantity)
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeMasterdata())
	end := date("2024-12-01")

	_, err := svc.Create(context.Background(), Input{ClientID: 10, ProductID: 1, StartDate: date("2025-01-01"), EndDate: &end})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateKeepsExistingFieldsWhenOmitted(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeMasterdata())
	ctx := context.Background()

	sub, err := svc.Create(ctx, Input{ClientID: 10, ProductID: 1, Quantity: 5, StartDate: date("2025-01-01")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, sub.ID, Input{ClientID: 10, ProductID: 1})
	require.NoError(t, err)
	require.Equal(t, int64(5), updated.Quantity)
	require.Equal(t, StatusActive, updated.Status)
	require.Equal(t, sub.StartDate, updated.StartDate)
}

func TestUpdateMissingSubscription(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeMasterdata())

	_, err := svc.Update(context.Background(), 404, Input{ClientID: 10, ProductID: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
