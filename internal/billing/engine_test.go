package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/internal/subscriptions"
	"github.com/gits-cloud/billing/internal/usage"
)

type fakeSubs struct {
	subs []subscriptions.Subscription
}

func (f *fakeSubs) ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]subscriptions.Subscription, error) {
	return f.subs, nil
}

type fakeUsage struct {
	records map[int64][]usage.Record
}

func (f *fakeUsage) GetForPeriod(ctx context.Context, subscriptionID int64, periodStart, periodEnd time.Time) ([]usage.Record, error) {
	return f.records[subscriptionID], nil
}

var (
	periodStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	fxRate      = decimal.NewFromInt(16000)
	taxRate     = decimal.RequireFromString("0.11")
)

func product(id int64, name string, pt masterdata.PricingType, price string) *masterdata.Product {
	return &masterdata.Product{ID: id, Name: name, PricingType: pt, PriceUsd: decimal.RequireFromString(price), Active: true}
}

func TestComputeProrate(t *testing.T) {
	subs := &fakeSubs{subs: []subscriptions.Subscription{
		{ID: 1, ClientID: 10, Product: product(1, "GWS Flexible", masterdata.PricingProrate, "7.0")},
	}}

	var records []usage.Record
	for i := 0; i < 5; i++ {
		records = append(records, usage.Record{Quantity: decimal.NewFromInt(70)})
	}
	for i := 0; i < 7; i++ {
		records = append(records, usage.Record{Quantity: decimal.NewFromInt(65)})
	}
	engine := NewEngine(subs, &fakeUsage{records: map[int64][]usage.Record{1: records}})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, fxRate, taxRate)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	require.Equal(t, "187.84", line.AmountUsd.StringFixed(2))
	require.True(t, line.QuantityTotal.Equal(decimal.NewFromInt(5*70+7*65)))
}

func TestComputePercentage(t *testing.T) {
	subs := &fakeSubs{subs: []subscriptions.Subscription{
		{ID: 1, ClientID: 10, Product: product(1, "Fixed Tool", masterdata.PricingFixed, "100.0")},
		{ID: 2, ClientID: 10, Product: product(2, "Mgmt Fee", masterdata.PricingPercentage, "0.10")},
	}}
	engine := NewEngine(subs, &fakeUsage{})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, fxRate, taxRate)
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)

	require.Equal(t, masterdata.PricingFixed, result.Lines[0].PricingType)
	require.Equal(t, "100.00", result.Lines[0].AmountUsd.StringFixed(2))
	require.Equal(t, masterdata.PricingPercentage, result.Lines[1].PricingType)
	require.Equal(t, "10.00", result.Lines[1].AmountUsd.StringFixed(2))

	require.Equal(t, "110.00", result.SubtotalUsd.StringFixed(2))
	require.Equal(t, int64(1760000), result.SubtotalIdr)
	require.Equal(t, int64(193600), result.TaxAmountIdr)
	require.Equal(t, int64(1953600), result.TotalIdr)
}

func TestComputePercentageExcludesOtherPercentageLines(t *testing.T) {
	subs := &fakeSubs{subs: []subscriptions.Subscription{
		{ID: 1, ClientID: 10, Product: product(1, "Base", masterdata.PricingFixed, "200")},
		{ID: 2, ClientID: 10, Product: product(2, "Fee A", masterdata.PricingPercentage, "0.10")},
		{ID: 3, ClientID: 10, Product: product(3, "Fee B", masterdata.PricingPercentage, "0.05")},
	}}
	engine := NewEngine(subs, &fakeUsage{})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, fxRate, taxRate)
	require.NoError(t, err)
	require.Len(t, result.Lines, 3)

	// Both fees apply to the 200 base only, never to each other.
	require.Equal(t, "20.00", result.Lines[1].AmountUsd.StringFixed(2))
	require.Equal(t, "10.00", result.Lines[2].AmountUsd.StringFixed(2))
}

func TestComputeFixedQuantity(t *testing.T) {
	subs := &fakeSubs{subs: []subscriptions.Subscription{
		{ID: 1, ClientID: 10, Quantity: 3, Product: product(1, "Seats", masterdata.PricingFixed, "12.50")},
	}}
	engine := NewEngine(subs, &fakeUsage{})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, fxRate, taxRate)
	require.NoError(t, err)
	require.Equal(t, "37.50", result.Lines[0].AmountUsd.StringFixed(2))
	require.True(t, result.Lines[0].QuantityTotal.Equal(decimal.NewFromInt(3)))
}

func TestComputeEmptyClient(t *testing.T) {
	engine := NewEngine(&fakeSubs{}, &fakeUsage{})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, fxRate, taxRate)
	require.NoError(t, err)
	require.Empty(t, result.Lines)
	require.True(t, result.SubtotalUsd.IsZero())
	require.Zero(t, result.SubtotalIdr)
	require.Zero(t, result.TaxAmountIdr)
	require.Zero(t, result.TotalIdr)
}

func TestComputeUnknownPricingTypeAborts(t *testing.T) {
	subs := &fakeSubs{subs: []subscriptions.Subscription{
		{ID: 1, ClientID: 10, Product: product(1, "Known", masterdata.PricingFixed, "100")},
		{ID: 2, ClientID: 10, Product: &masterdata.Product{ID: 2, Name: "Mystery", PricingType: "TIERED", PriceUsd: decimal.NewFromInt(1)}},
	}}
	engine := NewEngine(subs, &fakeUsage{})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, fxRate, taxRate)
	require.Error(t, err)
	require.ErrorIs(t, err, shared.ErrUnknownPricingType)
	require.Nil(t, result)
}

func TestTotalsInvariant(t *testing.T) {
	subs := &fakeSubs{subs: []subscriptions.Subscription{
		{ID: 1, ClientID: 10, Product: product(1, "A", masterdata.PricingFixed, "10.37")},
		{ID: 2, ClientID: 10, Product: product(2, "B", masterdata.PricingFixed, "0.01")},
		{ID: 3, ClientID: 10, Product: product(3, "Fee", masterdata.PricingPercentage, "0.025")},
	}}
	engine := NewEngine(subs, &fakeUsage{})

	result, err := engine.ComputeForClientPeriod(context.Background(), 10, periodStart, periodEnd, decimal.RequireFromString("16234.56"), taxRate)
	require.NoError(t, err)

	var sumIdr int64
	for _, line := range result.Lines {
		sumIdr += line.AmountIdr
	}
	require.Equal(t, sumIdr, result.SubtotalIdr)
	require.Equal(t, result.SubtotalIdr+result.TaxAmountIdr, result.TotalIdr)
}
