package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/money"
	"github.com/gits-cloud/billing/internal/shared"
	"github.com/gits-cloud/billing/internal/subscriptions"
	"github.com/gits-cloud/billing/internal/usage"
)

// A PRORATE product's monthly price is converted to a daily rate over a
// constant 30-day month, regardless of the calendar length of the period.
var daysPerMonth = decimal.NewFromInt(30)

// SubscriptionSource lists the subscriptions a billing run charges for.
type SubscriptionSource interface {
	ListActiveOverlapping(ctx context.Context, clientID int64, periodStart, periodEnd time.Time) ([]subscriptions.Subscription, error)
}

// UsageSource supplies the daily usage rows for PRORATE lines.
type UsageSource interface {
	GetForPeriod(ctx context.Context, subscriptionID int64, periodStart, periodEnd time.Time) ([]usage.Record, error)
}

// Engine computes billing lines and totals for a client and closed period.
type Engine struct {
	subs  SubscriptionSource
	usage UsageSource
}

// NewEngine builds an Engine instance.
func NewEngine(subs SubscriptionSource, usageSrc UsageSource) *Engine {
	return &Engine{subs: subs, usage: usageSrc}
}

// ComputeForClientPeriod evaluates every active subscription overlapping the
// period and produces lines plus totals in USD and IDR.
//
// Non-percentage lines are evaluated first; percentage lines are computed
// against the subtotal of those lines only, so percentage fees never compound
// on each other. USD amounts are ceiling-rounded to cents per line, and the
// rounded USD value is what gets converted to IDR. An unknown pricing type
// aborts the whole run: silently skipping a subscription would produce a
// wrong bill, not a degraded one.
func (e *Engine) ComputeForClientPeriod(ctx context.Context, clientID int64, periodStart, periodEnd time.Time, fxRateUsdToIdr, taxRate decimal.Decimal) (*CalculationResult, error) {
	subs, err := e.subs.ListActiveOverlapping(ctx, clientID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	var standard, percentage []subscriptions.Subscription
	for _, sub := range subs {
		if sub.Product == nil {
			return nil, shared.ValidationError("subscription %d has no product", sub.ID)
		}
		if !sub.Product.PricingType.Valid() {
			return nil, fmt.Errorf("%w: %q on subscription %d", shared.ErrUnknownPricingType, sub.Product.PricingType, sub.ID)
		}
		if sub.Product.PricingType == masterdata.PricingPercentage {
			percentage = append(percentage, sub)
		} else {
			standard = append(standard, sub)
		}
	}

	lines := make([]Line, 0, len(subs))
	subtotalUsdAccumulator := decimal.Zero

	for _, sub := range standard {
		var amountUsd, quantityTotal decimal.Decimal

		switch sub.Product.PricingType {
		case masterdata.PricingFixed:
			amountUsd, quantityTotal = evaluateFixed(sub)
		case masterdata.PricingProrate:
			records, err := e.usage.GetForPeriod(ctx, sub.ID, periodStart, periodEnd)
			if err != nil {
				return nil, fmt.Errorf("get usage for subscription %d: %w", sub.ID, err)
			}
			amountUsd, quantityTotal = evaluateProrate(sub, records)
		}

		subtotalUsdAccumulator = subtotalUsdAccumulator.Add(amountUsd)
		lines = append(lines, Line{
			SubscriptionID: sub.ID,
			ProductName:    sub.Product.Name,
			PricingType:    sub.Product.PricingType,
			QuantityTotal:  quantityTotal,
			AmountUsd:      amountUsd,
			AmountIdr:      money.CeilToRupiah(amountUsd.Mul(fxRateUsdToIdr)),
		})
	}

	for _, sub := range percentage {
		amountUsd := money.CeilToCents(subtotalUsdAccumulator.Mul(sub.Product.PriceUsd))
		lines = append(lines, Line{
			SubscriptionID: sub.ID,
			ProductName:    sub.Product.Name,
			PricingType:    sub.Product.PricingType,
			QuantityTotal:  decimal.NewFromInt(1),
			AmountUsd:      amountUsd,
			AmountIdr:      money.CeilToRupiah(amountUsd.Mul(fxRateUsdToIdr)),
		})
	}

	// Totals are recomputed from the final rounded lines, not the accumulator.
	subtotalUsd := decimal.Zero
	var subtotalIdr int64
	for _, line := range lines {
		subtotalUsd = subtotalUsd.Add(line.AmountUsd)
		subtotalIdr += line.AmountIdr
	}
	taxAmountIdr := money.CeilToRupiah(decimal.NewFromInt(subtotalIdr).Mul(taxRate))

	return &CalculationResult{
		Lines:        lines,
		SubtotalUsd:  subtotalUsd,
		SubtotalIdr:  subtotalIdr,
		TaxAmountIdr: taxAmountIdr,
		TotalIdr:     subtotalIdr + taxAmountIdr,
	}, nil
}

// evaluateFixed charges the full product price times quantity. A subscription
// starting mid-period is still charged the full price; there is no proration
// for FIXED.
func evaluateFixed(sub subscriptions.Subscription) (decimal.Decimal, decimal.Decimal) {
	qty := sub.Quantity
	if qty == 0 {
		qty = 1
	}
	quantity := decimal.NewFromInt(qty)
	return money.CeilToCents(sub.Product.PriceUsd.Mul(quantity)), quantity
}

// evaluateProrate sums dailyRate * dailyQuantity over the recorded usage
// days, rounding once at the end. Days without a usage row contribute
// nothing.
func evaluateProrate(sub subscriptions.Subscription, records []usage.Record) (decimal.Decimal, decimal.Decimal) {
	dailyRate := sub.Product.PriceUsd.Div(daysPerMonth)
	raw := decimal.Zero
	quantityTotal := decimal.Zero
	for _, rec := range records {
		raw = raw.Add(dailyRate.Mul(rec.Quantity))
		quantityTotal = quantityTotal.Add(rec.Quantity)
	}
	return money.CeilToCents(raw), quantityTotal
}
