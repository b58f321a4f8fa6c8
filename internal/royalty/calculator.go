// Package royalty computes per-book author earnings and sales projections
// from a static platform/format rate table. Pure computation, no I/O.
package royalty

import (
	"github.com/shopspring/decimal"

	"royalty-engine/internal/domain"
)

// PlatformFeePercent is the service charge applied to the in-house
// distribution channel (NEURAL_BOOKS) only.
const PlatformFeePercent = 5

// Sales multipliers per projection tier, copies sold per month. These are
// configuration constants, not derived from market data.
const (
	MonthlySalesConservative = 50
	MonthlySalesModerate     = 150
	MonthlySalesOptimistic   = 400
	MonthsPerYear            = 12
)

// RateTable maps (platform, format) to the royalty fraction paid to the
// author. Every entry must be in (0,1]; a missing entry for a recognized
// platform/format pair is a configuration error at calculation time.
type RateTable map[domain.Platform]map[domain.Format]decimal.Decimal

// DefaultRates returns the built-in rate table.
func DefaultRates() RateTable {
	return RateTable{
		domain.PlatformKDP: {
			domain.FormatEbook:     decimal.NewFromFloat(0.70),
			domain.FormatPaperback: decimal.NewFromFloat(0.60),
			domain.FormatHardcover: decimal.NewFromFloat(0.60),
		},
		domain.PlatformNeuralBooks: {
			domain.FormatEbook:     decimal.NewFromFloat(0.85),
			domain.FormatPaperback: decimal.NewFromFloat(0.75),
			domain.FormatHardcover: decimal.NewFromFloat(0.75),
		},
		domain.PlatformIngramSpark: {
			domain.FormatEbook:     decimal.NewFromFloat(0.70),
			domain.FormatPaperback: decimal.NewFromFloat(0.60),
			domain.FormatHardcover: decimal.NewFromFloat(0.60),
		},
	}
}

// Calculator computes royalty splits and projections.
type Calculator struct {
	rates      RateTable
	feePercent decimal.Decimal
}

// NewCalculator creates a Calculator. A nil rates table selects the
// built-in defaults.
func NewCalculator(rates RateTable) *Calculator {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Calculator{
		rates:      rates,
		feePercent: decimal.NewFromInt(PlatformFeePercent),
	}
}

var hundred = decimal.NewFromInt(100)

// Calculate computes the royalty split for a single book. Deterministic;
// the only failure modes are an unrecognized platform/format or price
// (ValidationError) and a recognized pair absent from the rate table
// (ConfigurationError). All monetary outputs are rounded to 2 decimal
// places at this boundary; nothing upstream sees unrounded values.
func (c *Calculator) Calculate(req domain.RoyaltyRequest) (*domain.RoyaltyResult, error) {
	if !req.Platform.Valid() {
		return nil, domain.NewValidationError("platform", "unknown platform "+string(req.Platform))
	}
	if !req.Format.Valid() {
		return nil, domain.NewValidationError("format", "unknown format "+string(req.Format))
	}
	if !req.Price.IsPositive() {
		return nil, domain.NewValidationError("price", "must be positive")
	}

	formats, ok := c.rates[req.Platform]
	if !ok {
		return nil, domain.NewConfigurationError("no royalty rates configured for platform %s", req.Platform)
	}
	rate, ok := formats[req.Format]
	if !ok {
		return nil, domain.NewConfigurationError("no royalty rate for %s/%s", req.Platform, req.Format)
	}

	var platformFee decimal.Decimal
	if req.Platform == domain.PlatformNeuralBooks {
		platformFee = req.Price.Mul(c.feePercent).Div(hundred)
	}
	earnings := req.Price.Mul(rate).Sub(platformFee)

	monthly := func(copies int64) decimal.Decimal {
		return earnings.Mul(decimal.NewFromInt(copies)).Round(2)
	}
	annual := func(copies int64) decimal.Decimal {
		return earnings.Mul(decimal.NewFromInt(copies * MonthsPerYear)).Round(2)
	}

	return &domain.RoyaltyResult{
		Platform:       req.Platform,
		Format:         req.Format,
		Price:          req.Price,
		RoyaltyRate:    rate,
		PlatformFee:    platformFee.Round(2),
		AuthorEarnings: earnings.Round(2),
		Projections: domain.Projections{
			Monthly: domain.Projection{
				Conservative: monthly(MonthlySalesConservative),
				Moderate:     monthly(MonthlySalesModerate),
				Optimistic:   monthly(MonthlySalesOptimistic),
			},
			Annual: domain.Projection{
				Conservative: annual(MonthlySalesConservative),
				Moderate:     annual(MonthlySalesModerate),
				Optimistic:   annual(MonthlySalesOptimistic),
			},
		},
	}, nil
}
