package domain

import "github.com/shopspring/decimal"

// Platform is a book distribution platform.
type Platform string

const (
	PlatformKDP         Platform = "KDP"
	PlatformNeuralBooks Platform = "NEURAL_BOOKS"
	PlatformIngramSpark Platform = "INGRAMSPARK"
)

// Valid reports whether the platform is recognized.
func (p Platform) Valid() bool {
	switch p {
	case PlatformKDP, PlatformNeuralBooks, PlatformIngramSpark:
		return true
	}
	return false
}

// Format is a book publication format.
type Format string

const (
	FormatEbook     Format = "EBOOK"
	FormatPaperback Format = "PAPERBACK"
	FormatHardcover Format = "HARDCOVER"
	FormatAudiobook Format = "AUDIOBOOK"
)

// Valid reports whether the format is recognized. A recognized format may
// still have no rate-table entry for a given platform; that is a
// configuration error, not an input error.
func (f Format) Valid() bool {
	switch f {
	case FormatEbook, FormatPaperback, FormatHardcover, FormatAudiobook:
		return true
	}
	return false
}

// RoyaltyRequest is the input to a royalty calculation. Immutable,
// constructed per call.
type RoyaltyRequest struct {
	Platform  Platform
	Format    Format
	Price     decimal.Decimal
	PageCount int
	Genre     string
}

// Projection holds earnings estimates for one time horizon.
type Projection struct {
	Conservative decimal.Decimal `json:"conservative"`
	Moderate     decimal.Decimal `json:"moderate"`
	Optimistic   decimal.Decimal `json:"optimistic"`
}

// Projections holds monthly and annual earnings estimates.
type Projections struct {
	Monthly Projection `json:"monthly"`
	Annual  Projection `json:"annual"`
}

// RoyaltyResult is the output of a royalty calculation. Derived entirely
// from the request and the static rate table; it has no persisted identity.
type RoyaltyResult struct {
	Platform       Platform        `json:"platform"`
	Format         Format          `json:"format"`
	Price          decimal.Decimal `json:"price"`
	RoyaltyRate    decimal.Decimal `json:"royaltyRate"`
	PlatformFee    decimal.Decimal `json:"platformFee"`
	AuthorEarnings decimal.Decimal `json:"authorEarnings"`
	Projections    Projections     `json:"projections"`
}
