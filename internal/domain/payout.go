package domain

import "github.com/shopspring/decimal"

// PayoutRequest asks for a royalty payout to be sent on-chain. The caller is
// expected to have already verified ownership and write permission; the
// engine only validates the request shape.
type PayoutRequest struct {
	ManuscriptID     string
	UserID           string
	Amount           decimal.Decimal
	Chain            Chain
	RecipientAddress string
	RoyaltyShare     decimal.Decimal // percentage in [0,100]
}

// Collaborator is a manuscript collaborator as supplied by the external
// manuscript-data service for rights registration.
type Collaborator struct {
	UserID        string
	WalletAddress string
	RoyaltyShare  decimal.Decimal // percentage in [0,100]
}

// RegistrationRequest asks for IP rights to be registered on-chain for a
// manuscript. The already-secured check happens before this reaches the
// engine.
type RegistrationRequest struct {
	ManuscriptID  string
	UserID        string
	Chain         Chain
	Title         string
	Collaborators []Collaborator
}
