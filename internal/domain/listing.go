package domain

import "github.com/shopspring/decimal"

// Listing is the shape of a livestock catalog record as supplied by the
// catalog collaborator. Consulted only when a group is drafted.
type Listing struct {
	ID            string
	Price         decimal.Decimal
	MinimumAmount decimal.Decimal
}
