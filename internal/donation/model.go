// Package donation records relief fund contributions.
package donation

import (
	"strings"
	"time"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Purpose narrows what a contribution funds
type Purpose string

const (
	PurposeGeneral Purpose = "general"
	PurposeFood    Purpose = "food"
	PurposeShelter Purpose = "shelter"
	PurposeMedical Purpose = "medical"
	PurposeRescue  Purpose = "rescue"
)

// ValidPurpose reports whether p names a known purpose
func ValidPurpose(p Purpose) bool {
	switch p {
	case PurposeGeneral, PurposeFood, PurposeShelter, PurposeMedical, PurposeRescue:
		return true
	}
	return false
}

// Donation is a single contribution to the relief fund
type Donation struct {
	ID        types.ID  `json:"id"`
	DonorID   *types.ID `json:"donorId,omitempty"`
	DonorName string    `json:"donorName"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Purpose   Purpose   `json:"purpose"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contribution carries the fields needed to record a donation
type Contribution struct {
	DonorName string  `json:"donorName"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Purpose   Purpose `json:"purpose"`
	Message   string  `json:"message"`
}

// Validate checks all contribution fields and collects every violation
func (c Contribution) Validate() error {
	details := make(map[string]string)

	if len(strings.TrimSpace(c.DonorName)) < 3 {
		details["donorName"] = "donor name must be at least 3 characters"
	}
	if c.Amount <= 0 {
		details["amount"] = "amount must be positive"
	}
	if !ValidPurpose(c.Purpose) {
		details["purpose"] = "purpose must be one of general, food, shelter, medical, rescue"
	}

	if len(details) > 0 {
		return apperrors.Validation("donation failed validation", details)
	}
	return nil
}

// NewDonation builds a donation from a validated contribution
func NewDonation(donorID *types.ID, c Contribution) *Donation {
	currency := c.Currency
	if currency == "" {
		currency = "BDT"
	}
	return &Donation{
		ID:        types.NewID(),
		DonorID:   donorID,
		DonorName: strings.TrimSpace(c.DonorName),
		Amount:    c.Amount,
		Currency:  currency,
		Purpose:   c.Purpose,
		Message:   strings.TrimSpace(c.Message),
		CreatedAt: time.Now().UTC(),
	}
}

// Summary aggregates donations for the dashboard
type Summary struct {
	TotalAmount float64             `json:"totalAmount"`
	Count       int                 `json:"count"`
	ByPurpose   map[Purpose]float64 `json:"byPurpose"`
}
