package donation

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

func validContribution() Contribution {
	return Contribution{
		DonorName: "Rahim Uddin",
		Amount:    5000,
		Purpose:   PurposeFood,
		Message:   "for the flood victims",
	}
}

func TestContributionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Contribution)
		field  string
	}{
		{"short donor name", func(c *Contribution) { c.DonorName = "ab" }, "donorName"},
		{"zero amount", func(c *Contribution) { c.Amount = 0 }, "amount"},
		{"negative amount", func(c *Contribution) { c.Amount = -100 }, "amount"},
		{"unknown purpose", func(c *Contribution) { c.Purpose = "crypto" }, "purpose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validContribution()
			tt.mutate(&c)

			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if _, found := appErr.Details[tt.field]; !found {
				t.Errorf("expected detail for field %q, got %v", tt.field, appErr.Details)
			}
		})
	}

	if err := validContribution().Validate(); err != nil {
		t.Errorf("valid contribution rejected: %v", err)
	}
}

func TestNewDonationDefaultsCurrency(t *testing.T) {
	donorID := types.NewID()
	d := NewDonation(&donorID, validContribution())

	if d.Currency != "BDT" {
		t.Errorf("currency = %s, want BDT", d.Currency)
	}
	if d.DonorID == nil || *d.DonorID != donorID {
		t.Error("donor ID not carried over")
	}
	if d.ID.IsZero() {
		t.Error("expected generated ID")
	}
}

func TestSummarize(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	donorID := types.NewID()

	for _, c := range []Contribution{
		{DonorName: "Donor One", Amount: 1000, Purpose: PurposeFood},
		{DonorName: "Donor Two", Amount: 2500, Purpose: PurposeFood},
		{DonorName: "Donor Three", Amount: 500, Purpose: PurposeMedical},
	} {
		if err := repo.Save(ctx, NewDonation(&donorID, c)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	summary, err := repo.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Count != 3 {
		t.Errorf("count = %d, want 3", summary.Count)
	}
	if summary.TotalAmount != 4000 {
		t.Errorf("total = %v, want 4000", summary.TotalAmount)
	}
	if summary.ByPurpose[PurposeFood] != 3500 {
		t.Errorf("food total = %v, want 3500", summary.ByPurpose[PurposeFood])
	}
}

func TestListByDonorNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	donorID := types.NewID()
	otherID := types.NewID()

	first := NewDonation(&donorID, validContribution())
	time.Sleep(2 * time.Millisecond)
	second := NewDonation(&donorID, validContribution())
	other := NewDonation(&otherID, validContribution())

	for _, d := range []*Donation{first, other, second} {
		if err := repo.Save(ctx, d); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	donations, err := repo.ListByDonor(ctx, donorID)
	if err != nil {
		t.Fatalf("ListByDonor: %v", err)
	}
	if len(donations) != 2 {
		t.Fatalf("donations = %d, want 2", len(donations))
	}
	if donations[0].ID != second.ID {
		t.Error("expected newest donation first")
	}
}
