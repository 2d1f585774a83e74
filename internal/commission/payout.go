package commission

import (
	"errors"
	"fmt"

	"SalesSentinel/internal/model"
)

var (
	// ErrAlreadyPaid is returned when paying a record that was paid before.
	ErrAlreadyPaid = errors.New("commission already paid")
	// ErrNotApproved is returned when paying a record that was never approved.
	ErrNotApproved = errors.New("commission not approved")
	// ErrNotPending is returned when approving a record that left the pending state.
	ErrNotPending = errors.New("commission not pending")
)

// Approve moves a pending record to approved.
func Approve(rec *model.CommissionRecord) error {
	if rec.Status != model.CommissionPending {
		return fmt.Errorf("approve commission %d (%s): %w", rec.ID, rec.Status, ErrNotPending)
	}
	rec.Status = model.CommissionApproved
	return nil
}

// Pay moves an approved record to paid. A paid record is never paid twice.
func Pay(rec *model.CommissionRecord) error {
	switch rec.Status {
	case model.CommissionApproved:
		rec.Status = model.CommissionPaid
		return nil
	case model.CommissionPaid:
		return fmt.Errorf("pay commission %d: %w", rec.ID, ErrAlreadyPaid)
	default:
		return fmt.Errorf("pay commission %d (%s): %w", rec.ID, rec.Status, ErrNotApproved)
	}
}

// PayoutResult reports the outcome of a batch payout.
type PayoutResult struct {
	Paid    []int64
	Skipped map[int64]error
}

// ProcessPayouts pays every approved record among ids. Records that cannot be
// paid are reported in Skipped. An id with no matching record is an integrity
// failure and aborts the batch before anything is changed.
func ProcessPayouts(records []*model.CommissionRecord, ids []int64) (*PayoutResult, error) {
	byID := make(map[int64]*model.CommissionRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("commission %d: %w", id, model.ErrInvalidRecord)
		}
	}

	res := &PayoutResult{Skipped: map[int64]error{}}
	for _, id := range ids {
		if err := Pay(byID[id]); err != nil {
			res.Skipped[id] = err
			continue
		}
		res.Paid = append(res.Paid, id)
	}
	return res, nil
}
