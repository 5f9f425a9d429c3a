package admin

import (
	"booth-queue/common/constant"
	"booth-queue/model"
	"booth-queue/outbound/rtdb"
	"context"
	"fmt"
)

// PendingEmailRequests lists the reservations of this booth that still wait
// for their email.
func (v *View) PendingEmailRequests(ctx context.Context) ([]model.Reservation, error) {
	reservations, err := v.LoadReservations(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]model.Reservation, 0)
	for _, r := range reservations {
		if r.RequestEmail {
			pending = append(pending, r)
		}
	}

	return pending, nil
}

// ClaimEmailRequest clears the request flag and stamps emailQueuedAt in one
// transaction. claimed is false when the flag was already gone.
func (v *View) ClaimEmailRequest(ctx context.Context, key string) (model.Reservation, bool, error) {
	res, err := v.Store.Transaction(ctx, fmt.Sprintf(constant.PathReservation, key), func(current any) (any, bool) {
		r := rtdb.Map(current)
		if r == nil {
			return nil, true
		}

		if requested, _ := r["requestEmail"].(bool); !requested {
			return nil, true
		}

		delete(r, "requestEmail")
		r["emailQueuedAt"] = rtdb.ServerTimestamp
		return r, false
	})
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("claim email request %s: %w", key, err)
	}

	if !res.Committed {
		return model.Reservation{}, false, nil
	}

	var r model.Reservation
	if err := res.Snapshot.Decode(&r); err != nil {
		return model.Reservation{}, false, fmt.Errorf("decode reservation %s: %w", key, err)
	}
	r.Key = key

	return r, true, nil
}

// ReleaseEmailRequest puts a claimed request back so the next scan retries it.
func (v *View) ReleaseEmailRequest(ctx context.Context, key string) error {
	return v.Store.Update(ctx, fmt.Sprintf(constant.PathReservation, key), map[string]any{
		"requestEmail":  true,
		"emailQueuedAt": nil,
	})
}
