package cart

import (
	"context"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

// UserCart is the authenticated cart the guest lines are replayed into.
// AddLine must increment an existing line's quantity.
type UserCart interface {
	AddLine(ctx context.Context, userID int64, item models.ItemRef, qty int) error
}

// Merge replays every guest line into the user's cart, in order. It stops at
// the first failure and returns it together with the number of lines already
// applied; callers that need all-or-nothing run it inside a transaction and
// roll back on error.
func Merge(ctx context.Context, userID int64, guest []models.CartLine, dst UserCart) (applied int, err error) {
	for _, l := range guest {
		if l.Quantity <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := dst.AddLine(ctx, userID, l.Item, l.Quantity); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
