package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNoStagedOrder is returned when no staged snapshot exists for the user.
// It is a first-class result: confirmation without a valid staging entry
// (double submission, expired snapshot) redirects the caller to re-stage.
var ErrNoStagedOrder = errors.New("no staged order")

// StagedLine is a cart line snapshot with the unit price locked at staging
// time. The confirmation path charges exactly these prices, immune to later
// catalog price changes.
type StagedLine struct {
	LineID      string          `json:"line_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Subtotal returns price x quantity for the line.
func (l StagedLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StagedOrder is the ephemeral, price-locked snapshot produced when a user
// begins checkout and consumed exactly once on confirmation. At most one
// snapshot exists per user; a new checkout overwrites any prior one.
type StagedOrder struct {
	UserID       string          `json:"user_id"`
	Lines        []StagedLine    `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	StagedAt     time.Time       `json:"staged_at"`
}

// LineIDs returns the consumed cart line ids.
func (s *StagedOrder) LineIDs() []string {
	ids := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		ids[i] = l.LineID
	}
	return ids
}

// ProductIDs returns the distinct product ids referenced by the snapshot.
func (s *StagedOrder) ProductIDs() []string {
	seen := make(map[string]struct{}, len(s.Lines))
	ids := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// StagingStore holds staged orders keyed by user id. Implementations are
// expected to expire abandoned snapshots after a TTL. Get and Take return
// ErrNoStagedOrder when no snapshot exists.
//
// Take removes and returns the snapshot in one atomic step, so when two
// confirmations race only one of them can obtain it.
type StagingStore interface {
	Put(ctx context.Context, staged *StagedOrder) error
	Get(ctx context.Context, userID string) (*StagedOrder, error)
	Take(ctx context.Context, userID string) (*StagedOrder, error)
	Delete(ctx context.Context, userID string) error
}
