package linkstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("link mapping not found")

// Record maps a provisioned payment link back to the checkout attempt.
type Record struct {
	OrderCode     string    `json:"order_code"`
	PaymentLinkID string    `json:"payment_link_id"`
	URL           string    `json:"url"`
	Tracking      *Tracking `json:"tracking"`
	CreatedAt     time.Time `json:"ts"`
}

// Store is a key -> record mapping. Put replaces the whole record; the last
// write for a key wins.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, rec Record) error
	All(ctx context.Context) (map[string]Record, error)
}

// FindByOrderCode scans all records for one carrying orderCode.
func FindByOrderCode(ctx context.Context, s Store, orderCode string) (string, Record, error) {
	if orderCode == "" {
		return "", Record{}, ErrNotFound
	}
	all, err := s.All(ctx)
	if err != nil {
		return "", Record{}, err
	}
	for key, rec := range all {
		if rec.OrderCode == orderCode {
			return key, rec, nil
		}
	}
	return "", Record{}, ErrNotFound
}
