// Package notifications is the outward delivery boundary. The core
// never retries or aggregates failures; a failed send for one contact
// must not block the others.
package notifications

import (
	"context"
	"time"
)

// Alert is what gets delivered to a single emergency contact when a
// check-in expires.
type Alert struct {
	UserID       string    `json:"userId"`
	ContactID    string    `json:"contactId"`
	ContactName  string    `json:"contactName"`
	ContactEmail string    `json:"contactEmail"`
	ContactPhone string    `json:"contactPhone"`
	Destination  string    `json:"destination"`
	TriggeredAt  time.Time `json:"triggeredAt"`
}

type Notifier interface {
	SendAlert(ctx context.Context, alert Alert) error
}
