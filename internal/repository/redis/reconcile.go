package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const orphanIdentitiesKey = "reconcile:orphan_identities"

// OrphanRecord describes an identity account left without a profile record
type OrphanRecord struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failedAt"`
}

// ReconciliationLedger keeps the registrations that need an operator or a
// reconciliation job, in a hash keyed by email.
type ReconciliationLedger struct {
	client *Client
}

// NewReconciliationLedger creates a new ledger
func NewReconciliationLedger(client *Client) *ReconciliationLedger {
	return &ReconciliationLedger{client: client}
}

// RecordOrphan adds or replaces the entry for email
func (l *ReconciliationLedger) RecordOrphan(ctx context.Context, email, userID string, cause error) error {
	rec := OrphanRecord{
		UserID:   userID,
		Email:    email,
		FailedAt: time.Now().UTC(),
	}
	if cause != nil {
		rec.Reason = cause.Error()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal orphan record: %w", err)
	}

	if err := l.client.rdb.HSet(ctx, orphanIdentitiesKey, email, data).Err(); err != nil {
		return fmt.Errorf("failed to record orphan identity: %w", err)
	}
	return nil
}

// ListOrphans returns every recorded orphan
func (l *ReconciliationLedger) ListOrphans(ctx context.Context) ([]OrphanRecord, error) {
	entries, err := l.client.rdb.HGetAll(ctx, orphanIdentitiesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan identities: %w", err)
	}

	records := make([]OrphanRecord, 0, len(entries))
	for _, raw := range entries {
		var rec OrphanRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal orphan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
