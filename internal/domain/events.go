package domain

import "time"

// Event types
const (
	EventTypeEntryCreated = "entry.created"
	EventTypeEntryRevised = "entry.revised"
)

// AggregateTypeEntry is the outbox aggregate type of ledger entries.
const AggregateTypeEntry = "entry"

// OutboxEvent represents an event to be published.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryCreatedPayload builds the entry.created payload.
func EntryCreatedPayload(e *Entry) map[string]any {
	return map[string]any{
		"entry_id":          e.ID,
		"restaurant_id":     e.RestaurantID,
		"participant_names": e.Roster(),
		"spend_amount":      e.SpendAmount,
		"contribution":      e.Contribution,
		"kind":              string(e.Kind),
	}
}

// EntryRevisedPayload builds the entry.revised payload.
func EntryRevisedPayload(id string, rev EntryRevision) map[string]any {
	return map[string]any{
		"entry_id":     id,
		"spend_amount": rev.SpendAmount,
		"contribution": rev.Contribution,
	}
}
