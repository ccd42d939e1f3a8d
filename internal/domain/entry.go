package domain

import (
	"fmt"
	"time"
)

// EntryKind distinguishes deposits from withdrawals.
type EntryKind string

const (
	KindDeposit  EntryKind = "DEPOSIT"
	KindWithdraw EntryKind = "WITHDRAW"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	return k == KindDeposit || k == KindWithdraw
}

// Entry is one ledger record of a restaurant pool.
//
// ParticipantNames keeps selection order and may contain the same name more than once.
// When RosterJoined is set the entry came from a store that only kept the comma-joined
// display string, and ParticipantNames holds that single string.
type Entry struct {
	ID               string
	RestaurantID     int64
	ParticipantNames []string
	SpendAmount      int64
	Contribution     int64
	Kind             EntryKind
	CreatedAt        time.Time
	RosterJoined     bool
}

// Roster returns the participant names, splitting a joined display string when needed.
func (e *Entry) Roster() []string {
	if e.RosterJoined && len(e.ParticipantNames) == 1 {
		return SplitRoster(e.ParticipantNames[0])
	}
	return e.ParticipantNames
}

// ParticipantCount is the number of allowance draws covered by the entry.
func (e *Entry) ParticipantCount() int {
	return len(e.Roster())
}

// DisplayName renders the roster as an ordered comma-separated list.
func (e *Entry) DisplayName() string {
	return JoinRoster(e.Roster())
}

// Validate checks the entry against the ledger invariants.
func (e *Entry) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedEntry, e.Kind)
	}

	if e.SpendAmount < 0 {
		return fmt.Errorf("%w: negative spend amount %d", ErrMalformedEntry, e.SpendAmount)
	}

	n := e.ParticipantCount()

	switch e.Kind {
	case KindDeposit:
		if n < 1 {
			return fmt.Errorf("%w: deposit without participants", ErrMalformedEntry)
		}
		if want := int64(n)*BaseAllowance - e.SpendAmount; e.Contribution != want {
			return fmt.Errorf("%w: deposit contribution %d, want %d", ErrMalformedEntry, e.Contribution, want)
		}
	case KindWithdraw:
		if n != 1 {
			return fmt.Errorf("%w: withdrawal with %d participants", ErrMalformedEntry, n)
		}
		if e.SpendAmount == 0 {
			return fmt.Errorf("%w: zero withdrawal", ErrMalformedEntry)
		}
		if e.Contribution != -e.SpendAmount {
			return fmt.Errorf("%w: withdrawal contribution %d, want %d", ErrMalformedEntry, e.Contribution, -e.SpendAmount)
		}
	}

	return nil
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.ParticipantNames = append([]string(nil), e.ParticipantNames...)
	return &c
}

// EntryDraft is a candidate entry before the store assigns ID and CreatedAt.
type EntryDraft struct {
	RestaurantID     int64
	ParticipantNames []string
	SpendAmount      int64
	Contribution     int64
	Kind             EntryKind
}

// DisplayName renders the draft roster as an ordered comma-separated list.
func (d *EntryDraft) DisplayName() string {
	return JoinRoster(d.ParticipantNames)
}

// ToEntry materializes the draft with store-assigned fields.
func (d *EntryDraft) ToEntry(id string, createdAt time.Time) *Entry {
	return &Entry{
		ID:               id,
		RestaurantID:     d.RestaurantID,
		ParticipantNames: append([]string(nil), d.ParticipantNames...),
		SpendAmount:      d.SpendAmount,
		Contribution:     d.Contribution,
		Kind:             d.Kind,
		CreatedAt:        createdAt,
	}
}

// EntryRevision holds the only two fields an update may change.
type EntryRevision struct {
	SpendAmount  int64
	Contribution int64
}

// NewWithdrawal builds a WITHDRAW draft drawn by a single actor.
func NewWithdrawal(restaurantID int64, actor string, spendAmount int64) (*EntryDraft, error) {
	name, err := NormalizeParticipantName(actor)
	if err != nil {
		return nil, err
	}

	contribution, err := ComputeWithdrawContribution(spendAmount)
	if err != nil {
		return nil, err
	}

	return &EntryDraft{
		RestaurantID:     restaurantID,
		ParticipantNames: []string{name},
		SpendAmount:      spendAmount,
		Contribution:     contribution,
		Kind:             KindWithdraw,
	}, nil
}
