package domain

import "fmt"

// ReviseEntry returns a copy of entry with a new spend amount and the matching
// contribution. Roster, kind and restaurant are carried over unchanged; the
// participant count comes from the stored roster.
func ReviseEntry(entry *Entry, newSpendAmount int64) (*Entry, error) {
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	if err := ValidateSpendAmount(newSpendAmount); err != nil {
		return nil, err
	}

	contribution, err := ComputeContribution(entry.Kind, entry.ParticipantCount(), newSpendAmount)
	if err != nil {
		return nil, err
	}

	revised := entry.Clone()
	revised.SpendAmount = newSpendAmount
	revised.Contribution = contribution

	return revised, nil
}

// Revision extracts the update payload.
func (e *Entry) Revision() EntryRevision {
	return EntryRevision{SpendAmount: e.SpendAmount, Contribution: e.Contribution}
}

// EditState is the state of an entry list's edit flow.
type EditState int

const (
	EditViewing EditState = iota
	EditEditing
	EditPersisting
)

func (s EditState) String() string {
	switch s {
	case EditViewing:
		return "VIEWING"
	case EditEditing:
		return "EDITING"
	case EditPersisting:
		return "PERSISTING"
	default:
		return fmt.Sprintf("EditState(%d)", int(s))
	}
}

// EditSession drives the edit flow of one entry list. At most one entry of the
// list is EDITING or PERSISTING at a time. After a failed save the session is
// back in VIEWING but keeps the draft, so editing the same entry again resumes it.
type EditSession struct {
	state   EditState
	entryID string
	draft   string
	lastErr error
}

// State returns the current state.
func (s *EditSession) State() EditState {
	return s.state
}

// EntryID returns the entry being edited, or the one whose draft is preserved.
func (s *EditSession) EntryID() string {
	return s.entryID
}

// Draft returns the draft amount.
func (s *EditSession) Draft() string {
	return s.draft
}

// LastError returns the error of the last failed save.
func (s *EditSession) LastError() error {
	return s.lastErr
}

// Begin moves VIEWING -> EDITING for entry.
func (s *EditSession) Begin(entry *Entry) error {
	if s.state != EditViewing {
		return fmt.Errorf("%w: %s is %s", ErrEditInProgress, s.entryID, s.state)
	}

	if s.entryID != entry.ID || s.lastErr == nil {
		s.draft = fmt.Sprintf("%d", entry.SpendAmount)
	}

	s.entryID = entry.ID
	s.state = EditEditing

	return nil
}

// SetDraft replaces the draft amount while EDITING.
func (s *EditSession) SetDraft(amount string) error {
	if s.state != EditEditing {
		return ErrNotEditing
	}

	s.draft = amount
	return nil
}

// Cancel discards the draft and returns to VIEWING.
func (s *EditSession) Cancel() {
	if s.state == EditPersisting {
		return
	}

	s.reset()
}

// StartSave parses the draft and moves EDITING -> PERSISTING. An unparsable
// draft keeps the session EDITING.
func (s *EditSession) StartSave() (int64, error) {
	if s.state != EditEditing {
		return 0, ErrNotEditing
	}

	amount, err := ParseAmount(s.draft)
	if err != nil {
		return 0, err
	}

	s.state = EditPersisting
	return amount, nil
}

// Finish ends a save. On success the session is reset; on failure it returns to
// VIEWING with the draft and error retained.
func (s *EditSession) Finish(err error) {
	if s.state != EditPersisting {
		return
	}

	if err == nil {
		s.reset()
		return
	}

	s.state = EditViewing
	s.lastErr = err
}

func (s *EditSession) reset() {
	s.state = EditViewing
	s.entryID = ""
	s.draft = ""
	s.lastErr = nil
}
