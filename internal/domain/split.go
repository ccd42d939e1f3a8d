package domain

import "strconv"

// LineItem is one priced row of a split deposit. Price keeps the raw input.
type LineItem struct {
	Label string
	Price string
}

// SplitEntryBuilder accumulates a roster and line items into one DEPOSIT draft.
//
// Roster and line items start in step (each added participant brings a blank row)
// but are edited independently afterwards; Build only looks at totals.
// At least one line item always exists.
type SplitEntryBuilder struct {
	restaurantID int64
	roster       []string
	lineItems    []LineItem
}

// NewSplitEntryBuilder returns a builder with one blank line item.
func NewSplitEntryBuilder(restaurantID int64) *SplitEntryBuilder {
	return &SplitEntryBuilder{
		restaurantID: restaurantID,
		lineItems:    []LineItem{{}},
	}
}

// RestaurantID returns the restaurant the builder collects for.
func (b *SplitEntryBuilder) RestaurantID() int64 {
	return b.restaurantID
}

// AddParticipant appends name to the roster along with a blank line item, so
// a fresh builder with n participants holds n+1 rows.
func (b *SplitEntryBuilder) AddParticipant(name string) error {
	name, err := NormalizeParticipantName(name)
	if err != nil {
		return err
	}

	if len(b.roster)+1 > MaxParticipants {
		return ErrInvalidParticipantCount
	}

	b.roster = append(b.roster, name)
	b.lineItems = append(b.lineItems, LineItem{})

	return nil
}

// RemoveParticipant drops the roster entry at index and the line item at the
// same index when one exists. The last remaining line item is kept.
func (b *SplitEntryBuilder) RemoveParticipant(index int) {
	if index < 0 || index >= len(b.roster) {
		return
	}

	b.roster = append(b.roster[:index], b.roster[index+1:]...)

	if index < len(b.lineItems) && len(b.lineItems) > 1 {
		b.lineItems = append(b.lineItems[:index], b.lineItems[index+1:]...)
	}
}

// AddLineItem appends a blank line item.
func (b *SplitEntryBuilder) AddLineItem() {
	b.lineItems = append(b.lineItems, LineItem{})
}

// RemoveLineItem drops the line item at index unless it is the only one.
func (b *SplitEntryBuilder) RemoveLineItem(index int) {
	if len(b.lineItems) <= 1 || index < 0 || index >= len(b.lineItems) {
		return
	}

	b.lineItems = append(b.lineItems[:index], b.lineItems[index+1:]...)
}

// SetLineItem overwrites the line item at index. Out-of-range indexes are ignored.
func (b *SplitEntryBuilder) SetLineItem(index int, label, price string) {
	if index < 0 || index >= len(b.lineItems) {
		return
	}

	b.lineItems[index] = LineItem{Label: label, Price: price}
}

// PrefillLineItem copies a matching menu entry into the line item at index.
// It reports whether a menu entry matched.
func (b *SplitEntryBuilder) PrefillLineItem(index int, menu []MenuItem, label string) bool {
	if index < 0 || index >= len(b.lineItems) {
		return false
	}

	item, ok := FindMenuItem(menu, label)
	if !ok {
		return false
	}

	b.lineItems[index] = LineItem{Label: item.Label, Price: strconv.FormatInt(item.Price, 10)}
	return true
}

// Roster returns a copy of the roster.
func (b *SplitEntryBuilder) Roster() []string {
	return append([]string(nil), b.roster...)
}

// LineItems returns a copy of the line items.
func (b *SplitEntryBuilder) LineItems() []LineItem {
	return append([]LineItem(nil), b.lineItems...)
}

// TotalSpend sums parsed line-item prices; unparsable prices count as 0.
func (b *SplitEntryBuilder) TotalSpend() int64 {
	var total int64
	for _, item := range b.lineItems {
		total += ParsePrice(item.Price)
	}
	return total
}

// Build produces the DEPOSIT draft. Builder state is left untouched so a failed
// submission can be retried.
func (b *SplitEntryBuilder) Build() (*EntryDraft, error) {
	if len(b.roster) == 0 {
		return nil, ErrEmptyRoster
	}

	total := b.TotalSpend()
	if total <= 0 {
		return nil, ErrNonPositiveTotal
	}

	contribution, err := ComputeDepositContribution(len(b.roster), total)
	if err != nil {
		return nil, err
	}

	return &EntryDraft{
		RestaurantID:     b.restaurantID,
		ParticipantNames: b.Roster(),
		SpendAmount:      total,
		Contribution:     contribution,
		Kind:             KindDeposit,
	}, nil
}

// Reset clears the builder back to a single blank line item.
func (b *SplitEntryBuilder) Reset() {
	b.roster = nil
	b.lineItems = []LineItem{{}}
}
