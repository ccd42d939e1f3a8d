package usecase

import (
	"strconv"
	"strings"
	"sync"

	"github.com/iho/bobpool/internal/domain"
)

// InFlightGuard rejects a submission while an identical one is still running.
type InFlightGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewInFlightGuard creates an empty guard.
func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{inFlight: make(map[string]struct{})}
}

// Acquire marks key as in flight. The returned release must be called once the
// operation completes, whatever its outcome.
func (g *InFlightGuard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.inFlight[key]; ok {
		return nil, domain.ErrOperationInFlight
	}

	g.inFlight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, nil
}

// DraftKey identifies a create submission by kind, restaurant, roster and amount.
func DraftKey(d *domain.EntryDraft) string {
	var b strings.Builder
	b.WriteString(string(d.Kind))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(d.RestaurantID, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(d.SpendAmount, 10))
	for _, name := range d.ParticipantNames {
		b.WriteByte('|')
		b.WriteString(name)
	}
	return b.String()
}
