package dto

import (
	"time"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID               string    `json:"id"`
	RestaurantID     int64     `json:"restaurant_id"`
	ParticipantNames []string  `json:"participant_names"`
	DisplayName      string    `json:"display_name"`
	ParticipantCount int       `json:"participant_count"`
	SpendAmount      int64     `json:"spend_amount"`
	Contribution     int64     `json:"contribution"`
	Kind             string    `json:"kind"`
	CreatedAt        time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:               e.ID,
		RestaurantID:     e.RestaurantID,
		ParticipantNames: e.Roster(),
		DisplayName:      e.DisplayName(),
		ParticipantCount: e.ParticipantCount(),
		SpendAmount:      e.SpendAmount,
		Contribution:     e.Contribution,
		Kind:             string(e.Kind),
		CreatedAt:        e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a restaurant's entries, newest first.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int              `json:"total"`
}

// EntryResultResponse is a written entry with the pool balance after the write.
type EntryResultResponse struct {
	Entry       *EntryResponse `json:"entry"`
	CurrentPool *int64         `json:"current_pool"`
}

// EntryResultFromUseCase converts a write result to response.
func EntryResultFromUseCase(r *usecase.EntryResult) *EntryResultResponse {
	return &EntryResultResponse{
		Entry:       EntryFromDomain(r.Entry),
		CurrentPool: r.CurrentPool,
	}
}

// MenuItemResponse represents a menu reference price.
type MenuItemResponse struct {
	Label string `json:"label"`
	Price int64  `json:"price"`
}

// RestaurantResponse represents catalog info and menu.
type RestaurantResponse struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	FullName string             `json:"full_name"`
	Phone    string             `json:"phone"`
	MapURL   string             `json:"map_url"`
	Category string             `json:"category"`
	Hours    string             `json:"hours"`
	Note     string             `json:"note,omitempty"`
	Menu     []MenuItemResponse `json:"menu"`
}

// RestaurantFromDomain converts a catalog restaurant to response.
func RestaurantFromDomain(r domain.Restaurant) *RestaurantResponse {
	menu := make([]MenuItemResponse, len(r.Menu))
	for i, item := range r.Menu {
		menu[i] = MenuItemResponse{Label: item.Label, Price: item.Price}
	}

	return &RestaurantResponse{
		ID:       r.ID,
		Name:     r.Name,
		FullName: r.FullName,
		Phone:    r.Phone,
		MapURL:   r.MapURL,
		Category: r.Category,
		Hours:    r.Hours,
		Note:     r.Note,
		Menu:     menu,
	}
}

// RestaurantSummaryResponse is one row of the restaurant list.
type RestaurantSummaryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Hours       string `json:"hours"`
	MemberCount int    `json:"member_count"`
	PoolAmount  int64  `json:"pool_amount"`
}

// ListRestaurantsResponse represents the restaurant list.
type ListRestaurantsResponse struct {
	Restaurants []RestaurantSummaryResponse `json:"restaurants"`
	Total       int                         `json:"total"`
}

// RestaurantSummariesFromUseCase converts summaries to response.
func RestaurantSummariesFromUseCase(summaries []usecase.RestaurantSummary) *ListRestaurantsResponse {
	result := make([]RestaurantSummaryResponse, len(summaries))
	for i, s := range summaries {
		result[i] = RestaurantSummaryResponse{
			ID:          s.ID,
			Name:        s.Name,
			Category:    s.Category,
			Hours:       s.Hours,
			MemberCount: s.MemberCount,
			PoolAmount:  s.PoolAmount,
		}
	}
	return &ListRestaurantsResponse{Restaurants: result, Total: len(result)}
}

// PoolSummaryResponse represents the pool of one restaurant.
type PoolSummaryResponse struct {
	Restaurant         *RestaurantResponse        `json:"restaurant"`
	Entries            []*EntryResponse           `json:"entries"`
	CurrentPool        int64                      `json:"current_pool"`
	TotalDeposited     int64                      `json:"total_deposited"`
	TotalWithdrawn     int64                      `json:"total_withdrawn"`
	DistinctDepositors int                        `json:"distinct_depositors"`
	SkippedCount       int                        `json:"skipped_count"`
	SkippedEntries     []usecase.SkippedEntryInfo `json:"skipped_entries"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// PoolSummaryFromUseCase converts a pool summary to response.
func PoolSummaryFromUseCase(s *usecase.PoolSummary) *PoolSummaryResponse {
	skipped := s.SkippedEntries
	if skipped == nil {
		skipped = []usecase.SkippedEntryInfo{}
	}

	return &PoolSummaryResponse{
		Restaurant:         RestaurantFromDomain(s.Restaurant),
		Entries:            EntriesFromDomain(s.Entries),
		CurrentPool:        s.CurrentPool,
		TotalDeposited:     s.TotalDeposited,
		TotalWithdrawn:     s.TotalWithdrawn,
		DistinctDepositors: s.DistinctDepositors,
		SkippedCount:       len(skipped),
		SkippedEntries:     skipped,
		GeneratedAt:        s.GeneratedAt,
	}
}

// MenuPriceResponse answers a line-item prefill lookup.
type MenuPriceResponse struct {
	Label string `json:"label"`
	Price int64  `json:"price"`
	Found bool   `json:"found"`
}

// EditSessionResponse represents the edit flow of one entry list.
type EditSessionResponse struct {
	State     string `json:"state"`
	EntryID   string `json:"entry_id,omitempty"`
	Draft     string `json:"draft,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// EditSessionFromUseCase converts an edit status to response.
func EditSessionFromUseCase(s usecase.EditStatus) *EditSessionResponse {
	resp := &EditSessionResponse{
		State:   s.State.String(),
		EntryID: s.EntryID,
		Draft:   s.Draft,
	}
	if s.LastError != nil {
		resp.LastError = s.LastError.Error()
	}
	return resp
}

// ConsistencyResultResponse is the audit of one restaurant pool.
type ConsistencyResultResponse struct {
	RestaurantID   int64                      `json:"restaurant_id"`
	StoredSum      int64                      `json:"stored_sum"`
	StoredCount    int64                      `json:"stored_count"`
	AggregatedPool int64                      `json:"aggregated_pool"`
	EntryCount     int                        `json:"entry_count"`
	Difference     int64                      `json:"difference"`
	SkippedEntries []usecase.SkippedEntryInfo `json:"skipped_entries"`
	IsConsistent   bool                       `json:"is_consistent"`
	CheckedAt      time.Time                  `json:"checked_at"`
}

// ConsistencyReportResponse covers every catalog restaurant.
type ConsistencyReportResponse struct {
	Results      []*ConsistencyResultResponse `json:"results"`
	Inconsistent int                          `json:"inconsistent"`
	IsConsistent bool                         `json:"is_consistent"`
	CheckedAt    time.Time                    `json:"checked_at"`
}

// ConsistencyReportFromUseCase converts an audit report to response.
func ConsistencyReportFromUseCase(r *usecase.ConsistencyReport) *ConsistencyReportResponse {
	results := make([]*ConsistencyResultResponse, len(r.Results))
	for i, res := range r.Results {
		skipped := res.SkippedEntries
		if skipped == nil {
			skipped = []usecase.SkippedEntryInfo{}
		}
		results[i] = &ConsistencyResultResponse{
			RestaurantID:   res.RestaurantID,
			StoredSum:      res.StoredSum,
			StoredCount:    res.StoredCount,
			AggregatedPool: res.AggregatedPool,
			EntryCount:     res.EntryCount,
			Difference:     res.Difference,
			SkippedEntries: skipped,
			IsConsistent:   res.IsConsistent,
			CheckedAt:      res.CheckedAt,
		}
	}

	return &ConsistencyReportResponse{
		Results:      results,
		Inconsistent: r.Inconsistent,
		IsConsistent: r.Inconsistent == 0,
		CheckedAt:    r.CheckedAt,
	}
}
