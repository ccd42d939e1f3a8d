package usecase_test

import (
	"fmt"
	"time"

	"github.com/iho/bobpool/internal/domain"
)

type stubCatalog struct {
	restaurants []domain.Restaurant
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{restaurants: []domain.Restaurant{
		{
			ID:       1,
			Name:     "Kimbap House",
			Category: "korean",
			Menu: []domain.MenuItem{
				{Label: "kimchi stew", Price: 9000},
				{Label: "bibimbap", Price: 8500},
			},
		},
		{ID: 2, Name: "Noodle Bar", Category: "noodles"},
	}}
}

func (c *stubCatalog) List() []domain.Restaurant { return c.restaurants }

func (c *stubCatalog) Get(id int64) (domain.Restaurant, error) {
	for _, r := range c.restaurants {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Restaurant{}, fmt.Errorf("%w: %d", domain.ErrRestaurantNotFound, id)
}

func (c *stubCatalog) GetMenu(id int64) ([]domain.MenuItem, error) {
	r, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return r.Menu, nil
}

func depositEntry(id string, restaurantID, spend int64, names ...string) *domain.Entry {
	return &domain.Entry{
		ID:               id,
		RestaurantID:     restaurantID,
		ParticipantNames: names,
		SpendAmount:      spend,
		Contribution:     int64(len(names))*domain.BaseAllowance - spend,
		Kind:             domain.KindDeposit,
		CreatedAt:        time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

func withdrawEntry(id string, restaurantID, spend int64, actor string) *domain.Entry {
	return &domain.Entry{
		ID:               id,
		RestaurantID:     restaurantID,
		ParticipantNames: []string{actor},
		SpendAmount:      spend,
		Contribution:     -spend,
		Kind:             domain.KindWithdraw,
		CreatedAt:        time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}
}
