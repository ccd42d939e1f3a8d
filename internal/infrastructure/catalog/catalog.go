// Package catalog provides the static Restaurant Catalog.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iho/bobpool/internal/domain"
)

//go:embed restaurants.yaml
var embeddedRestaurants []byte

// Catalog is an immutable, ordered set of restaurants.
type Catalog struct {
	restaurants []domain.Restaurant
	byID        map[int64]int
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embeddedRestaurants)
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML list of restaurants.
func Parse(data []byte) (*Catalog, error) {
	var restaurants []domain.Restaurant
	if err := yaml.Unmarshal(data, &restaurants); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(restaurants) == 0 {
		return nil, errors.New("catalog has no restaurants")
	}

	c := &Catalog{
		restaurants: restaurants,
		byID:        make(map[int64]int, len(restaurants)),
	}

	for i, r := range restaurants {
		if r.ID <= 0 {
			return nil, fmt.Errorf("restaurant %q: id must be positive", r.Name)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("restaurant %d: name is required", r.ID)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("restaurant %d: duplicate id", r.ID)
		}
		for _, item := range r.Menu {
			if item.Price < 0 {
				return nil, fmt.Errorf("restaurant %d: menu item %q has negative price", r.ID, item.Label)
			}
		}
		c.byID[r.ID] = i
	}

	return c, nil
}

// List returns every restaurant in catalog order.
func (c *Catalog) List() []domain.Restaurant {
	out := make([]domain.Restaurant, len(c.restaurants))
	for i, r := range c.restaurants {
		out[i] = clone(r)
	}
	return out
}

// Get returns one restaurant.
func (c *Catalog) Get(id int64) (domain.Restaurant, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Restaurant{}, fmt.Errorf("%w: %d", domain.ErrRestaurantNotFound, id)
	}
	return clone(c.restaurants[i]), nil
}

// GetMenu returns a restaurant's menu in catalog order.
func (c *Catalog) GetMenu(id int64) ([]domain.MenuItem, error) {
	r, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return r.Menu, nil
}

func clone(r domain.Restaurant) domain.Restaurant {
	r.Menu = append([]domain.MenuItem(nil), r.Menu...)
	return r
}
