package domain

import "strings"

// MenuItem is a catalog reference price.
type MenuItem struct {
	Label string `yaml:"label"`
	Price int64  `yaml:"price"`
}

// Restaurant is a Restaurant Catalog item.
type Restaurant struct {
	ID       int64      `yaml:"id"`
	Name     string     `yaml:"name"`
	FullName string     `yaml:"full_name"`
	Phone    string     `yaml:"phone"`
	MapURL   string     `yaml:"map_url"`
	Category string     `yaml:"category"`
	Hours    string     `yaml:"hours"`
	Note     string     `yaml:"note"`
	Menu     []MenuItem `yaml:"menu"`
}

// FindMenuItem looks up label, ignoring surrounding blanks.
func FindMenuItem(menu []MenuItem, label string) (MenuItem, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return MenuItem{}, false
	}

	for _, item := range menu {
		if item.Label == label {
			return item, true
		}
	}

	return MenuItem{}, false
}
