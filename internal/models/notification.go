package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
)

// Category groups entries for batch cancellation.
type Category string

const (
	CategoryDaily     Category = constants.CategoryDaily
	CategoryPeriodic  Category = constants.CategoryPeriodic
	CategoryImmediate Category = constants.CategoryImmediate
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryDaily, CategoryPeriodic, CategoryImmediate}

// ParseCategory converts a raw discriminator into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Category) Validate() error {
	switch c {
	case CategoryDaily, CategoryPeriodic, CategoryImmediate:
		return nil
	case "":
		return fmt.Errorf("category cannot be empty")
	default:
		return fmt.Errorf("unknown category %q", string(c))
	}
}

func (c Category) String() string {
	return string(c)
}

// Entry is one scheduled notification record.
type Entry struct {
	ID       int       `json:"id"`
	Category Category  `json:"category,omitempty"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	FireAt   time.Time `json:"fire_at"`
	Sound    string    `json:"sound"`
}

// NewEntry builds a validated entry with the default sound.
func NewEntry(id int, category Category, title, body string, fireAt time.Time) (Entry, error) {
	e := Entry{
		ID:       id,
		Category: category,
		Title:    title,
		Body:     body,
		FireAt:   fireAt,
		Sound:    constants.DefaultSound,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (e *Entry) Validate() error {
	if e.ID < 1 {
		return fmt.Errorf("entry id must be positive, got %d", e.ID)
	}
	if err := e.Category.Validate(); err != nil {
		return fmt.Errorf("entry %d: %w", e.ID, err)
	}
	if e.FireAt.IsZero() {
		return fmt.Errorf("entry %d: fire time cannot be zero", e.ID)
	}
	return nil
}

// Is reports whether the entry belongs to category c. Entries without a
// category never match.
func (e *Entry) Is(c Category) bool {
	return e.Category != "" && e.Category == c
}

// IDs returns the ids of the given entries in order.
func IDs(entries []Entry) []int {
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// FilterCategory returns the entries tagged with category c.
func FilterCategory(entries []Entry, c Category) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Is(c) {
			out = append(out, e)
		}
	}
	return out
}
