package models

import (
	"fmt"
	"time"
)

// EntityKind identifies one of the three synchronized entity kinds.
type EntityKind string

const (
	EntityKindSpace    EntityKind = "space"
	EntityKindCategory EntityKind = "category"
	EntityKindItem     EntityKind = "item"
)

// ParseEntityKind validates a wire-level kind string.
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityKindSpace, EntityKindCategory, EntityKindItem:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Operation is a client mutation type.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// ParseOperation validates a wire-level operation string.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OperationCreate, OperationUpdate, OperationDelete:
		return Operation(s), nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Item priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether s is a known item priority.
func ValidPriority(s string) bool {
	return s == PriorityLow || s == PriorityMedium || s == PriorityHigh
}

// Defaults applied on create when the client payload omits the field.
const (
	DefaultSpaceIcon     = "folder"
	DefaultSpaceColor    = "#6366f1"
	DefaultCategoryIcon  = "list"
	DefaultCategoryColor = "#8b5cf6"
)

// Space is a top-level container for categories and items.
// ID is minted by the creating client and never changes. UpdatedAt is
// the logical timestamp of the current version and drives conflict
// resolution; DeletedAt non-nil marks a retained tombstone.
type Space struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
	ID               string
	OwnerID          string
	Name             string
	Icon             string
	Color            string
	LastWriterDevice string
	Order            int
	Visible          bool
}

// Deleted reports whether the space carries a tombstone.
func (s *Space) Deleted() bool { return s.DeletedAt != nil }

// Category groups items inside a space. SpaceID is nil for categories
// whose parent reference could not be resolved.
type Category struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
	SpaceID          *string
	ID               string
	OwnerID          string
	Name             string
	Icon             string
	Color            string
	LastWriterDevice string
	Order            int
	Visible          bool
}

// Deleted reports whether the category carries a tombstone.
func (c *Category) Deleted() bool { return c.DeletedAt != nil }

// Item is a single list entry. SpaceID and CategoryID are nil when the
// item is uncategorized.
type Item struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
	CompletedAt      *time.Time
	DueDate          *time.Time
	SpaceID          *string
	CategoryID       *string
	ID               string
	OwnerID          string
	Title            string
	Description      string
	Notes            string
	Priority         string
	LastWriterDevice string
	Tags             []string
	Order            int
	Completed        bool
}

// Deleted reports whether the item carries a tombstone.
func (i *Item) Deleted() bool { return i.DeletedAt != nil }
