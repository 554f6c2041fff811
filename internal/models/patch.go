package models

import "time"

// SpacePatch is the decoded form of a change payload for a space.
// Only fields with Set = true are applied (partial patch semantics).
type SpacePatch struct {
	Name    Field[string] `json:"name"`
	Icon    Field[string] `json:"icon"`
	Color   Field[string] `json:"color"`
	Visible Field[bool]   `json:"isVisible"`
	Order   Field[int]    `json:"order"`
}

// Apply merges the present fields into s, leaving absent ones
// untouched. An explicit null on a non-nullable field is ignored.
func (p *SpacePatch) Apply(s *Space) {
	if p.Name.Set && p.Name.Valid {
		s.Name = p.Name.Value
	}
	if p.Icon.Set && p.Icon.Valid {
		s.Icon = p.Icon.Value
	}
	if p.Color.Set && p.Color.Valid {
		s.Color = p.Color.Value
	}
	if p.Visible.Set && p.Visible.Valid {
		s.Visible = p.Visible.Value
	}
	if p.Order.Set && p.Order.Valid {
		s.Order = p.Order.Value
	}
}

// CategoryPatch is the decoded form of a change payload for a category.
// SpaceID supports an explicit null (detach from the space); the
// reference itself is resolved by the caller before Apply.
type CategoryPatch struct {
	SpaceID Field[string] `json:"spaceId"`
	Name    Field[string] `json:"name"`
	Icon    Field[string] `json:"icon"`
	Color   Field[string] `json:"color"`
	Visible Field[bool]   `json:"isVisible"`
	Order   Field[int]    `json:"order"`
}

// Apply merges the present non-reference fields into c. Parent
// references are applied separately after resolution.
func (p *CategoryPatch) Apply(c *Category) {
	if p.Name.Set && p.Name.Valid {
		c.Name = p.Name.Value
	}
	if p.Icon.Set && p.Icon.Valid {
		c.Icon = p.Icon.Value
	}
	if p.Color.Set && p.Color.Valid {
		c.Color = p.Color.Value
	}
	if p.Visible.Set && p.Visible.Valid {
		c.Visible = p.Visible.Value
	}
	if p.Order.Set && p.Order.Valid {
		c.Order = p.Order.Value
	}
}

// ItemPatch is the decoded form of a change payload for an item.
type ItemPatch struct {
	SpaceID     Field[string]    `json:"spaceId"`
	CategoryID  Field[string]    `json:"categoryId"`
	Title       Field[string]    `json:"title"`
	Description Field[string]    `json:"description"`
	Notes       Field[string]    `json:"notes"`
	Completed   Field[bool]      `json:"isCompleted"`
	Priority    Field[string]    `json:"priority"`
	Order       Field[int]       `json:"order"`
	Tags        Field[[]string]  `json:"tags"`
	DueDate     Field[time.Time] `json:"dueDate"`
}

// Apply merges the present non-reference fields into i. The completion
// timestamp is maintained on the completed-flag transition: set when an
// item becomes completed, cleared when it is reopened.
func (p *ItemPatch) Apply(i *Item, now time.Time) {
	if p.Title.Set && p.Title.Valid {
		i.Title = p.Title.Value
	}
	if p.Description.Set && p.Description.Valid {
		i.Description = p.Description.Value
	}
	if p.Notes.Set && p.Notes.Valid {
		i.Notes = p.Notes.Value
	}
	if p.Completed.Set && p.Completed.Valid && p.Completed.Value != i.Completed {
		i.Completed = p.Completed.Value
		if i.Completed {
			completedAt := now
			i.CompletedAt = &completedAt
		} else {
			i.CompletedAt = nil
		}
	}
	if p.Priority.Set && p.Priority.Valid {
		i.Priority = p.Priority.Value
	}
	if p.Order.Set && p.Order.Valid {
		i.Order = p.Order.Value
	}
	if p.Tags.Set && p.Tags.Valid {
		i.Tags = p.Tags.Value
	}
	if p.DueDate.Set {
		if p.DueDate.Valid {
			due := p.DueDate.Value
			i.DueDate = &due
		} else {
			i.DueDate = nil
		}
	}
}
