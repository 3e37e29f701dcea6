package view

import (
	"slices"

	"taskorbit/internal/task"
)

// Labeled is anything that can be filtered by category.
type Labeled interface {
	CategoryLabel() string
}

// Labels returns the distinct real categories of items in first-seen order,
// followed by task.Uncategorized when at least one item has none.
func Labels[T Labeled](items []T) []string {
	seen := make(map[string]bool)
	var labels []string
	uncategorized := false
	for _, it := range items {
		l := it.CategoryLabel()
		if l == task.Uncategorized {
			uncategorized = true
			continue
		}
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	if uncategorized {
		labels = append(labels, task.Uncategorized)
	}
	return labels
}

// Categories is a selection of category labels. An empty selection
// filters nothing.
type Categories struct {
	Selected []string `json:"selected,omitempty"`
}

func (c Categories) Empty() bool { return len(c.Selected) == 0 }

func (c Categories) Has(label string) bool {
	return slices.Contains(c.Selected, label)
}

// Toggle adds label to the selection or removes it.
func (c Categories) Toggle(label string) Categories {
	if i := slices.Index(c.Selected, label); i >= 0 {
		return Categories{Selected: slices.Delete(slices.Clone(c.Selected), i, i+1)}
	}
	return Categories{Selected: append(slices.Clone(c.Selected), label)}
}

// ToggleAll selects every label in all, or clears the selection if it
// already holds them all.
func (c Categories) ToggleAll(all []string) Categories {
	complete := len(all) > 0
	for _, l := range all {
		if !c.Has(l) {
			complete = false
			break
		}
	}
	if complete {
		return Categories{}
	}
	return Categories{Selected: slices.Clone(all)}
}

func (c Categories) Clear() Categories { return Categories{} }

// FilterCategories keeps the items whose label is selected.
func FilterCategories[T Labeled](items []T, c Categories) []T {
	if c.Empty() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if c.Has(it.CategoryLabel()) {
			out = append(out, it)
		}
	}
	return out
}
