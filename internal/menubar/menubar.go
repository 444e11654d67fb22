// Package menubar models menu-bar items and the enumerators that list them.
//
// Enumeration itself happens outside this module: a platform helper writes a
// snapshot of the on-screen items, and the enumerators here read it.
package menubar

import "context"

// Item is one menu-bar item as reported by the enumerator.
type Item struct {
	Title       string `yaml:"title"`
	OwnerPID    int    `yaml:"owner_pid"`
	OwnerName   string `yaml:"owner_name,omitempty"`
	Bounds      [4]int `yaml:"bounds"`
	OnScreen    bool   `yaml:"on_screen"`
	ActiveSpace bool   `yaml:"active_space"`
}

// ListOptions filters the items returned by an Enumerator.
type ListOptions struct {
	OnScreenOnly    bool
	ActiveSpaceOnly bool
}

// Match reports whether item passes the filter.
func (o ListOptions) Match(item Item) bool {
	if o.OnScreenOnly && !item.OnScreen {
		return false
	}
	if o.ActiveSpaceOnly && !item.ActiveSpace {
		return false
	}
	return true
}

// Enumerator lists the current menu-bar items.
type Enumerator interface {
	Items(ctx context.Context, opts ListOptions) ([]Item, error)
}

// Owners reduces items to the distinct owning process ids, in the order
// they were first seen. Items without an owner are skipped.
func Owners(items []Item) []int {
	seen := make(map[int]struct{}, len(items))
	pids := make([]int, 0, len(items))
	for _, item := range items {
		if item.OwnerPID <= 0 {
			continue
		}
		if _, ok := seen[item.OwnerPID]; ok {
			continue
		}
		seen[item.OwnerPID] = struct{}{}
		pids = append(pids, item.OwnerPID)
	}
	return pids
}

// Filter returns the items that pass opts.
func Filter(items []Item, opts ListOptions) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if opts.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Static is an Enumerator over a fixed item list.
type Static []Item

// Items implements Enumerator.
func (s Static) Items(_ context.Context, opts ListOptions) ([]Item, error) {
	return Filter(s, opts), nil
}
