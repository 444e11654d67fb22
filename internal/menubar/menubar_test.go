package menubar

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/smazurov/barspacing/internal/logging"
)

const testSnapshot = `
items:
  - title: Clock
    owner_pid: 412
    owner_name: ControlCenter
    bounds: [1650, 0, 74, 24]
    on_screen: true
    active_space: true
  - title: Battery
    owner_pid: 412
    owner_name: ControlCenter
    on_screen: true
    active_space: true
  - title: Dropbox
    owner_pid: 901
    owner_name: Dropbox
    on_screen: false
    active_space: true
  - title: Other Space
    owner_pid: 733
    owner_name: Stats
    on_screen: true
    active_space: false
`

func TestOwners_DistinctInFirstSeenOrder(t *testing.T) {
	items := []Item{
		{OwnerPID: 5},
		{OwnerPID: 3},
		{OwnerPID: 5},
		{OwnerPID: 0},
		{OwnerPID: 9},
		{OwnerPID: 3},
	}

	got := Owners(items)
	want := []int{5, 3, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Owners = %v, want %v", got, want)
	}
}

func TestListOptions_Match(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		item Item
		want bool
	}{
		{"no filter", ListOptions{}, Item{}, true},
		{"on screen only rejects hidden", ListOptions{OnScreenOnly: true}, Item{ActiveSpace: true}, false},
		{"active space only rejects other space", ListOptions{ActiveSpaceOnly: true}, Item{OnScreen: true}, false},
		{"active space only keeps hidden item", ListOptions{ActiveSpaceOnly: true}, Item{ActiveSpace: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Match(tt.item); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(testSnapshot))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if len(snap.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(snap.Items))
	}
	if snap.Items[0].Bounds != [4]int{1650, 0, 74, 24} {
		t.Errorf("bounds = %v", snap.Items[0].Bounds)
	}

	if _, err := ParseSnapshot([]byte("items:\n  - colour: red\n")); err == nil {
		t.Error("expected error for unknown field")
	}

	empty, err := ParseSnapshot(nil)
	if err != nil || len(empty.Items) != 0 {
		t.Errorf("empty snapshot = %v, %v", empty, err)
	}
}

func TestSnapshotEnumerator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := os.WriteFile(path, []byte(testSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewSnapshotEnumerator(path, logging.Discard())
	items, err := e.Items(context.Background(), ListOptions{ActiveSpaceOnly: true})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}

	if got, want := Owners(items), []int{412, 901}; !reflect.DeepEqual(got, want) {
		t.Errorf("owners = %v, want %v", got, want)
	}
}

func TestSnapshotEnumerator_MissingFile(t *testing.T) {
	e := NewSnapshotEnumerator(filepath.Join(t.TempDir(), "nope.yaml"), logging.Discard())
	if _, err := e.Items(context.Background(), ListOptions{}); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestCommandEnumerator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := os.WriteFile(path, []byte(testSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	// The helper ignores its flags; the enumerator must still filter.
	e := NewCommandEnumerator([]string{"sh", "-c", `cat "$0"`, path}, logging.Discard())
	items, err := e.Items(context.Background(), ListOptions{OnScreenOnly: true, ActiveSpaceOnly: true})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if got, want := Owners(items), []int{412}; !reflect.DeepEqual(got, want) {
		t.Errorf("owners = %v, want %v", got, want)
	}
}

func TestCommandEnumerator_Failure(t *testing.T) {
	e := NewCommandEnumerator([]string{"sh", "-c", "echo broken >&2; exit 3"}, logging.Discard())
	if _, err := e.Items(context.Background(), ListOptions{}); err == nil {
		t.Error("expected error from failing helper")
	}

	if _, err := NewCommandEnumerator(nil, logging.Discard()).Items(context.Background(), ListOptions{}); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestStatic(t *testing.T) {
	s := Static{{OwnerPID: 1, ActiveSpace: true}, {OwnerPID: 2}}
	items, _ := s.Items(context.Background(), ListOptions{ActiveSpaceOnly: true})
	if len(items) != 1 || items[0].OwnerPID != 1 {
		t.Errorf("Static filtered = %+v", items)
	}
}
