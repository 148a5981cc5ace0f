package types

import (
	"sort"
	"testing"
)

func TestCompareTaskIDs(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "3.1", "3.1", 0},
		{"same major", "3.1", "3.2", -1},
		{"numeric not lexicographic", "3.2", "10.1", -1},
		{"reverse", "10.1", "3.2", 1},
		{"prefix is smaller", "3", "3.1", -1},
		{"deep nesting", "2.1.4", "2.1.10", -1},
		{"whitespace tolerated", " 3.1 ", "3.1", 0},
		{"malformed sorts after well-formed", "abc", "999.999", 1},
		{"well-formed before malformed", "1.1", "1.x", -1},
		{"negative component is malformed", "-1.2", "0.1", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CompareTaskIDs(tc.a, tc.b)
			if got != tc.want {
				t.Fatalf("CompareTaskIDs(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCompareTaskIDsOrdering(t *testing.T) {
	ids := []string{"10.1", "abc", "3.2", "1", "3.1", "2.10", "2.9"}
	sort.Slice(ids, func(i, j int) bool { return CompareTaskIDs(ids[i], ids[j]) < 0 })

	want := []string{"1", "2.9", "2.10", "3.1", "3.2", "10.1", "abc"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q (full: %v)", i, ids[i], want[i], ids)
		}
	}
}

func TestTaskIDParts(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"3.2", []int{3, 2}},
		{"7", []int{7}},
		{"", []int{taskIDSentinel}},
		{"a.b", []int{taskIDSentinel}},
		{"1..2", []int{taskIDSentinel}},
	}
	for _, tc := range cases {
		got := TaskIDParts(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("TaskIDParts(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("TaskIDParts(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func TestChecklistTypeValid(t *testing.T) {
	if !ChecklistDesign.Valid() || !ChecklistConstruction.Valid() {
		t.Fatal("expected design and construction to be valid")
	}
	if ChecklistType("operations").Valid() {
		t.Fatal("expected unknown checklist type to be invalid")
	}
}
