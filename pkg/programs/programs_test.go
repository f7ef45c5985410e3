package programs

import (
	"reflect"
	"testing"
)

func TestNamesSorted(t *testing.T) {
	want := []string{"collatz", "count", "fib", "nested", "sum"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("count")
	if !ok {
		t.Fatal("count not registered")
	}
	if s.Build(10) == nil {
		t.Error("Build returned nil")
	}
	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestNativeResults(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want float64
	}{
		{"count", 100, 0},
		{"nested", 1, 60},
		{"sum", 100, 5050},
		{"fib", 10, 55},
		{"collatz", 27, 111},
	}

	for _, tt := range tests {
		s, _ := Lookup(tt.name)
		if got := s.Native(tt.n); got != tt.want {
			t.Errorf("%s.Native(%d) = %v, want %v", tt.name, tt.n, got, tt.want)
		}
	}
}

func TestBuildReturnsFreshTrees(t *testing.T) {
	for _, s := range All() {
		a, b := s.Build(s.DefaultN), s.Build(s.DefaultN)
		if a == b {
			t.Errorf("%s: Build returned the same tree twice", s.Name)
		}
	}
}
