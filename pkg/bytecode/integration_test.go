package bytecode

import (
	"testing"

	"github.com/chazu/tapevm/pkg/programs"
)

// Every sample program must produce the same result as its native Go
// counterpart.
func TestSamplesMatchNative(t *testing.T) {
	sizes := []int{1, 2, 10, 27, 100}
	for _, s := range programs.All() {
		for _, n := range sizes {
			p := mustCompile(t, s.Build(n))
			v, err := Run(p)
			if err != nil {
				t.Fatalf("%s(%d): Execute failed: %v", s.Name, n, err)
			}
			expectFloat(t, v, s.Native(n))
		}
	}
}

func TestSamplesRoundTripThroughValidate(t *testing.T) {
	for _, s := range programs.All() {
		p := mustCompile(t, s.Build(s.DefaultN))
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}
}
