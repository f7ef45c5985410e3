package image

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/tapevm/pkg/bytecode"
	"github.com/chazu/tapevm/pkg/expr"
	"github.com/chazu/tapevm/pkg/programs"
)

func compileSample(t *testing.T, name string) *bytecode.Program {
	t.Helper()
	s, ok := programs.Lookup(name)
	if !ok {
		t.Fatalf("no sample %q", name)
	}
	p, err := bytecode.Compile(s.Build(s.DefaultN))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return p
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatCBOR, FormatMsgpack} {
		t.Run(f.String(), func(t *testing.T) {
			p := compileSample(t, "collatz")
			data, err := Marshal(p, f)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !IsImage(data) {
				t.Error("IsImage should accept marshaled data")
			}

			got, gotFormat, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if gotFormat != f {
				t.Errorf("format = %s, want %s", gotFormat, f)
			}
			if !reflect.DeepEqual(got.Code, p.Code) {
				t.Error("code differs after round trip")
			}
			if !reflect.DeepEqual(got.Globals, p.Globals) {
				t.Errorf("globals = %v, want %v", got.Globals, p.Globals)
			}

			v, err := bytecode.Run(got)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if n, _ := v.AsFloat(); n != 111 {
				t.Errorf("Expected 111, got %v", v)
			}
		})
	}
}

func TestRoundTripLargeProgram(t *testing.T) {
	x := expr.Global("x")
	stmts := make([]expr.Expr, 50_000)
	for i := range stmts {
		stmts[i] = x.Assign(expr.Float(float64(i)))
	}
	p, err := bytecode.Compile(expr.NewBlock(stmts...))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(p.Code) <= 131072 {
		t.Fatalf("tape has %d words, want more than 131072", len(p.Code))
	}

	for _, f := range []Format{FormatCBOR, FormatMsgpack} {
		t.Run(f.String(), func(t *testing.T) {
			data, err := Marshal(p, f)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			got, _, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(got.Code, p.Code) {
				t.Error("code differs after round trip")
			}
			ctx := got.NewContext()
			if _, err := ctx.Execute(); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if v, _ := ctx.Global(0); v.String() != "49999" {
				t.Errorf("x = %v, want 49999", v)
			}
		})
	}
}

func TestCBORIsDeterministic(t *testing.T) {
	p := compileSample(t, "fib")
	a, err := Marshal(p, FormatCBOR)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, _ := Marshal(p, FormatCBOR)
	if !bytes.Equal(a, b) {
		t.Error("canonical CBOR output should be stable")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	good, err := Marshal(compileSample(t, "count"), FormatCBOR)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, _, err := Unmarshal([]byte("nope")); !errors.Is(err, ErrNotImage) {
		t.Errorf("short data: err = %v, want ErrNotImage", err)
	}

	badVersion := append([]byte(nil), good...)
	badVersion[4] = 99
	if _, _, err := Unmarshal(badVersion); err == nil {
		t.Error("bad version should fail")
	}

	badFormat := append([]byte(nil), good...)
	badFormat[5] = 'X'
	if _, _, err := Unmarshal(badFormat); err == nil {
		t.Error("bad format should fail")
	}

	broken := &bytecode.Program{Code: []uint64{uint64(bytecode.OpBlock), 0}}
	data, err := Marshal(broken, FormatMsgpack)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, _, err := Unmarshal(data); !errors.Is(err, bytecode.ErrUnresolvedJump) {
		t.Errorf("unpatched program: err = %v, want ErrUnresolvedJump", err)
	}

	breaking := &bytecode.Program{Code: []uint64{uint64(bytecode.OpHintBreak)}}
	data, err = Marshal(breaking, FormatCBOR)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, _, err := Unmarshal(data); !errors.Is(err, bytecode.ErrUnknownHint) {
		t.Errorf("break hint: err = %v, want ErrUnknownHint", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.tvi")
	p := compileSample(t, "nested")
	if err := Save(path, p, FormatMsgpack); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got.Code, p.Code) {
		t.Error("code differs after Save/Load")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.tvi")); err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"cbor", FormatCBOR, false},
		{"", FormatCBOR, false},
		{"msgpack", FormatMsgpack, false},
		{"json", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
