package bytecode

// Program is a compiled tape together with its global name table.
// A Program is immutable after compilation and may be executed by any
// number of CallContexts at once.
type Program struct {
	Code    []uint64 // Instruction words
	Globals []string // Global names indexed by slot
}

// GlobalSlot returns the slot assigned to name.
func (p *Program) GlobalSlot(name string) (int, bool) {
	for i, g := range p.Globals {
		if g == name {
			return i, true
		}
	}
	return 0, false
}

// NewContext returns a fresh execution context for the program.
func (p *Program) NewContext() *CallContext {
	return NewCallContext(p.Code, len(p.Globals))
}

// Validate decodes the whole tape and reports the first structural error:
// an unknown opcode, an unpatched or out-of-range jump, a global slot
// outside the table, or a truncated instruction.
func (p *Program) Validate() error {
	_, err := Decode(p)
	return err
}
