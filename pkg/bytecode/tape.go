package bytecode

import (
	"math"

	"fortio.org/safecast"
)

// Tape is a forward cursor over a borrowed instruction buffer.
// The cursor only moves backward through Restore.
type Tape struct {
	code []uint64
	pos  int
}

// Checkpoint is a saved cursor position.
type Checkpoint int

// NewTape returns a cursor at the start of code. The buffer is not copied
// and must not be modified while the tape is in use.
func NewTape(code []uint64) Tape {
	return Tape{code: code}
}

// Len returns the number of words on the tape.
func (t *Tape) Len() int { return len(t.code) }

// Offset returns the index of the next word to be read.
func (t *Tape) Offset() int { return t.pos }

// Next returns the word at the cursor and advances past it.
func (t *Tape) Next() (uint64, error) {
	if t.pos >= len(t.code) {
		return 0, newError(CodeOutOfRange, t.pos, "read past end of tape (len %d)", len(t.code))
	}
	w := t.code[t.pos]
	t.pos++
	return w, nil
}

// Peek returns the word at the cursor without advancing. The decoder
// uses it to check an opcode before consuming it.
func (t *Tape) Peek() (uint64, error) {
	if t.pos >= len(t.code) {
		return 0, newError(CodeOutOfRange, t.pos, "peek past end of tape (len %d)", len(t.code))
	}
	return t.code[t.pos], nil
}

// NextFloat reads a word as the bit pattern of a float64.
func (t *Tape) NextFloat() (float64, error) {
	w, err := t.Next()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(w), nil
}

// NextInt reads a word as a non-negative integer operand.
func (t *Tape) NextInt() (int, error) {
	at := t.pos
	w, err := t.Next()
	if err != nil {
		return 0, err
	}
	n, err := safecast.Conv[int](w)
	if err != nil {
		return 0, wrapError(CodeOutOfRange, at, err)
	}
	return n, nil
}

// NextTarget reads an absolute jump target. Zero is the placeholder value
// and is rejected as unresolved.
func (t *Tape) NextTarget() (int, error) {
	at := t.pos
	n, err := t.NextInt()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, newError(CodeUnresolvedJump, at, "jump target was never patched")
	}
	if n > len(t.code) {
		return 0, newError(CodeOutOfRange, at, "jump target %d past end of tape (len %d)", n, len(t.code))
	}
	return n, nil
}

// Save returns the current cursor position.
func (t *Tape) Save() Checkpoint { return Checkpoint(t.pos) }

// Restore moves the cursor back to a saved position.
func (t *Tape) Restore(c Checkpoint) { t.pos = int(c) }

// MoveTo moves the cursor forward to an absolute offset.
func (t *Tape) MoveTo(offset int) error {
	if offset < t.pos || offset > len(t.code) {
		return newError(CodeOutOfRange, t.pos, "cannot move from %d to %d (len %d)", t.pos, offset, len(t.code))
	}
	t.pos = offset
	return nil
}

// Skip advances the cursor by n words.
func (t *Tape) Skip(n int) error {
	return t.MoveTo(t.pos + n)
}
