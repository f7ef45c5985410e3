// Package image saves compiled programs to disk and loads them back.
//
// An image is a six byte header followed by the program encoded as
// canonical CBOR or as msgpack:
//
//	"TVIM" version:u8 format:u8 payload
package image

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/chazu/tapevm/pkg/bytecode"
)

// Magic starts every image file.
const Magic = "TVIM"

// Version is the current image layout version.
const Version uint8 = 1

// Format selects the payload encoding.
type Format byte

const (
	FormatCBOR    Format = 'C'
	FormatMsgpack Format = 'M'
)

func (f Format) String() string {
	switch f {
	case FormatCBOR:
		return "cbor"
	case FormatMsgpack:
		return "msgpack"
	}
	return fmt.Sprintf("Format(%q)", byte(f))
}

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "cbor", "":
		return FormatCBOR, nil
	case "msgpack":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("unknown image format %q (want cbor or msgpack)", name)
}

// ErrNotImage is returned when data does not start with the image header.
var ErrNotImage = errors.New("not a tapevm image")

// payload is the encoded body of an image.
type payload struct {
	Code    []uint64 `cbor:"1,keyasint" msgpack:"code"`
	Globals []string `cbor:"2,keyasint" msgpack:"globals"`
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	// The default array limit is far below the size of a long tape.
	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// Marshal encodes p as an image.
func Marshal(p *bytecode.Program, f Format) ([]byte, error) {
	body := payload{Code: p.Code, Globals: p.Globals}

	var data []byte
	var err error
	switch f {
	case FormatCBOR:
		data, err = cborEncMode.Marshal(body)
	case FormatMsgpack:
		data, err = msgpack.Marshal(body)
	default:
		return nil, fmt.Errorf("image: unknown format %s", f)
	}
	if err != nil {
		return nil, fmt.Errorf("image: encode %s: %w", f, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(Magic) + 2 + len(data))
	buf.WriteString(Magic)
	buf.WriteByte(Version)
	buf.WriteByte(byte(f))
	buf.Write(data)
	return buf.Bytes(), nil
}

// Unmarshal decodes an image and validates the program it contains.
func Unmarshal(data []byte) (*bytecode.Program, Format, error) {
	header := len(Magic) + 2
	if len(data) < header || string(data[:len(Magic)]) != Magic {
		return nil, 0, ErrNotImage
	}
	if v := data[len(Magic)]; v != Version {
		return nil, 0, fmt.Errorf("image: unsupported version %d (want %d)", v, Version)
	}
	f := Format(data[len(Magic)+1])
	body := data[header:]

	var p payload
	var err error
	switch f {
	case FormatCBOR:
		err = cborDecMode.Unmarshal(body, &p)
	case FormatMsgpack:
		err = msgpack.Unmarshal(body, &p)
	default:
		return nil, 0, fmt.Errorf("image: unknown format %s", f)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("image: decode %s: %w", f, err)
	}

	prog := &bytecode.Program{Code: p.Code, Globals: p.Globals}
	if err := prog.Validate(); err != nil {
		return nil, 0, fmt.Errorf("image: invalid program: %w", err)
	}
	return prog, f, nil
}

// Save writes p to path.
func Save(path string, p *bytecode.Program, f Format) error {
	data, err := Marshal(p, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("image: write %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the image at path.
func Load(path string) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("image: read %s: %w", path, err)
	}
	p, _, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// IsImage reports whether data starts with the image magic.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}
