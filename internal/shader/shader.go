// Package shader loads compiled SPIR-V modules from disk.
package shader

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

//go:generate glslc -o ../../shaders/triangle.vert.spv ../../shaders/triangle.vert
//go:generate glslc -o ../../shaders/triangle.frag.spv ../../shaders/triangle.frag

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

var (
	ErrTruncated = errors.New("spir-v length is not a multiple of 4")
	ErrBadMagic  = errors.New("spir-v magic number mismatch")
)

// 32-bit Words
type Words []uint32

// Sizeof is the code size in bytes, as vkCreateShaderModule wants it.
func (words Words) Sizeof() uint64 {
	return uint64(len(words) * 4)
}

// Parse converts a little endian SPIR-V binary into words.
func Parse(b []byte) (Words, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, ErrTruncated
	}
	words := make([]uint32, len(b)/4)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, words); err != nil {
		return nil, errors.Wrap(err, "read spir-v words")
	}
	if words[0] != Magic {
		return nil, errors.Wrapf(ErrBadMagic, "got %#08x", words[0])
	}
	return Words(words), nil
}

// Load reads and parses the SPIR-V file at path.
func Load(path string) (Words, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "%s not built, run go generate ./internal/shader (needs glslc)", path)
	} else if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	words, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return words, nil
}
