package shader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func module(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for k, w := range words {
		binary.LittleEndian.PutUint32(b[k*4:], w)
	}
	return b
}

func TestParse(t *testing.T) {
	words, err := Parse(module(Magic, 0x00010000, 7, 42))
	require.NoError(t, err)
	assert.Equal(t, Words{Magic, 0x00010000, 7, 42}, words)
	assert.EqualValues(t, 16, words.Sizeof())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"odd length", []byte{0x03, 0x02, 0x23}, ErrTruncated},
		{"bad magic", module(0xdeadbeef, 1), ErrBadMagic},
		{"big endian", []byte{0x07, 0x23, 0x02, 0x03}, ErrBadMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.spv")
	require.NoError(t, os.WriteFile(path, module(Magic, 1, 2), 0o644))

	words, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, words, 3)

	_, err = Load(filepath.Join(dir, "missing.spv"))
	assert.True(t, os.IsNotExist(errors.Cause(err)))
	assert.Contains(t, err.Error(), "go generate ./internal/shader")

	bad := filepath.Join(dir, "bad.spv")
	require.NoError(t, os.WriteFile(bad, module(1, 2), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrBadMagic)
}
