package geometry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangle(t *testing.T) {
	tri := Triangle()
	require.Len(t, tri, 3)
	assert.Equal(t, mgl32.Vec2{-0.5, -0.25}, tri[0].Position)
	assert.Equal(t, mgl32.Vec2{0.0, 0.5}, tri[1].Position)
	assert.Equal(t, mgl32.Vec2{0.25, -0.1}, tri[2].Position)

	// callers must not be able to mutate the shared data.
	tri[0].Position = mgl32.Vec2{9, 9}
	assert.Equal(t, mgl32.Vec2{-0.5, -0.25}, Triangle()[0].Position)
}

func TestEncode(t *testing.T) {
	tri := Triangle()
	data := Encode(tri)
	require.Len(t, data, 24)
	assert.EqualValues(t, len(data), SizeOf(tri))

	for k, v := range tri {
		x := math.Float32frombits(binary.LittleEndian.Uint32(data[k*Stride+PositionOffset:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(data[k*Stride+PositionOffset+4:]))
		assert.Equal(t, v.Position.X(), x, "vertex %d x", k)
		assert.Equal(t, v.Position.Y(), y, "vertex %d y", k)
	}
}

func TestEncodeEmpty(t *testing.T) {
	assert.Empty(t, Encode(nil))
	assert.Zero(t, SizeOf(nil))
}

func TestClearColorIsBlue(t *testing.T) {
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, ClearColor)
}
