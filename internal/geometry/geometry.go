// Package geometry holds the vertex data drawn by the sample and the layout
// the pipeline uses to read it.
package geometry

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Stride is the distance in bytes between two vertices in the buffer.
	Stride = 8
	// PositionOffset is the offset of the position attribute in a vertex.
	PositionOffset = 0
	// PositionLocation is the shader input location of the position.
	PositionLocation = 0
	// Binding is the vertex buffer binding index.
	Binding = 0
)

// Vertex is a single 2D point in normalized device coordinates.
type Vertex struct {
	Position mgl32.Vec2
}

// Triangle returns the three vertices of the sample triangle.
func Triangle() []Vertex {
	return []Vertex{
		{Position: mgl32.Vec2{-0.5, -0.25}},
		{Position: mgl32.Vec2{0.0, 0.5}},
		{Position: mgl32.Vec2{0.25, -0.1}},
	}
}

// SizeOf returns the byte size of the encoded vertices.
func SizeOf(vertices []Vertex) uint64 {
	return uint64(len(vertices) * Stride)
}

// Encode packs the vertices as little endian float32 pairs.
func Encode(vertices []Vertex) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, SizeOf(vertices)))
	for _, v := range vertices {
		// writes to a bytes.Buffer don't fail.
		_ = binary.Write(buf, binary.LittleEndian, [2]float32(v.Position))
	}
	return buf.Bytes()
}

// ClearColor is the default background. The triangle color is fixed in the
// fragment shader.
var ClearColor = mgl32.Vec4{0, 0, 1, 1}
