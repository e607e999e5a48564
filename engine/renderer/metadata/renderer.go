package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
)

// ColorFromRGBA8 converts 0-255 channels plus a [0, 1] alpha.
func ColorFromRGBA8(r, g, b uint8, a float32) Color {
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: a}
}

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Corner addresses one vertex of an object's quad.
type Corner uint8

const (
	CornerTopLeft Corner = iota
	CornerTopRight
	CornerBottomRight
	CornerBottomLeft
	// CornerAll applies a color to every corner at once.
	CornerAll
)

const CornerCount = 4

type PrimitiveTopology uint8

const (
	PrimitiveTopologyTriangles PrimitiveTopology = iota
	PrimitiveTopologyLines
)

// Vertex is the interleaved layout shared by every quad: position, color,
// texture coordinate.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
	TexCoord [2]float32
}

// VertexStride is the size in bytes of one Vertex.
const VertexStride = (3 + 4 + 2) * 4

// QuadIndices draws a unit quad as two triangles.
var QuadIndices = []uint32{
	0, 1, 2,
	2, 3, 0,
}

// OutlineIndices draws the border of a unit quad as four lines.
var OutlineIndices = []uint32{
	0, 1,
	1, 2,
	2, 3,
	3, 0,
}

// NewQuadVertices builds a unit quad centered on the origin. Texture
// coordinates honor the flip flags.
func NewQuadVertices(colors [CornerCount]Color, flipHorizontal, flipVertical bool) [CornerCount]Vertex {
	u0, u1 := float32(0), float32(1)
	v0, v1 := float32(0), float32(1)
	if flipHorizontal {
		u0, u1 = u1, u0
	}
	if flipVertical {
		v0, v1 = v1, v0
	}
	c := func(corner Corner) [4]float32 {
		col := colors[corner]
		return [4]float32{col.R, col.G, col.B, col.A}
	}
	return [CornerCount]Vertex{
		{Position: [3]float32{-0.5, -0.5, 0}, Color: c(CornerTopLeft), TexCoord: [2]float32{u0, v0}},
		{Position: [3]float32{0.5, -0.5, 0}, Color: c(CornerTopRight), TexCoord: [2]float32{u1, v0}},
		{Position: [3]float32{0.5, 0.5, 0}, Color: c(CornerBottomRight), TexCoord: [2]float32{u1, v1}},
		{Position: [3]float32{-0.5, 0.5, 0}, Color: c(CornerBottomLeft), TexCoord: [2]float32{u0, v1}},
	}
}

// DrawCommand is everything a backend needs to draw one object.
type DrawCommand struct {
	// ObjectID is informational; backends never interpret it.
	ObjectID   uint32
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Vertices   [CornerCount]Vertex
	Topology   PrimitiveTopology
	// Textured selects the textured shader; otherwise vertex colors only.
	Textured bool
	Texture  TextureHandle
}

// RenderPacket carries the per-frame data from the engine to the renderer.
type RenderPacket struct {
	DeltaTime float64
}
