package world

import "math"

// BlockID identifies a voxel type. ID 0 is the empty sentinel: no
// geometry, no collision, no meaningful color.
type BlockID uint16

const Empty BlockID = 0

// RGBA is a per-voxel color. Empty cells carry a zero color.
type RGBA struct {
	R, G, B, A uint8
}

var OpaqueWhite = RGBA{R: 255, G: 255, B: 255, A: 255}

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

type Vec3f struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3f) Add(o Vec3f) Vec3f { return Vec3f{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3f) Sub(o Vec3f) Vec3f { return Vec3f{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3f) ToArray() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// ChunkKey addresses one chunk in the world's chunk index space.
type ChunkKey struct {
	CX int
	CY int
	CZ int
}

func (k ChunkKey) Vec() Vec3i { return Vec3i{X: k.CX, Y: k.CY, Z: k.CZ} }

// Face enumerates the six axis-aligned cube faces. Faces on the same
// axis are adjacent values so Opposite is a bit flip.
type Face uint8

const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
	FaceCount
)

// FaceMask is a bitset over Face values. A block type's ignore mask
// suppresses the flagged faces on every voxel of that type.
type FaceMask uint8

func (m FaceMask) Has(f Face) bool { return m&(1<<f) != 0 }

func MaskOf(faces ...Face) FaceMask {
	var m FaceMask
	for _, f := range faces {
		m |= 1 << f
	}
	return m
}

// faceNormals[f] is the outward unit normal of face f.
var faceNormals = [FaceCount]Vec3i{
	FaceNegX: {X: -1},
	FacePosX: {X: 1},
	FaceNegY: {Y: -1},
	FacePosY: {Y: 1},
	FaceNegZ: {Z: -1},
	FacePosZ: {Z: 1},
}

func (f Face) Normal() Vec3i { return faceNormals[f] }

func (f Face) Opposite() Face { return f ^ 1 }

// faceCorners[f] lists the four unit-cube corners of face f in
// counter-clockwise order as seen from outside, so the two emitted
// triangles (0,1,2) and (0,2,3) wind outward.
var faceCorners = [FaceCount][4][3]float64{
	FaceNegX: {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	FacePosX: {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	FaceNegY: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	FacePosY: {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	FaceNegZ: {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	FacePosZ: {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
}

// faceUVs are the canonical texture corners shared by every face.
var faceUVs = [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

func floorToInt(v float64) int { return int(math.Floor(v)) }
