package world

import "testing"

// testBlockTable returns a small block table: stone (rock), dirt and
// grass (soil), and a one-way type ignoring its +Y face.
func testBlockTable() ([]BlockType, []string) {
	palette := []string{"rock", "soil"}
	types := []BlockType{
		{Material: -1},
		{ID: 1, Name: "stone", Material: 0, Color: RGBA{R: 128, G: 128, B: 128, A: 255}},
		{ID: 2, Name: "dirt", Material: 1, Color: RGBA{R: 121, G: 85, B: 58, A: 255}},
		{ID: 3, Name: "grass", Material: 1, Color: RGBA{R: 95, G: 159, B: 53, A: 255}},
		{ID: 4, Name: "oneway", Material: 0, Color: RGBA{R: 10, G: 10, B: 10, A: 255}, Ignore: MaskOf(FacePosY)},
	}
	return types, palette
}

func testConfig() Config {
	return Config{
		ChunkCounts:     Vec3i{X: 4, Y: 4, Z: 4},
		VoxelDims:       Vec3f{X: 1, Y: 1, Z: 1},
		WindowExtent:    Vec3i{X: 2, Y: 2, Z: 2},
		MaxVisibleFaces: 512,
	}
}

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	types, palette := testBlockTable()
	w, err := NewWorld(cfg, types, palette)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

// newTestBuilder wires a builder, pool, and one chunk for direct mesh
// tests.
func newTestBuilder(t *testing.T, maxFaces int) (*MeshBuilder, *SubmeshPool, *Chunk) {
	t.Helper()
	types, palette := testBlockTable()
	pool := NewSubmeshPool(maxFaces)
	b := NewMeshBuilder(types, len(palette), Vec3f{X: 1, Y: 1, Z: 1}, maxFaces, pool, nil)
	c := newChunk(Vec3i{X: 4, Y: 4, Z: 4}, maxFaces)
	return b, pool, c
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}
