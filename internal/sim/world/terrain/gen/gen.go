// Package gen provides a deterministic default terrain populator for
// hosts that have no saved grid for a chunk.
package gen

import (
	"github.com/aquilax/go-perlin"

	"voxelforge.dev/internal/sim/world"
	"voxelforge.dev/internal/sim/world/logic/mathx"
)

// Palette names the block types the generator places. Colors are the
// base tints; each placed voxel gets a small seeded jitter.
type Palette struct {
	Surface world.BlockID
	Soil    world.BlockID
	Rock    world.BlockID

	SurfaceColor world.RGBA
	SoilColor    world.RGBA
	RockColor    world.RGBA
}

type Generator struct {
	noise *perlin.Perlin
	seed  int64
	pal   Palette

	baseHeight int
	amplitude  float64
	frequency  float64
	soilDepth  int
}

func New(seed int64, pal Palette) *Generator {
	return &Generator{
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		seed:       seed,
		pal:        pal,
		baseHeight: 12,
		amplitude:  8,
		frequency:  0.02,
		soilDepth:  3,
	}
}

// Populate fills grid with a heightmap column per (x,z): rock below,
// soil near the top, surface on top. Chunks entirely above the
// terrain stay empty.
func (g *Generator) Populate(key world.ChunkKey, grid *world.VoxelGrid) {
	nx, ny, nz := grid.Counts()
	for x := 0; x < nx; x++ {
		wx := key.CX*nx + x
		for z := 0; z < nz; z++ {
			wz := key.CZ*nz + z
			n := g.noise.Noise2D(float64(wx)*g.frequency, float64(wz)*g.frequency)
			height := g.baseHeight + int(n*g.amplitude)
			if height < 1 {
				height = 1
			}
			for y := 0; y < ny; y++ {
				wy := key.CY*ny + y
				if wy >= height {
					break
				}
				id, color := g.pal.Rock, g.pal.RockColor
				switch {
				case wy == height-1:
					id, color = g.pal.Surface, g.pal.SurfaceColor
				case wy >= height-1-g.soilDepth:
					id, color = g.pal.Soil, g.pal.SoilColor
				}
				grid.SetBlock(x, y, z, id, g.jitter(color, wx, wy, wz))
			}
		}
	}
}

// jitter darkens the base color by a deterministic per-voxel amount so
// flat terrain does not render as one solid slab of color.
func (g *Generator) jitter(c world.RGBA, wx, wy, wz int) world.RGBA {
	h := mathx.Hash3(g.seed, wx, wy, wz)
	d := uint8(h % 24)
	return world.RGBA{
		R: subClamp(c.R, d),
		G: subClamp(c.G, d),
		B: subClamp(c.B, d),
		A: c.A,
	}
}

func subClamp(v, d uint8) uint8 {
	if v < d {
		return 0
	}
	return v - d
}
