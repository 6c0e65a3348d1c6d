package world

import (
	"fmt"
	"log"

	"voxelforge.dev/internal/sim/catalogs"
)

// MaterialID indexes the world's material palette. The palette entries
// themselves are opaque renderer handles; the engine never inspects
// them.
type MaterialID int

// BlockType is the engine-side description of one voxel type, built
// from the catalog at world configuration and immutable afterwards.
type BlockType struct {
	ID       BlockID
	Name     string
	Material MaterialID
	Color    RGBA
	Ignore   FaceMask
}

// Config carries everything a World needs at construction. Host
// callbacks run synchronously on the tick thread.
type Config struct {
	// ChunkCounts is the voxel grid size of every chunk.
	ChunkCounts Vec3i
	// VoxelDims is the world-space size of one voxel.
	VoxelDims Vec3f
	// WindowExtent is the streaming window size in chunks per axis.
	WindowExtent Vec3i
	// MaxVisibleFaces caps emitted faces per chunk rebuild.
	MaxVisibleFaces int
	// MaxRebuildsPerTick limits dirty-chunk rebuilds per tick.
	// Zero or negative means unlimited.
	MaxRebuildsPerTick int

	OnChunkLoad   func(w *World, key ChunkKey, g *VoxelGrid)
	OnChunkUnload func(w *World, key ChunkKey)

	Logger *log.Logger
}

var faceByName = map[string]Face{
	"-x": FaceNegX, "+x": FacePosX,
	"-y": FaceNegY, "+y": FacePosY,
	"-z": FaceNegZ, "+z": FacePosZ,
}

// BuildBlockTable converts a validated catalog into the engine block
// table, indexed by BlockID, plus the material palette. Slot 0 stays
// the empty type.
func BuildBlockTable(cat catalogs.BlockCatalog) ([]BlockType, []string, error) {
	palette := cat.Materials()
	matIndex := make(map[string]MaterialID, len(palette))
	for i, m := range palette {
		matIndex[m] = MaterialID(i)
	}

	table := make([]BlockType, int(cat.MaxID)+1)
	for i := range table {
		table[i].Material = -1
	}
	for _, d := range cat.Defs {
		var mask FaceMask
		for _, name := range d.IgnoreFaces {
			f, ok := faceByName[name]
			if !ok {
				return nil, nil, fmt.Errorf("block %q: unknown face %q", d.Name, name)
			}
			mask |= 1 << f
		}
		table[d.ID] = BlockType{
			ID:       BlockID(d.ID),
			Name:     d.Name,
			Material: matIndex[d.Material],
			Color:    RGBA{R: d.Color[0], G: d.Color[1], B: d.Color[2], A: d.Color[3]},
			Ignore:   mask,
		}
	}
	return table, palette, nil
}

func (c Config) validate() error {
	if c.ChunkCounts.X <= 0 || c.ChunkCounts.Y <= 0 || c.ChunkCounts.Z <= 0 {
		return fmt.Errorf("chunk counts must be positive, got %v", c.ChunkCounts.ToArray())
	}
	if c.VoxelDims.X <= 0 || c.VoxelDims.Y <= 0 || c.VoxelDims.Z <= 0 {
		return fmt.Errorf("voxel dims must be positive, got %v", c.VoxelDims.ToArray())
	}
	if c.WindowExtent.X <= 0 || c.WindowExtent.Y <= 0 || c.WindowExtent.Z <= 0 {
		return fmt.Errorf("window extent must be positive, got %v", c.WindowExtent.ToArray())
	}
	if c.MaxVisibleFaces <= 0 {
		return fmt.Errorf("max visible faces must be positive, got %d", c.MaxVisibleFaces)
	}
	return nil
}
