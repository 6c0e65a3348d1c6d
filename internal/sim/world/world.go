package world

import (
	"fmt"
	"log"

	"voxelforge.dev/internal/sim/world/logic/mathx"
)

// World is a single-threaded voxel chunk engine. All mutation (voxel
// edits, chunk load/unload, mesh rebuilds, raycasts) must run on the
// tick thread; the engine provides no internal synchronization.
type World struct {
	cfg     Config
	types   []BlockType
	palette []string

	pool    *SubmeshPool
	builder *MeshBuilder

	// Streaming controller state. Exclusively owned: nothing else
	// mutates chunk lifecycle.
	active  map[ChunkKey]*Chunk
	pending map[ChunkKey]*Chunk
	idle    []*Chunk

	anchor     Vec3f
	prevMin    ChunkKey
	hasPrevMin bool

	tick     uint64
	counters Counters
	logger   *log.Logger
}

// Counters are cumulative diagnostic counts. Capacity and protocol
// errors degrade gracefully and are tallied here rather than failing.
type Counters struct {
	Loads             uint64
	Unloads           uint64
	Rebuilds          uint64
	DuplicateLoads    uint64
	InvalidLoads      uint64
	BadUnloads        uint64
	TruncatedRebuilds uint64
	RaycastAborts     uint64
}

// NewWorld validates cfg and the block table. Configuration errors are
// fatal to this call; the world is unusable until corrected.
func NewWorld(cfg Config, types []BlockType, palette []string) (*World, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}
	if len(types) < 2 {
		return nil, fmt.Errorf("world config: block table declares no types")
	}
	for id := 1; id < len(types); id++ {
		t := types[id]
		if t.ID == Empty {
			continue // gap in the id space
		}
		if t.Material < 0 || int(t.Material) >= len(palette) {
			return nil, fmt.Errorf("world config: block %q: material out of palette range", t.Name)
		}
	}
	pool := NewSubmeshPool(cfg.MaxVisibleFaces)
	w := &World{
		cfg:     cfg,
		types:   types,
		palette: palette,
		pool:    pool,
		builder: NewMeshBuilder(types, len(palette), cfg.VoxelDims, cfg.MaxVisibleFaces, pool, cfg.Logger),
		active:  make(map[ChunkKey]*Chunk),
		pending: make(map[ChunkKey]*Chunk),
		logger:  cfg.Logger,
	}
	return w, nil
}

func (w *World) Config() Config { return w.cfg }

func (w *World) MaterialPalette() []string { return w.palette }

func (w *World) BlockTypes() []BlockType { return w.types }

func (w *World) CurrentTick() uint64 { return w.tick }

func (w *World) Counters() Counters {
	c := w.counters
	c.TruncatedRebuilds = w.builder.BudgetExceeded()
	return c
}

func (w *World) SetAnchor(p Vec3f) { w.anchor = p }

func (w *World) Anchor() Vec3f { return w.anchor }

// Tick advances the world one step: window recompute, promotion of
// pending loads, then rate-limited rebuilds. Loads promote before
// rebuilds so a just-loaded chunk can rebuild the same tick.
func (w *World) Tick() {
	w.updateWindow()
	w.promoteLoads()
	w.rebuildDirty()
	w.tick++
}

// Chunk returns the active chunk at key.
func (w *World) Chunk(key ChunkKey) (*Chunk, bool) {
	c, ok := w.active[key]
	return c, ok
}

func (w *World) ActiveCount() int { return len(w.active) }

// ForEachActive visits every active chunk in map iteration order.
func (w *World) ForEachActive(fn func(*Chunk)) {
	for _, c := range w.active {
		fn(c)
	}
}

func (w *World) PendingCount() int { return len(w.pending) }

func (w *World) IdleCount() int { return len(w.idle) }

// SubmeshPoolStats reports (total allocated, idle) submesh buffers.
func (w *World) SubmeshPoolStats() (int, int) {
	return w.pool.TotalAllocated(), w.pool.IdleCount()
}

// chunkOf maps a world voxel coordinate to its chunk key.
func (w *World) chunkOf(v Vec3i) ChunkKey {
	return ChunkKey{
		CX: mathx.FloorDiv(v.X, w.cfg.ChunkCounts.X),
		CY: mathx.FloorDiv(v.Y, w.cfg.ChunkCounts.Y),
		CZ: mathx.FloorDiv(v.Z, w.cfg.ChunkCounts.Z),
	}
}

// localOf maps a world voxel coordinate to chunk-local grid indices.
func (w *World) localOf(v Vec3i) (int, int, int) {
	return mathx.Mod(v.X, w.cfg.ChunkCounts.X),
		mathx.Mod(v.Y, w.cfg.ChunkCounts.Y),
		mathx.Mod(v.Z, w.cfg.ChunkCounts.Z)
}

// voxelOf maps a world-space position to its voxel coordinate.
func (w *World) voxelOf(p Vec3f) Vec3i {
	return Vec3i{
		X: floorToInt(p.X / w.cfg.VoxelDims.X),
		Y: floorToInt(p.Y / w.cfg.VoxelDims.Y),
		Z: floorToInt(p.Z / w.cfg.VoxelDims.Z),
	}
}

// VoxelAt reads the cell at a world voxel coordinate. ok is false when
// the coordinate is out of world range or its chunk is not resident.
func (w *World) VoxelAt(v Vec3i) (Cell, bool) {
	if v.X < 0 || v.Y < 0 || v.Z < 0 {
		return Cell{}, false
	}
	c, ok := w.active[w.chunkOf(v)]
	if !ok {
		return Cell{}, false
	}
	x, y, z := w.localOf(v)
	return c.Grid.At(x, y, z), true
}

// SetVoxel writes one voxel and marks its chunk dirty. Returns false
// when the target chunk is not resident.
func (w *World) SetVoxel(v Vec3i, id BlockID, color RGBA) bool {
	if v.X < 0 || v.Y < 0 || v.Z < 0 {
		return false
	}
	c, ok := w.active[w.chunkOf(v)]
	if !ok {
		return false
	}
	x, y, z := w.localOf(v)
	c.Grid.SetBlock(x, y, z, id, color)
	c.MarkDirty()
	return true
}

// ClearVoxel empties one voxel and marks its chunk dirty.
func (w *World) ClearVoxel(v Vec3i) bool {
	if v.X < 0 || v.Y < 0 || v.Z < 0 {
		return false
	}
	c, ok := w.active[w.chunkOf(v)]
	if !ok {
		return false
	}
	x, y, z := w.localOf(v)
	c.Grid.ClearBlock(x, y, z)
	c.MarkDirty()
	return true
}

// solidAt reports whether the voxel at v is non-empty. Voxels in
// non-resident chunks read as empty; the caller handles world bounds.
func (w *World) solidAt(v Vec3i) bool {
	cell, ok := w.VoxelAt(v)
	return ok && cell.Type != Empty
}

func (w *World) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}
