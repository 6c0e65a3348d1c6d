package world

import "testing"

func TestTickLoadsInitialWindow(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.SetAnchor(Vec3f{X: 0, Y: 0, Z: 0})
	w.Tick()

	// Anchor in chunk (0,0,0) with a 2-extent window places the window
	// minimum at (-1,-1,-1); only the non-negative corner loads.
	if w.ActiveCount() != 1 {
		t.Fatalf("active: got %d want 1", w.ActiveCount())
	}
	if _, ok := w.Chunk(ChunkKey{}); !ok {
		t.Fatalf("chunk (0,0,0) not active")
	}
	if c := w.Counters(); c.Loads != 1 || c.Unloads != 0 {
		t.Fatalf("counters: %+v", c)
	}
}

func TestWindowHysteresisWithinCell(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.Tick()
	loads := w.Counters().Loads

	// Anywhere inside chunk (0,0,0) maps to the same window minimum:
	// jitter must not trigger loads or unloads.
	for _, p := range []Vec3f{{X: 0.2, Y: 0.2, Z: 0.2}, {X: 3.9, Y: 3.9, Z: 3.9}, {X: 1, Y: 3, Z: 2}} {
		w.SetAnchor(p)
		w.Tick()
	}
	c := w.Counters()
	if c.Loads != loads || c.Unloads != 0 {
		t.Fatalf("window thrashed on anchor jitter: %+v", c)
	}
}

func TestWindowMoveLoadsAndUnloadsDelta(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.SetAnchor(Vec3f{X: 4, Y: 4, Z: 4}) // chunk (1,1,1), window [0,2)^3
	w.Tick()
	if w.ActiveCount() != 8 {
		t.Fatalf("active after first window: got %d want 8", w.ActiveCount())
	}

	w.SetAnchor(Vec3f{X: 8, Y: 8, Z: 8}) // chunk (2,2,2), window [1,3)^3
	w.Tick()
	if w.ActiveCount() != 8 {
		t.Fatalf("active after move: got %d want 8", w.ActiveCount())
	}
	c := w.Counters()
	// Windows share the single cell (1,1,1): 7 out, 7 in.
	if c.Loads != 15 || c.Unloads != 7 {
		t.Fatalf("window delta wrong: %+v", c)
	}
	if _, ok := w.Chunk(ChunkKey{}); ok {
		t.Fatalf("chunk (0,0,0) should have unloaded")
	}
	if _, ok := w.Chunk(ChunkKey{CX: 2, CY: 2, CZ: 2}); !ok {
		t.Fatalf("chunk (2,2,2) should have loaded")
	}
}

func TestWindowMoveReusesIdleChunks(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.SetAnchor(Vec3f{X: 4, Y: 4, Z: 4})
	w.Tick()
	w.SetAnchor(Vec3f{X: 8, Y: 8, Z: 8})
	w.Tick()

	// Unloads precede loads inside one window recompute, so every
	// incoming chunk reuses an object the outgoing side just pooled.
	if w.IdleCount() != 0 {
		t.Fatalf("idle: got %d want 0 (full reuse)", w.IdleCount())
	}
	if w.ActiveCount() != 8 {
		t.Fatalf("active: got %d want 8", w.ActiveCount())
	}
}

func TestLoadChunkRejectsNegativeIndex(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.LoadChunk(ChunkKey{CX: -1, CY: 0, CZ: 0})
	if w.PendingCount() != 0 {
		t.Fatalf("negative index went pending")
	}
	if c := w.Counters(); c.InvalidLoads != 1 || c.Loads != 0 {
		t.Fatalf("counters: %+v", c)
	}
}

func TestLoadChunkDuplicateIsCountedAndIgnored(t *testing.T) {
	w := newTestWorld(t, testConfig())
	key := ChunkKey{CX: 1, CY: 0, CZ: 2}
	w.LoadChunk(key)
	w.LoadChunk(key) // still pending
	if c := w.Counters(); c.DuplicateLoads != 1 {
		t.Fatalf("pending duplicate not counted: %+v", c)
	}
	w.Tick()
	w.LoadChunk(key) // now active
	if c := w.Counters(); c.DuplicateLoads != 2 {
		t.Fatalf("active duplicate not counted: %+v", c)
	}
	if w.PendingCount() != 0 {
		t.Fatalf("duplicate created a pending entry")
	}
}

func TestUnloadChunkNotResident(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.UnloadChunk(ChunkKey{CX: 9, CY: 9, CZ: 9})
	if c := w.Counters(); c.BadUnloads != 1 || c.Unloads != 0 {
		t.Fatalf("counters: %+v", c)
	}
}

func TestUnloadCancelsPendingLoad(t *testing.T) {
	loaded := make(map[ChunkKey]bool)
	cfg := testConfig()
	cfg.OnChunkLoad = func(_ *World, key ChunkKey, _ *VoxelGrid) { loaded[key] = true }
	w := newTestWorld(t, cfg)

	key := ChunkKey{CX: 0, CY: 1, CZ: 0}
	w.LoadChunk(key)
	w.UnloadChunk(key)
	if w.PendingCount() != 0 || w.IdleCount() != 1 {
		t.Fatalf("pending=%d idle=%d after cancel", w.PendingCount(), w.IdleCount())
	}
	w.Tick()
	if loaded[key] {
		t.Fatalf("cancelled load still reached the host")
	}
}

func TestLoadUnloadCallbacks(t *testing.T) {
	var loads, unloads []ChunkKey
	cfg := testConfig()
	cfg.OnChunkLoad = func(_ *World, key ChunkKey, g *VoxelGrid) {
		loads = append(loads, key)
		g.SetBlock(0, 0, 0, 1, RGBA{A: 255})
	}
	cfg.OnChunkUnload = func(w *World, key ChunkKey) {
		// The chunk must still be readable during the unload notice.
		if _, ok := w.Chunk(key); !ok {
			t.Errorf("chunk %v already gone during unload callback", key)
		}
		unloads = append(unloads, key)
	}
	w := newTestWorld(t, cfg)

	key := ChunkKey{CX: 2, CY: 0, CZ: 0}
	w.LoadChunk(key)
	w.Tick() // also loads the window chunk at (0,0,0)
	seen := false
	for _, k := range loads {
		if k == key {
			seen = true
		}
	}
	if len(loads) != 2 || !seen {
		t.Fatalf("load callbacks: %v", loads)
	}
	c, ok := w.Chunk(key)
	if !ok {
		t.Fatalf("chunk not active after promote")
	}
	if c.Mesh.FaceCount != 6 {
		t.Fatalf("host-populated chunk not rebuilt same tick: %d faces", c.Mesh.FaceCount)
	}

	w.UnloadChunk(key)
	if len(unloads) != 1 || unloads[0] != key {
		t.Fatalf("unload callbacks: %v", unloads)
	}
	if w.IdleCount() != 1 {
		t.Fatalf("unloaded chunk not pooled")
	}
}

func TestPooledChunkComesBackClean(t *testing.T) {
	cfg := testConfig()
	cfg.OnChunkLoad = func(_ *World, _ ChunkKey, g *VoxelGrid) {
		g.SetBlock(1, 1, 1, 1, RGBA{R: 9, A: 255})
	}
	w := newTestWorld(t, cfg)

	a := ChunkKey{CX: 3, CY: 0, CZ: 0}
	w.LoadChunk(a)
	w.Tick()
	w.UnloadChunk(a)

	// Reuse the pooled object for a different key with a host that
	// writes nothing: no stale voxels may survive.
	b := ChunkKey{CX: 0, CY: 3, CZ: 0}
	w.cfg.OnChunkLoad = func(_ *World, _ ChunkKey, _ *VoxelGrid) {}
	w.LoadChunk(b)
	w.Tick()
	c, ok := w.Chunk(b)
	if !ok {
		t.Fatalf("chunk %v not active", b)
	}
	if c.Key != b {
		t.Fatalf("recycled chunk keeps old key: %v", c.Key)
	}
	if c.Grid.IsSolid(1, 1, 1) {
		t.Fatalf("recycled chunk keeps stale voxel")
	}
	if c.Mesh.FaceCount != 0 {
		t.Fatalf("recycled chunk keeps stale mesh: %d faces", c.Mesh.FaceCount)
	}
}

func TestRebuildThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRebuildsPerTick = 3
	cfg.OnChunkLoad = func(_ *World, _ ChunkKey, g *VoxelGrid) {
		g.SetBlock(0, 0, 0, 1, RGBA{A: 255})
	}
	w := newTestWorld(t, cfg)
	w.SetAnchor(Vec3f{X: 4, Y: 4, Z: 4})

	w.Tick()
	if c := w.Counters(); c.Rebuilds != 3 {
		t.Fatalf("first tick rebuilds: got %d want 3", c.Rebuilds)
	}
	w.Tick()
	w.Tick()
	if c := w.Counters(); c.Rebuilds != 8 {
		t.Fatalf("rebuild backlog not drained: got %d want 8", c.Rebuilds)
	}
	w.Tick()
	if c := w.Counters(); c.Rebuilds != 8 {
		t.Fatalf("clean chunks rebuilt again: got %d", c.Rebuilds)
	}
}

func TestRebuildUnthrottledWhenZero(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRebuildsPerTick = 0
	w := newTestWorld(t, cfg)
	w.SetAnchor(Vec3f{X: 4, Y: 4, Z: 4})
	w.Tick()
	if c := w.Counters(); c.Rebuilds != 8 {
		t.Fatalf("rebuilds: got %d want all 8 in one tick", c.Rebuilds)
	}
}

func TestSetVoxelMarksChunkDirty(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.Tick() // chunk (0,0,0) resident and clean

	if !w.SetVoxel(Vec3i{X: 1, Y: 2, Z: 3}, 1, RGBA{A: 255}) {
		t.Fatalf("set voxel failed on resident chunk")
	}
	c, _ := w.Chunk(ChunkKey{})
	if !c.Dirty() {
		t.Fatalf("edit did not mark chunk dirty")
	}
	w.Tick()
	if c.Dirty() {
		t.Fatalf("dirty chunk not rebuilt")
	}
	if c.Mesh.FaceCount != 6 {
		t.Fatalf("faces after edit: got %d want 6", c.Mesh.FaceCount)
	}

	if !w.ClearVoxel(Vec3i{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("clear voxel failed")
	}
	w.Tick()
	if c.Mesh.FaceCount != 0 {
		t.Fatalf("faces after clear: got %d want 0", c.Mesh.FaceCount)
	}
}

func TestVoxelAccessOutsideResidency(t *testing.T) {
	w := newTestWorld(t, testConfig())
	if _, ok := w.VoxelAt(Vec3i{X: 100, Y: 0, Z: 0}); ok {
		t.Fatalf("read from non-resident chunk succeeded")
	}
	if w.SetVoxel(Vec3i{X: 100, Y: 0, Z: 0}, 1, RGBA{A: 255}) {
		t.Fatalf("write to non-resident chunk succeeded")
	}
	if _, ok := w.VoxelAt(Vec3i{X: -1, Y: 0, Z: 0}); ok {
		t.Fatalf("read at negative coordinate succeeded")
	}
}

func TestVoxelCoordinateMapping(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.SetAnchor(Vec3f{X: 4, Y: 4, Z: 4})
	w.Tick()

	// World voxel (5,6,7) lives in chunk (1,1,1) at local (1,2,3).
	v := Vec3i{X: 5, Y: 6, Z: 7}
	if !w.SetVoxel(v, 2, RGBA{R: 1, A: 255}) {
		t.Fatalf("set voxel failed")
	}
	c, ok := w.Chunk(ChunkKey{CX: 1, CY: 1, CZ: 1})
	if !ok {
		t.Fatalf("chunk (1,1,1) not resident")
	}
	if !c.Grid.IsSolid(1, 2, 3) {
		t.Fatalf("voxel landed at the wrong local cell")
	}
	cell, ok := w.VoxelAt(v)
	if !ok || cell.Type != 2 {
		t.Fatalf("read back: %+v ok=%v", cell, ok)
	}
}
