package world

// Chunk streaming: the per-index lifecycle is
// Idle -> Loading -> Active -> Idle. The window recompute runs only
// when the anchor crosses into a different minimum-chunk-index cell,
// which keeps anchor jitter at cell boundaries from thrashing loads.

// LoadChunk requests residency for key. An idle pooled chunk is
// repurposed when available, otherwise one is allocated. Loading a
// chunk that is already pending or active is a protocol error: it is
// reported and ignored.
func (w *World) LoadChunk(key ChunkKey) {
	if key.CX < 0 || key.CY < 0 || key.CZ < 0 {
		w.counters.InvalidLoads++
		w.logf("load chunk %v: index outside world range", key.Vec().ToArray())
		return
	}
	if _, ok := w.pending[key]; ok {
		w.counters.DuplicateLoads++
		w.logf("load chunk %v: already pending", key.Vec().ToArray())
		return
	}
	if _, ok := w.active[key]; ok {
		w.counters.DuplicateLoads++
		w.logf("load chunk %v: already active", key.Vec().ToArray())
		return
	}
	c := w.acquireChunk()
	c.initialize(key)
	w.pending[key] = c
	w.counters.Loads++
}

// UnloadChunk releases the chunk at key. A pending load is simply
// cancelled; an active chunk notifies the host first, then its mesh
// and grid state are cleared and the object returns to the idle pool.
// Unloading a chunk that is neither pending nor active is a protocol
// error: reported and ignored.
func (w *World) UnloadChunk(key ChunkKey) {
	if c, ok := w.pending[key]; ok {
		delete(w.pending, key)
		c.tearDown(w.pool)
		w.idle = append(w.idle, c)
		w.counters.Unloads++
		return
	}
	c, ok := w.active[key]
	if !ok {
		w.counters.BadUnloads++
		w.logf("unload chunk %v: not resident", key.Vec().ToArray())
		return
	}
	if w.cfg.OnChunkUnload != nil {
		w.cfg.OnChunkUnload(w, key)
	}
	delete(w.active, key)
	c.tearDown(w.pool)
	w.idle = append(w.idle, c)
	w.counters.Unloads++
}

func (w *World) acquireChunk() *Chunk {
	if n := len(w.idle); n > 0 {
		c := w.idle[n-1]
		w.idle = w.idle[:n-1]
		return c
	}
	return newChunk(w.cfg.ChunkCounts, w.cfg.MaxVisibleFaces)
}

// promoteLoads activates every pending chunk: the host populates the
// grid synchronously, then the chunk is marked dirty for its first
// rebuild.
func (w *World) promoteLoads() {
	for key, c := range w.pending {
		delete(w.pending, key)
		c.state = chunkActive
		w.active[key] = c
		if w.cfg.OnChunkLoad != nil {
			w.cfg.OnChunkLoad(w, key, c.Grid)
		}
		c.MarkDirty()
	}
}

// rebuildDirty rebuilds at most MaxRebuildsPerTick active dirty chunks
// (unlimited when zero or negative). Consideration order is map
// iteration order over the active set, deliberately unprioritized.
func (w *World) rebuildDirty() {
	budget := w.cfg.MaxRebuildsPerTick
	done := 0
	for _, c := range w.active {
		if budget > 0 && done == budget {
			return
		}
		if !c.dirty {
			continue
		}
		w.builder.Rebuild(c)
		w.counters.Rebuilds++
		done++
	}
}

// updateWindow recomputes the resident window around the anchor. The
// window is the axis-aligned chunk box [min, min+extent); min moves
// only when the anchor's minimum-chunk-index cell changes. Old-window
// chunks outside the new window unload, new-window chunks outside the
// old window load. Indices with any negative coordinate are skipped:
// the world has a zero lower bound and an open upper bound per axis.
func (w *World) updateWindow() {
	center := w.chunkOf(w.voxelOf(w.anchor))
	min := ChunkKey{
		CX: center.CX - w.cfg.WindowExtent.X/2,
		CY: center.CY - w.cfg.WindowExtent.Y/2,
		CZ: center.CZ - w.cfg.WindowExtent.Z/2,
	}
	if w.hasPrevMin && min == w.prevMin {
		return
	}

	ext := w.cfg.WindowExtent
	if w.hasPrevMin {
		old := w.prevMin
		for cx := old.CX; cx < old.CX+ext.X; cx++ {
			for cy := old.CY; cy < old.CY+ext.Y; cy++ {
				for cz := old.CZ; cz < old.CZ+ext.Z; cz++ {
					if cx < 0 || cy < 0 || cz < 0 {
						continue
					}
					if inWindow(cx, cy, cz, min, ext) {
						continue
					}
					w.UnloadChunk(ChunkKey{CX: cx, CY: cy, CZ: cz})
				}
			}
		}
	}
	for cx := min.CX; cx < min.CX+ext.X; cx++ {
		for cy := min.CY; cy < min.CY+ext.Y; cy++ {
			for cz := min.CZ; cz < min.CZ+ext.Z; cz++ {
				if cx < 0 || cy < 0 || cz < 0 {
					continue
				}
				if w.hasPrevMin && inWindow(cx, cy, cz, w.prevMin, ext) {
					continue
				}
				w.LoadChunk(ChunkKey{CX: cx, CY: cy, CZ: cz})
			}
		}
	}
	w.prevMin = min
	w.hasPrevMin = true
}

func inWindow(cx, cy, cz int, min ChunkKey, ext Vec3i) bool {
	return cx >= min.CX && cx < min.CX+ext.X &&
		cy >= min.CY && cy < min.CY+ext.Y &&
		cz >= min.CZ && cz < min.CZ+ext.Z
}
