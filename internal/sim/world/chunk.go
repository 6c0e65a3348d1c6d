package world

// chunkState is the streaming lifecycle of one chunk slot.
type chunkState uint8

const (
	chunkIdle chunkState = iota
	chunkLoading
	chunkActive
)

// ChunkMesh is the renderer-ready output of one chunk rebuild: a
// shared vertex buffer set plus one index list per material batch.
// The lists are parallel-indexed; each batch's indices reference the
// shared buffers as a triangle list.
type ChunkMesh struct {
	Positions *BoundedList[[3]float32]
	Normals   *BoundedList[[3]float32]
	Colors    *BoundedList[[4]uint8]
	UVs       *BoundedList[[2]float32]

	// Batches holds the index buffers checked out of the world's
	// submesh pool for the current rebuild, in batch order.
	Batches []*SubmeshBuffer

	// FaceCount is the number of faces emitted by the last rebuild.
	FaceCount int
	// Truncated reports that the last rebuild hit the face budget.
	Truncated bool

	// prevVerts remembers the previous rebuild's vertex count so
	// stale slots can be neutralized.
	prevVerts int
}

func newChunkMesh(maxFaces int) ChunkMesh {
	maxVerts := maxFaces * 4
	return ChunkMesh{
		Positions: NewBoundedList[[3]float32](maxVerts),
		Normals:   NewBoundedList[[3]float32](maxVerts),
		Colors:    NewBoundedList[[4]uint8](maxVerts),
		UVs:       NewBoundedList[[2]float32](maxVerts),
	}
}

// Chunk owns one voxel grid and the geometry built from it. Chunk
// objects are pooled: an unload clears the chunk and returns it to the
// idle pool, it is never destroyed while the world lives.
type Chunk struct {
	Key  ChunkKey
	Grid *VoxelGrid
	Mesh ChunkMesh

	dirty bool
	state chunkState
}

func newChunk(counts Vec3i, maxFaces int) *Chunk {
	return &Chunk{
		Grid: NewVoxelGrid(counts.X, counts.Y, counts.Z),
		Mesh: newChunkMesh(maxFaces),
	}
}

func (c *Chunk) Dirty() bool { return c.dirty }

// MarkDirty schedules the chunk for a rebuild on a following tick.
func (c *Chunk) MarkDirty() { c.dirty = true }

// initialize prepares a pooled chunk for a new lifetime at key.
func (c *Chunk) initialize(key ChunkKey) {
	c.Key = key
	c.Grid.ResetAll()
	c.dirty = false
	c.state = chunkLoading
}

// tearDown clears the chunk and returns its batch buffers to the pool.
// prevVerts keeps the pre-clear length: the next rebuild of this slot
// must still neutralize the stale vertex slots it leaves behind.
func (c *Chunk) tearDown(pool *SubmeshPool) {
	for _, b := range c.Mesh.Batches {
		pool.Release(b)
	}
	c.Mesh.Batches = c.Mesh.Batches[:0]
	c.Mesh.prevVerts = c.Mesh.Positions.Len()
	c.Mesh.Positions.Clear()
	c.Mesh.Normals.Clear()
	c.Mesh.Colors.Clear()
	c.Mesh.UVs.Clear()
	c.Mesh.FaceCount = 0
	c.Mesh.Truncated = false
	c.Grid.ResetAll()
	c.dirty = false
	c.state = chunkIdle
}

// SubmeshBuffer is one material batch's index list. Its backing
// storage belongs to the world's submesh pool and is never aliased by
// two chunks at once.
type SubmeshBuffer struct {
	Indices *BoundedList[uint32]

	prevLen    int
	checkedOut bool
}

// SubmeshPool hands out reusable index buffers. It grows lazily and
// never shrinks; excess buffers stay idle for future rebuilds of any
// chunk.
type SubmeshPool struct {
	idle     []*SubmeshBuffer
	indexCap int
	total    int
}

func NewSubmeshPool(maxFaces int) *SubmeshPool {
	return &SubmeshPool{indexCap: maxFaces * 6}
}

func (p *SubmeshPool) Acquire() *SubmeshBuffer {
	var b *SubmeshBuffer
	if n := len(p.idle); n > 0 {
		b = p.idle[n-1]
		p.idle = p.idle[:n-1]
	} else {
		b = &SubmeshBuffer{Indices: NewBoundedList[uint32](p.indexCap)}
		p.total++
	}
	b.checkedOut = true
	return b
}

func (p *SubmeshPool) Release(b *SubmeshBuffer) {
	if !b.checkedOut {
		panic("submesh pool: double release")
	}
	b.checkedOut = false
	b.prevLen = b.Indices.Len()
	b.Indices.Clear()
	p.idle = append(p.idle, b)
}

// TotalAllocated is the number of buffers ever created by this pool.
func (p *SubmeshPool) TotalAllocated() int { return p.total }

func (p *SubmeshPool) IdleCount() int { return len(p.idle) }
