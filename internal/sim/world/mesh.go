package world

import "log"

const noBatch = -1

// MeshBuilder rebuilds one chunk's surface geometry from its voxel
// grid. Every rebuild re-derives the mesh from scratch: batch
// discovery, face culling, then emission into the chunk's reusable
// buffers. The builder owns per-rebuild scratch tables so steady-state
// rebuilds allocate nothing.
type MeshBuilder struct {
	types     []BlockType
	voxelDims Vec3f
	maxFaces  int
	pool      *SubmeshPool
	logger    *log.Logger

	// typeBatch maps BlockID to its batch index for the rebuild in
	// progress, matBatch does the same per material. Both reset to
	// noBatch at the start of every rebuild.
	typeBatch []int16
	matBatch  []int16

	budgetHits uint64
}

func NewMeshBuilder(types []BlockType, materialCount int, voxelDims Vec3f, maxFaces int, pool *SubmeshPool, logger *log.Logger) *MeshBuilder {
	return &MeshBuilder{
		types:     types,
		voxelDims: voxelDims,
		maxFaces:  maxFaces,
		pool:      pool,
		logger:    logger,
		typeBatch: make([]int16, len(types)),
		matBatch:  make([]int16, materialCount),
	}
}

// BudgetExceeded reports how many rebuilds were truncated by the face
// budget since construction.
func (b *MeshBuilder) BudgetExceeded() uint64 { return b.budgetHits }

// Rebuild regenerates c's mesh from its current grid contents and
// clears the dirty flag. Exceeding the face budget truncates the
// result (order-dependent partial mesh) and reports a diagnostic; it
// is never fatal.
func (b *MeshBuilder) Rebuild(c *Chunk) {
	batches := b.discoverBatches(c.Grid)

	for _, buf := range c.Mesh.Batches {
		b.pool.Release(buf)
	}
	if cap(c.Mesh.Batches) < batches {
		c.Mesh.Batches = make([]*SubmeshBuffer, 0, batches)
	} else {
		c.Mesh.Batches = c.Mesh.Batches[:0]
	}
	for i := 0; i < batches; i++ {
		c.Mesh.Batches = append(c.Mesh.Batches, b.pool.Acquire())
	}

	prevVerts := c.Mesh.prevVerts
	if n := c.Mesh.Positions.Len(); n > prevVerts {
		prevVerts = n
	}
	c.Mesh.Positions.Clear()
	c.Mesh.Normals.Clear()
	c.Mesh.Colors.Clear()
	c.Mesh.UVs.Clear()

	faces, truncated := b.emit(c)

	c.Mesh.FaceCount = faces
	c.Mesh.Truncated = truncated
	b.neutralize(&c.Mesh, prevVerts)
	c.Mesh.prevVerts = c.Mesh.Positions.Len()
	c.dirty = false

	if truncated {
		b.budgetHits++
		if b.logger != nil {
			b.logger.Printf("chunk %v: face budget %d exceeded, mesh truncated", c.Key.Vec().ToArray(), b.maxFaces)
		}
	}
}

// discoverBatches scans every non-empty voxel once and assigns each
// distinct material a batch index in first-seen order. Material
// assignment can change per type at runtime, so the mapping is rebuilt
// every call.
func (b *MeshBuilder) discoverBatches(g *VoxelGrid) int {
	for i := range b.typeBatch {
		b.typeBatch[i] = noBatch
	}
	for i := range b.matBatch {
		b.matBatch[i] = noBatch
	}
	next := int16(0)
	for i, n := 0, g.Len(); i < n; i++ {
		t := g.AtFlat(i).Type
		if t == Empty || b.typeBatch[t] != noBatch {
			continue
		}
		m := b.types[t].Material
		if b.matBatch[m] == noBatch {
			b.matBatch[m] = next
			next++
		}
		b.typeBatch[t] = b.matBatch[m]
	}
	return int(next)
}

func (b *MeshBuilder) emit(c *Chunk) (faces int, truncated bool) {
	g := c.Grid
	nx, ny, nz := g.Counts()
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				cell := g.At(x, y, z)
				if cell.Type == Empty {
					continue
				}
				bt := b.types[cell.Type]
				batch := c.Mesh.Batches[b.typeBatch[cell.Type]]
				for f := Face(0); f < FaceCount; f++ {
					if bt.Ignore.Has(f) {
						continue
					}
					// Same-chunk neighbor culling only: faces at the
					// chunk boundary always render both sides.
					n := f.Normal()
					ax, ay, az := x+n.X, y+n.Y, z+n.Z
					if g.InBounds(ax, ay, az) && g.IsSolid(ax, ay, az) {
						continue
					}
					if faces == b.maxFaces {
						return faces, true
					}
					b.emitFace(&c.Mesh, batch, f, x, y, z, cell.Color)
					faces++
				}
			}
		}
	}
	return faces, false
}

// emitFace appends one quad: 4 vertices, 4 normals, 4 UV corners,
// 4 colors, and 2 triangles winding outward.
func (b *MeshBuilder) emitFace(m *ChunkMesh, batch *SubmeshBuffer, f Face, x, y, z int, color RGBA) {
	base := uint32(m.Positions.Len())
	n := f.Normal()
	normal := [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
	rgba := [4]uint8{color.R, color.G, color.B, color.A}
	for i := 0; i < 4; i++ {
		corner := faceCorners[f][i]
		m.Positions.Push([3]float32{
			float32((float64(x) + corner[0]) * b.voxelDims.X),
			float32((float64(y) + corner[1]) * b.voxelDims.Y),
			float32((float64(z) + corner[2]) * b.voxelDims.Z),
		})
		m.Normals.Push(normal)
		m.Colors.Push(rgba)
		m.UVs.Push(faceUVs[i])
	}
	batch.Indices.Push(base)
	batch.Indices.Push(base + 1)
	batch.Indices.Push(base + 2)
	batch.Indices.Push(base)
	batch.Indices.Push(base + 2)
	batch.Indices.Push(base + 3)
}

// neutralize overwrites slots between the new content length and the
// previous rebuild's length so leftover high indices never reference
// stale vertices: zero position/normal/UV, opaque white color, zero
// index.
func (b *MeshBuilder) neutralize(m *ChunkMesh, prevVerts int) {
	newLen := m.Positions.Len()
	pos, nrm, col, uv := m.Positions.Raw(), m.Normals.Raw(), m.Colors.Raw(), m.UVs.Raw()
	for i := newLen; i < prevVerts; i++ {
		pos[i] = [3]float32{}
		nrm[i] = [3]float32{}
		col[i] = [4]uint8{255, 255, 255, 255}
		uv[i] = [2]float32{}
	}
	for _, batch := range m.Batches {
		n := batch.Indices.Len()
		prev := batch.prevLen
		raw := batch.Indices.Raw()
		for i := n; i < prev; i++ {
			raw[i] = 0
		}
		batch.prevLen = n
	}
}
