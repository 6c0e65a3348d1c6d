package world

import "fmt"

// Cell is one voxel: a block type and its color. Type Empty means no
// geometry and no collision; its color is meaningless.
type Cell struct {
	Type  BlockID
	Color RGBA
}

// VoxelGrid is the dense block grid of a single chunk. Dimensions are
// fixed at construction; the grid is allocated once per chunk slot and
// reset on recycle, never resized. Out-of-range access is a
// programming error and panics; validated public entry points live on
// World.
type VoxelGrid struct {
	nx, ny, nz int
	cells      []Cell
}

func NewVoxelGrid(nx, ny, nz int) *VoxelGrid {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic(fmt.Sprintf("voxel grid: non-positive dimensions %dx%dx%d", nx, ny, nz))
	}
	return &VoxelGrid{nx: nx, ny: ny, nz: nz, cells: make([]Cell, nx*ny*nz)}
}

func (g *VoxelGrid) Counts() (nx, ny, nz int) { return g.nx, g.ny, g.nz }

func (g *VoxelGrid) Len() int { return len(g.cells) }

func (g *VoxelGrid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.nx && y >= 0 && y < g.ny && z >= 0 && z < g.nz
}

// FlatIndex maps (x,y,z) to the flat cell index, x-major, z-minor.
func (g *VoxelGrid) FlatIndex(x, y, z int) int {
	if !g.InBounds(x, y, z) {
		panic(fmt.Sprintf("voxel grid: index (%d,%d,%d) out of range %dx%dx%d", x, y, z, g.nx, g.ny, g.nz))
	}
	return x*g.ny*g.nz + y*g.nz + z
}

func (g *VoxelGrid) At(x, y, z int) Cell { return g.cells[g.FlatIndex(x, y, z)] }

func (g *VoxelGrid) AtFlat(i int) Cell { return g.cells[i] }

func (g *VoxelGrid) SetFlat(i int, c Cell) { g.cells[i] = c }

func (g *VoxelGrid) Set(x, y, z int, c Cell) { g.cells[g.FlatIndex(x, y, z)] = c }

func (g *VoxelGrid) SetBlock(x, y, z int, id BlockID, color RGBA) {
	g.Set(x, y, z, Cell{Type: id, Color: color})
}

// ClearBlock resets one cell to Empty with a zero color.
func (g *VoxelGrid) ClearBlock(x, y, z int) {
	g.cells[g.FlatIndex(x, y, z)] = Cell{}
}

func (g *VoxelGrid) IsSolid(x, y, z int) bool { return g.At(x, y, z).Type != Empty }

// ResetAll clears every cell to Empty.
func (g *VoxelGrid) ResetAll() {
	for i := range g.cells {
		g.cells[i] = Cell{}
	}
}
