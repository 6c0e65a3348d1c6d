// Package gridcodec reads and writes the versioned binary encoding of
// a voxel grid. Version 2 is the only supported version; an earlier
// magic-less layout existed historically and is deliberately not
// readable.
package gridcodec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"voxelforge.dev/internal/sim/world"
)

const (
	Magic   uint32 = 0x424C434B // "BLCK"
	Version uint32 = 2
)

type header struct {
	Magic   uint32
	Version uint32
	CountX  int32
	CountY  int32
	CountZ  int32
}

// Write encodes g: header, then one record per cell in x-major,
// z-minor order, each a solid flag byte plus r,g,b (written regardless
// of solidity, meaningless when not solid). Little-endian throughout.
func Write(w io.Writer, g *world.VoxelGrid) error {
	bw := bufio.NewWriter(w)
	nx, ny, nz := g.Counts()
	h := header{
		Magic:   Magic,
		Version: Version,
		CountX:  int32(nx),
		CountY:  int32(ny),
		CountZ:  int32(nz),
	}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("grid format: write header: %w", err)
	}
	var rec [4]byte
	for i, n := 0, g.Len(); i < n; i++ {
		c := g.AtFlat(i)
		rec[0] = 0
		if c.Type != world.Empty {
			rec[0] = 1
		}
		rec[1], rec[2], rec[3] = c.Color.R, c.Color.G, c.Color.B
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("grid format: write cells: %w", err)
		}
	}
	return bw.Flush()
}

// Read decodes a version-2 grid. Solid cells are assigned the given
// block type with their stored color restored opaque. Unknown magic or
// version is an explicit error and no partial grid is returned.
func Read(r io.Reader, solid world.BlockID) (*world.VoxelGrid, error) {
	h, br, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	g := world.NewVoxelGrid(int(h.CountX), int(h.CountY), int(h.CountZ))
	if err := readCells(br, g, solid); err != nil {
		return nil, err
	}
	return g, nil
}

// ReadInto decodes into an existing grid, e.g. a pooled chunk grid.
// The encoded dimensions must match the grid's. The grid is reset
// first; on error it is left reset, never partially filled.
func ReadInto(r io.Reader, g *world.VoxelGrid, solid world.BlockID) error {
	h, br, err := readHeader(r)
	if err != nil {
		return err
	}
	nx, ny, nz := g.Counts()
	if int(h.CountX) != nx || int(h.CountY) != ny || int(h.CountZ) != nz {
		return fmt.Errorf("grid format: dimensions %dx%dx%d do not match grid %dx%dx%d",
			h.CountX, h.CountY, h.CountZ, nx, ny, nz)
	}
	g.ResetAll()
	if err := readCells(br, g, solid); err != nil {
		g.ResetAll()
		return err
	}
	return nil
}

func readHeader(r io.Reader) (header, *bufio.Reader, error) {
	br := bufio.NewReader(r)
	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return h, nil, fmt.Errorf("grid format: read header: %w", err)
	}
	if h.Magic != Magic {
		return h, nil, fmt.Errorf("grid format: bad magic 0x%08X", h.Magic)
	}
	if h.Version != Version {
		return h, nil, fmt.Errorf("grid format: unsupported version %d", h.Version)
	}
	if h.CountX <= 0 || h.CountY <= 0 || h.CountZ <= 0 {
		return h, nil, fmt.Errorf("grid format: invalid dimensions %dx%dx%d", h.CountX, h.CountY, h.CountZ)
	}
	return h, br, nil
}

func readCells(br *bufio.Reader, g *world.VoxelGrid, solid world.BlockID) error {
	if solid == world.Empty {
		return fmt.Errorf("grid format: solid block id must be non-empty")
	}
	var rec [4]byte
	for i, n := 0, g.Len(); i < n; i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			return fmt.Errorf("grid format: read cells: %w", err)
		}
		if rec[0] == 0 {
			continue
		}
		g.SetFlat(i, world.Cell{
			Type:  solid,
			Color: world.RGBA{R: rec[1], G: rec[2], B: rec[3], A: 255},
		})
	}
	return nil
}
