package gridcodec

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"voxelforge.dev/internal/sim/world"
)

func sampleGrid() *world.VoxelGrid {
	g := world.NewVoxelGrid(3, 2, 2)
	g.SetBlock(0, 0, 0, 1, world.RGBA{R: 10, G: 20, B: 30, A: 255})
	g.SetBlock(2, 1, 1, 2, world.RGBA{R: 200, G: 100, B: 50, A: 128})
	g.SetBlock(1, 0, 1, 1, world.RGBA{R: 1, G: 2, B: 3, A: 255})
	return g
}

func TestWriteRead(t *testing.T) {
	g := sampleGrid()
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}

	nx, ny, nz := g.Counts()
	if want := 20 + 4*g.Len(); buf.Len() != want {
		t.Fatalf("encoded size: got %d want %d", buf.Len(), want)
	}

	out, err := Read(&buf, 7)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ox, oy, oz := out.Counts()
	if ox != nx || oy != ny || oz != nz {
		t.Fatalf("dimensions: got %dx%dx%d", ox, oy, oz)
	}
	for i := 0; i < g.Len(); i++ {
		in, dec := g.AtFlat(i), out.AtFlat(i)
		if (in.Type != world.Empty) != (dec.Type != world.Empty) {
			t.Fatalf("cell %d solidity mismatch", i)
		}
		if in.Type == world.Empty {
			continue
		}
		// Block identity is not stored: every solid cell decodes to the
		// caller's type, color restored opaque.
		if dec.Type != 7 {
			t.Fatalf("cell %d type: got %d want 7", i, dec.Type)
		}
		want := world.RGBA{R: in.Color.R, G: in.Color.G, B: in.Color.B, A: 255}
		if dec.Color != want {
			t.Fatalf("cell %d color: got %+v want %+v", i, dec.Color, want)
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	g := world.NewVoxelGrid(3, 2, 1)
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()
	if got := binary.LittleEndian.Uint32(raw[0:4]); got != Magic {
		t.Fatalf("magic: got 0x%08X", got)
	}
	if string(raw[0:4]) != "KCLB" {
		// "BLCK" as a little-endian uint32 lands byte-reversed.
		t.Fatalf("magic bytes: %q", raw[0:4])
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 2 {
		t.Fatalf("version: got %d", got)
	}
	if binary.LittleEndian.Uint32(raw[8:12]) != 3 ||
		binary.LittleEndian.Uint32(raw[12:16]) != 2 ||
		binary.LittleEndian.Uint32(raw[16:20]) != 1 {
		t.Fatalf("dimensions: % X", raw[8:20])
	}
}

func TestCellOrderIsXMajor(t *testing.T) {
	g := world.NewVoxelGrid(2, 2, 2)
	g.SetBlock(1, 0, 0, 1, world.RGBA{A: 255}) // flat index 1*2*2 = 4
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}
	cells := buf.Bytes()[20:]
	for i := 0; i < 8; i++ {
		solid := cells[i*4] == 1
		if solid != (i == 4) {
			t.Fatalf("record %d solid=%v", i, solid)
		}
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(1, 1, 1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()
	raw[0] ^= 0xFF
	_, err := Read(bytes.NewReader(raw), 1)
	if err == nil || !strings.Contains(err.Error(), "bad magic") {
		t.Fatalf("error: %v", err)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(1, 1, 1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[4:8], 1)
	_, err := Read(bytes.NewReader(raw), 1)
	if err == nil || !strings.Contains(err.Error(), "unsupported version 1") {
		t.Fatalf("error: %v", err)
	}
}

func TestReadRejectsBadDimensions(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(2, 2, 2)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[8:12], 0)
	_, err := Read(bytes.NewReader(raw), 1)
	if err == nil || !strings.Contains(err.Error(), "invalid dimensions") {
		t.Fatalf("error: %v", err)
	}
}

func TestReadRejectsEmptySolidID(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(1, 1, 1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(&buf, world.Empty); err == nil {
		t.Fatalf("empty solid id accepted")
	}
}

func TestReadTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(2, 2, 2)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()[:buf.Len()-5]
	if _, err := Read(bytes.NewReader(raw), 1); err == nil {
		t.Fatalf("truncated payload accepted")
	}
}

func TestReadInto(t *testing.T) {
	g := sampleGrid()
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}

	dst := world.NewVoxelGrid(3, 2, 2)
	dst.SetBlock(0, 1, 0, 9, world.RGBA{A: 255}) // must not survive the decode
	if err := ReadInto(&buf, dst, 1); err != nil {
		t.Fatalf("read into: %v", err)
	}
	if dst.IsSolid(0, 1, 0) {
		t.Fatalf("stale cell survived decode")
	}
	if !dst.IsSolid(2, 1, 1) {
		t.Fatalf("decoded cell missing")
	}
}

func TestReadIntoDimensionMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(3, 2, 2)); err != nil {
		t.Fatalf("write: %v", err)
	}
	dst := world.NewVoxelGrid(4, 4, 4)
	err := ReadInto(&buf, dst, 1)
	if err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("error: %v", err)
	}
}

func TestReadIntoResetsOnError(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, world.NewVoxelGrid(2, 2, 2)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()[:buf.Len()-4] // drop the last record

	dst := world.NewVoxelGrid(2, 2, 2)
	dst.SetBlock(0, 0, 0, 5, world.RGBA{A: 255})
	if err := ReadInto(bytes.NewReader(raw), dst, 1); err == nil {
		t.Fatalf("truncated payload accepted")
	}
	for i := 0; i < dst.Len(); i++ {
		if dst.AtFlat(i).Type != world.Empty {
			t.Fatalf("grid not reset after failed decode")
		}
	}
}
