package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v2"

	"voxelforge.dev/internal/sim/world"
	"voxelforge.dev/internal/sim/world/io/gridcodec"
)

func main() {
	app := &cli.App{
		Name:  "gridtool",
		Usage: "inspect and convert saved voxel grid (.blck) files",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print dimensions and occupancy of a grid file",
				ArgsUsage: "<file.blck>",
				Action:    runInfo,
			},
			{
				Name:      "export",
				Usage:     "compress a grid file with zstd",
				ArgsUsage: "<file.blck> <out.blck.zst>",
				Action:    runExport,
			},
			{
				Name:      "import",
				Usage:     "decompress a zstd grid file back to raw .blck",
				ArgsUsage: "<in.blck.zst> <out.blck>",
				Action:    runImport,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runInfo(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gridtool info <file.blck>")
	}
	f, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := gridcodec.Read(f, 1)
	if err != nil {
		return err
	}
	nx, ny, nz := g.Counts()
	solid := 0
	for i, n := 0, g.Len(); i < n; i++ {
		if g.AtFlat(i).Type != world.Empty {
			solid++
		}
	}
	fmt.Printf("dimensions: %dx%dx%d (%d cells)\n", nx, ny, nz, g.Len())
	fmt.Printf("solid:      %d (%.1f%%)\n", solid, 100*float64(solid)/float64(g.Len()))
	return nil
}

func runExport(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: gridtool export <file.blck> <out.blck.zst>")
	}
	in, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer in.Close()

	// Validate before compressing so a corrupt file fails loudly.
	if _, err := gridcodec.Read(in, 1); err != nil {
		return err
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return err
	}

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(out)
	if err != nil {
		_ = out.Close()
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		_ = out.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func runImport(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: gridtool import <in.blck.zst> <out.blck>")
	}
	in, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	g, err := gridcodec.Read(dec.IOReadCloser(), 1)
	if err != nil {
		return err
	}

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return err
	}
	if err := gridcodec.Write(out, g); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
