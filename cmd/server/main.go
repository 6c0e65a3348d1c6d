package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelforge.dev/internal/observerproto"
	"voxelforge.dev/internal/persistence/chunkdb"
	"voxelforge.dev/internal/sim/catalogs"
	"voxelforge.dev/internal/sim/tuning"
	"voxelforge.dev/internal/sim/world"
	"voxelforge.dev/internal/sim/world/terrain/gen"
	"voxelforge.dev/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "world seed override (0 keeps the tuning value)")
		orbit      = flag.Float64("orbit", 48, "anchor orbit radius in world units (0 holds the anchor still)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	blocksPath := tune.BlocksPath
	if blocksPath == "" {
		blocksPath = filepath.Join(*configDir, "blocks.yaml")
	}
	cat, err := catalogs.Load(blocksPath)
	if err != nil {
		logger.Fatalf("load block catalog: %v", err)
	}
	types, palette, err := world.BuildBlockTable(cat)
	if err != nil {
		logger.Fatalf("build block table: %v", err)
	}

	store, err := chunkdb.Open(filepath.Join(*dataDir, "chunks.db"))
	if err != nil {
		logger.Fatalf("open chunk db: %v", err)
	}
	defer store.Close()

	pal, err := genPalette(cat)
	if err != nil {
		logger.Fatalf("terrain palette: %v", err)
	}
	terrain := gen.New(tune.Seed, pal)

	cfg := world.Config{
		ChunkCounts:        world.Vec3i{X: tune.ChunkSize[0], Y: tune.ChunkSize[1], Z: tune.ChunkSize[2]},
		VoxelDims:          world.Vec3f{X: tune.VoxelSize[0], Y: tune.VoxelSize[1], Z: tune.VoxelSize[2]},
		WindowExtent:       world.Vec3i{X: tune.WindowChunks[0], Y: tune.WindowChunks[1], Z: tune.WindowChunks[2]},
		MaxVisibleFaces:    tune.MaxVisibleFaces,
		MaxRebuildsPerTick: tune.MaxRebuildsPerTick,
		Logger:             logger,
		OnChunkLoad: func(w *world.World, key world.ChunkKey, g *world.VoxelGrid) {
			ok, err := store.LoadInto(key, g, pal.Rock)
			if err != nil {
				logger.Printf("chunk %v: load from db: %v", key.Vec().ToArray(), err)
			}
			if !ok {
				terrain.Populate(key, g)
			}
		},
		OnChunkUnload: func(w *world.World, key world.ChunkKey) {
			c, ok := w.Chunk(key)
			if !ok {
				return
			}
			if err := store.SaveChunk(key, c.Grid, w.CurrentTick()); err != nil {
				logger.Printf("chunk %v: save: %v", key.Vec().ToArray(), err)
			}
		},
	}
	w, err := world.NewWorld(cfg, types, palette)
	if err != nil {
		logger.Fatalf("create world: %v", err)
	}

	obs := observer.NewServer(observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		WorldParams: observerproto.WorldParams{
			TickRateHz:         tune.TickRateHz,
			ChunkSize:          [3]int{tune.ChunkSize[0], tune.ChunkSize[1], tune.ChunkSize[2]},
			VoxelSize:          [3]float64{tune.VoxelSize[0], tune.VoxelSize[1], tune.VoxelSize[2]},
			WindowChunks:       [3]int{tune.WindowChunks[0], tune.WindowChunks[1], tune.WindowChunks[2]},
			MaxVisibleFaces:    tune.MaxVisibleFaces,
			MaxRebuildsPerTick: tune.MaxRebuildsPerTick,
			Seed:               tune.Seed,
		},
		MaterialPalette: palette,
		BlocksDigest:    cat.Digest,
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/ws", obs.StreamHandler())
	go func() {
		logger.Printf("observer listening on %s", *addr)
		if err := http.ListenAndServe(*addr, mux); err != nil {
			logger.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	// Anchor starts above the window center so the initial window sits
	// inside the valid (non-negative) chunk range.
	center := world.Vec3f{
		X: float64(tune.WindowChunks[0]) / 2 * float64(tune.ChunkSize[0]) * tune.VoxelSize[0],
		Y: float64(tune.WindowChunks[1]) / 2 * float64(tune.ChunkSize[1]) * tune.VoxelSize[1],
		Z: float64(tune.WindowChunks[2]) / 2 * float64(tune.ChunkSize[2]) * tune.VoxelSize[2],
	}

	ticker := time.NewTicker(time.Second / time.Duration(tune.TickRateHz))
	defer ticker.Stop()
	logger.Printf("world running: seed=%d chunk=%v window=%v", tune.Seed, tune.ChunkSize, tune.WindowChunks)

	for {
		select {
		case <-sig:
			logger.Printf("shutting down, saving %d active chunks", w.ActiveCount())
			w.ForEachActive(func(c *world.Chunk) {
				if err := store.SaveChunk(c.Key, c.Grid, w.CurrentTick()); err != nil {
					logger.Printf("chunk %v: save: %v", c.Key.Vec().ToArray(), err)
				}
			})
			return
		case <-ticker.C:
			t := float64(w.CurrentTick()) / float64(tune.TickRateHz)
			anchor := center
			if *orbit > 0 {
				anchor.X += *orbit * math.Cos(t*0.1)
				anchor.Z += *orbit * math.Sin(t*0.1)
			}
			w.SetAnchor(anchor)
			w.Tick()
			obs.Publish(buildStats(w))
		}
	}
}

// genPalette resolves the generator's block types from the catalog by
// conventional names.
func genPalette(cat catalogs.BlockCatalog) (gen.Palette, error) {
	find := func(name string) (world.BlockID, world.RGBA, error) {
		for _, d := range cat.Defs {
			if d.Name == name {
				return world.BlockID(d.ID), world.RGBA{R: d.Color[0], G: d.Color[1], B: d.Color[2], A: d.Color[3]}, nil
			}
		}
		return 0, world.RGBA{}, fmt.Errorf("catalog does not declare block %q", name)
	}
	var p gen.Palette
	var err error
	if p.Surface, p.SurfaceColor, err = find("grass"); err != nil {
		return p, err
	}
	if p.Soil, p.SoilColor, err = find("dirt"); err != nil {
		return p, err
	}
	if p.Rock, p.RockColor, err = find("stone"); err != nil {
		return p, err
	}
	return p, nil
}

func buildStats(w *world.World) observerproto.ChunkStatsMsg {
	cnt := w.Counters()
	msg := observerproto.ChunkStatsMsg{
		Type:    "CHUNK_STATS",
		Tick:    w.CurrentTick(),
		Anchor:  w.Anchor().ToArray(),
		Active:  w.ActiveCount(),
		Pending: w.PendingCount(),
		Idle:    w.IdleCount(),
		Counters: observerproto.CountersV1{
			Loads:             cnt.Loads,
			Unloads:           cnt.Unloads,
			Rebuilds:          cnt.Rebuilds,
			DuplicateLoads:    cnt.DuplicateLoads,
			InvalidLoads:      cnt.InvalidLoads,
			BadUnloads:        cnt.BadUnloads,
			TruncatedRebuilds: cnt.TruncatedRebuilds,
			RaycastAborts:     cnt.RaycastAborts,
		},
		Chunks: make([]observerproto.ChunkStat, 0, w.ActiveCount()),
	}
	w.ForEachActive(func(c *world.Chunk) {
		msg.Chunks = append(msg.Chunks, observerproto.ChunkStat{
			Key:       c.Key.Vec().ToArray(),
			Faces:     c.Mesh.FaceCount,
			Batches:   len(c.Mesh.Batches),
			Truncated: c.Mesh.Truncated,
			Dirty:     c.Dirty(),
		})
	})
	return msg
}
