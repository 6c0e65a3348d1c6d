package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the engine configuration surface loaded from tuning.yaml.
type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	ChunkSize []int     `yaml:"chunk_size"`
	VoxelSize []float64 `yaml:"voxel_size"`

	WindowChunks       []int `yaml:"window_chunks"`
	MaxVisibleFaces    int   `yaml:"max_visible_faces"`
	MaxRebuildsPerTick int   `yaml:"max_rebuilds_per_tick"`

	Seed int64 `yaml:"seed"`

	BlocksPath string `yaml:"blocks_path"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:         20,
		ChunkSize:          []int{16, 16, 16},
		VoxelSize:          []float64{1, 1, 1},
		WindowChunks:       []int{5, 3, 5},
		MaxVisibleFaces:    4096,
		MaxRebuildsPerTick: 4,
		Seed:               1337,
		BlocksPath:         "./configs/blocks.yaml",
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if len(t.ChunkSize) != 3 {
		return fmt.Errorf("chunk_size must have 3 entries, got %d", len(t.ChunkSize))
	}
	if len(t.VoxelSize) != 3 {
		return fmt.Errorf("voxel_size must have 3 entries, got %d", len(t.VoxelSize))
	}
	if len(t.WindowChunks) != 3 {
		return fmt.Errorf("window_chunks must have 3 entries, got %d", len(t.WindowChunks))
	}
	for _, v := range t.ChunkSize {
		if v <= 0 {
			return fmt.Errorf("chunk_size entries must be positive, got %v", t.ChunkSize)
		}
	}
	for _, v := range t.VoxelSize {
		if v <= 0 {
			return fmt.Errorf("voxel_size entries must be positive, got %v", t.VoxelSize)
		}
	}
	for _, v := range t.WindowChunks {
		if v <= 0 {
			return fmt.Errorf("window_chunks entries must be positive, got %v", t.WindowChunks)
		}
	}
	if t.MaxVisibleFaces <= 0 {
		return fmt.Errorf("max_visible_faces must be positive, got %d", t.MaxVisibleFaces)
	}
	return nil
}
