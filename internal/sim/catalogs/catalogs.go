package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlockDef declares one voxel type for world configuration. Material
// is an opaque renderer handle; the engine only groups faces by it.
// IgnoreFaces suppresses faces globally for the type ("-x","+x","-y",
// "+y","-z","+z"), e.g. for one-way visibility.
type BlockDef struct {
	ID          uint16   `yaml:"id"`
	Name        string   `yaml:"name"`
	Material    string   `yaml:"material"`
	Color       [4]uint8 `yaml:"color"`
	IgnoreFaces []string `yaml:"ignore_faces,omitempty"`
}

// BlockCatalog is the validated block type table. Immutable after Load.
type BlockCatalog struct {
	Defs   []BlockDef
	ByID   map[uint16]BlockDef
	MaxID  uint16
	Digest string
}

var validFaces = map[string]struct{}{
	"-x": {}, "+x": {}, "-y": {}, "+y": {}, "-z": {}, "+z": {},
}

type blocksFile struct {
	Blocks []BlockDef `yaml:"blocks"`
}

// Load reads and validates a block catalog. Validation failures are
// configuration errors: the call fails and no partial catalog is
// returned.
func Load(path string) (BlockCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BlockCatalog{}, err
	}
	var f blocksFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return BlockCatalog{}, fmt.Errorf("blocks.yaml: %w", err)
	}
	return Build(f.Blocks)
}

// Build validates a block definition list.
func Build(defs []BlockDef) (BlockCatalog, error) {
	cat := BlockCatalog{
		Defs: defs,
		ByID: make(map[uint16]BlockDef, len(defs)),
	}
	for _, d := range defs {
		if d.ID == 0 {
			return BlockCatalog{}, fmt.Errorf("block %q: id 0 is reserved for empty", d.Name)
		}
		if d.Name == "" {
			return BlockCatalog{}, fmt.Errorf("block id %d: missing name", d.ID)
		}
		if strings.TrimSpace(d.Material) == "" {
			return BlockCatalog{}, fmt.Errorf("block %q: missing material", d.Name)
		}
		if _, dup := cat.ByID[d.ID]; dup {
			return BlockCatalog{}, fmt.Errorf("block %q: duplicate id %d", d.Name, d.ID)
		}
		for _, face := range d.IgnoreFaces {
			if _, ok := validFaces[face]; !ok {
				return BlockCatalog{}, fmt.Errorf("block %q: unknown face %q", d.Name, face)
			}
		}
		cat.ByID[d.ID] = d
		if d.ID > cat.MaxID {
			cat.MaxID = d.ID
		}
	}
	cat.Digest = digest(defs)
	return cat, nil
}

// Materials returns the distinct material handles in first-declared
// order.
func (c BlockCatalog) Materials() []string {
	seen := make(map[string]struct{}, len(c.Defs))
	out := make([]string, 0, len(c.Defs))
	for _, d := range c.Defs {
		if _, ok := seen[d.Material]; ok {
			continue
		}
		seen[d.Material] = struct{}{}
		out = append(out, d.Material)
	}
	return out
}

func digest(defs []BlockDef) string {
	lines := make([]string, 0, len(defs))
	for _, d := range defs {
		lines = append(lines, fmt.Sprintf("%d|%s|%s|%v|%v", d.ID, d.Name, d.Material, d.Color, d.IgnoreFaces))
	}
	sort.Strings(lines)
	h := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:8])
}
