// Package observerproto defines the read-only observer protocol: a
// JSON bootstrap document plus a per-tick chunk statistics stream.
package observerproto

const Version = "1.0"

type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	MaterialPalette []string    `json:"material_palette"`
	BlocksDigest    string      `json:"blocks_digest,omitempty"`
}

type WorldParams struct {
	TickRateHz         int        `json:"tick_rate_hz"`
	ChunkSize          [3]int     `json:"chunk_size"`
	VoxelSize          [3]float64 `json:"voxel_size"`
	WindowChunks       [3]int     `json:"window_chunks"`
	MaxVisibleFaces    int        `json:"max_visible_faces"`
	MaxRebuildsPerTick int        `json:"max_rebuilds_per_tick"`
	Seed               int64      `json:"seed"`
}

type ChunkStatsMsg struct {
	Type     string      `json:"type"` // "CHUNK_STATS"
	Tick     uint64      `json:"tick"`
	Anchor   [3]float64  `json:"anchor"`
	Active   int         `json:"active"`
	Pending  int         `json:"pending"`
	Idle     int         `json:"idle"`
	Counters CountersV1  `json:"counters"`
	Chunks   []ChunkStat `json:"chunks"`
}

type ChunkStat struct {
	Key       [3]int `json:"key"`
	Faces     int    `json:"faces"`
	Batches   int    `json:"batches"`
	Truncated bool   `json:"truncated,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

type CountersV1 struct {
	Loads             uint64 `json:"loads"`
	Unloads           uint64 `json:"unloads"`
	Rebuilds          uint64 `json:"rebuilds"`
	DuplicateLoads    uint64 `json:"duplicate_loads,omitempty"`
	InvalidLoads      uint64 `json:"invalid_loads,omitempty"`
	BadUnloads        uint64 `json:"bad_unloads,omitempty"`
	TruncatedRebuilds uint64 `json:"truncated_rebuilds,omitempty"`
	RaycastAborts     uint64 `json:"raycast_aborts,omitempty"`
}
