// Package chunkdb persists chunk grids in a SQLite database, one row
// per chunk index, with the encoded grid stored as a zstd-compressed
// blob.
package chunkdb

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"voxelforge.dev/internal/sim/world"
	"voxelforge.dev/internal/sim/world/io/gridcodec"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	cx   INTEGER NOT NULL,
	cy   INTEGER NOT NULL,
	cz   INTEGER NOT NULL,
	tick INTEGER NOT NULL,
	data BLOB    NOT NULL,
	PRIMARY KEY (cx, cy, cz)
);
`

// Store is a synchronous chunk store. The engine is single-threaded,
// so all calls come from the tick thread and no writer goroutine is
// needed.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("chunkdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chunkdb: init schema: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// SaveChunk upserts the grid at key, recording the tick it was saved
// on.
func (s *Store) SaveChunk(key world.ChunkKey, g *world.VoxelGrid, tick uint64) error {
	var buf bytes.Buffer
	if err := gridcodec.Write(&buf, g); err != nil {
		return fmt.Errorf("chunkdb: encode chunk %v: %w", key.Vec().ToArray(), err)
	}
	blob := s.enc.EncodeAll(buf.Bytes(), nil)
	_, err := s.db.Exec(`
		INSERT INTO chunks (cx, cy, cz, tick, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (cx, cy, cz) DO UPDATE SET tick = excluded.tick, data = excluded.data`,
		key.CX, key.CY, key.CZ, int64(tick), blob)
	if err != nil {
		return fmt.Errorf("chunkdb: save chunk %v: %w", key.Vec().ToArray(), err)
	}
	return nil
}

// LoadInto decodes the saved grid at key into g. Returns false with a
// nil error when no row exists.
func (s *Store) LoadInto(key world.ChunkKey, g *world.VoxelGrid, solid world.BlockID) (bool, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT data FROM chunks WHERE cx = ? AND cy = ? AND cz = ?`,
		key.CX, key.CY, key.CZ).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("chunkdb: load chunk %v: %w", key.Vec().ToArray(), err)
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return false, fmt.Errorf("chunkdb: decompress chunk %v: %w", key.Vec().ToArray(), err)
	}
	if err := gridcodec.ReadInto(bytes.NewReader(raw), g, solid); err != nil {
		return false, fmt.Errorf("chunkdb: decode chunk %v: %w", key.Vec().ToArray(), err)
	}
	return true, nil
}

// Keys lists every persisted chunk index in (cx, cy, cz) order.
func (s *Store) Keys() ([]world.ChunkKey, error) {
	rows, err := s.db.Query(`SELECT cx, cy, cz FROM chunks ORDER BY cx, cy, cz`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []world.ChunkKey
	for rows.Next() {
		var k world.ChunkKey
		if err := rows.Scan(&k.CX, &k.CY, &k.CZ); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
