package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrShardNotFound is returned by a ShardStore when no shard exists for an id.
var ErrShardNotFound = errors.New("vector shard not found")

// ShardStore persists shards by id.
type ShardStore interface {
	Get(ctx context.Context, id string) (*Shard, error)
	Put(ctx context.Context, shard *Shard) error
	// Delete removes the shard. Deleting a missing shard is not an error.
	Delete(ctx context.Context, id string) error
}

// ValidateShardID rejects ids that could escape the store directory.
func ValidateShardID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid shard id %q", id)
	}
	return nil
}

// DiskStore keeps each shard in <dir>/<id>.json.
type DiskStore struct {
	dir string
}

var _ ShardStore = (*DiskStore)(nil)

// NewDiskStore creates dir if needed and returns a store rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("vector store path is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create vector store dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the store directory.
func (d *DiskStore) Dir() string {
	return d.dir
}

func (d *DiskStore) path(id string) (string, error) {
	if err := ValidateShardID(id); err != nil {
		return "", err
	}
	return filepath.Join(d.dir, id+".json"), nil
}

// Get reads and decodes the shard file.
func (d *DiskStore) Get(ctx context.Context, id string) (*Shard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrShardNotFound, id)
		}
		return nil, fmt.Errorf("read shard %s: %w", id, err)
	}
	var shard Shard
	if err := json.Unmarshal(data, &shard); err != nil {
		return nil, fmt.Errorf("decode shard %s: %w", id, err)
	}
	if shard.ID == "" {
		shard.ID = id
	}
	return &shard, nil
}

// Put writes the shard to a temp file in the store directory and renames it into place.
func (d *DiskStore) Put(ctx context.Context, shard *Shard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.path(shard.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(shard)
	if err != nil {
		return fmt.Errorf("encode shard %s: %w", shard.ID, err)
	}
	tmp, err := os.CreateTemp(d.dir, shard.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create shard temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write shard %s: %w", shard.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close shard %s: %w", shard.ID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename shard %s: %w", shard.ID, err)
	}
	return nil
}

// Delete removes the shard file.
func (d *DiskStore) Delete(ctx context.Context, id string) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove shard %s: %w", id, err)
	}
	return nil
}
