package vector

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleShard(id string) *Shard {
	return &Shard{
		ID:        id,
		ModelID:   "mock:4",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Records: []Record{
			{Content: "first", Vector: Vector{1, 0, 0, 0}, Metadata: Metadata{DocumentID: id, ChunkIndex: 0}},
			{Content: "second", Vector: Vector{0, 0.5, -0.25, 1e-7}, Metadata: Metadata{DocumentID: id, ChunkIndex: 1}},
		},
	}
}

func TestDiskStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	want := sampleShard("doc-1")
	if err := store.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc-1.json")); err != nil {
		t.Fatalf("expected shard file: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the shard file, found %d entries", len(entries))
	}

	got, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ModelID != want.ModelID || len(got.Records) != 2 {
		t.Fatalf("unexpected shard: %+v", got)
	}
	for i, r := range got.Records {
		w := want.Records[i]
		if r.Content != w.Content || r.Metadata != w.Metadata {
			t.Errorf("record %d: got %+v, want %+v", i, r, w)
		}
		for j := range w.Vector {
			if r.Vector[j] != w.Vector[j] {
				t.Errorf("record %d vector: got %v, want %v", i, r.Vector, w.Vector)
				break
			}
		}
	}
}

func TestDiskStore_missingAndDelete(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir())
	ctx := context.Background()
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrShardNotFound) {
		t.Errorf("expected ErrShardNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "nope"); err != nil {
		t.Errorf("deleting a missing shard should succeed: %v", err)
	}
	_ = store.Put(ctx, sampleShard("x"))
	if err := store.Delete(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "x"); !errors.Is(err, ErrShardNotFound) {
		t.Errorf("expected ErrShardNotFound after delete, got %v", err)
	}
}

func TestDiskStore_rejectsUnsafeIDs(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"", "..", "../escape", "a/b", `a\b`} {
		if err := store.Put(ctx, sampleShard(id)); err == nil {
			t.Errorf("Put(%q) should fail", id)
		}
		if _, err := store.Get(ctx, id); err == nil {
			t.Errorf("Get(%q) should fail", id)
		}
	}
}

func TestVector_JSON(t *testing.T) {
	v := Vector{0.25, -1, 3}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `"`) {
		t.Errorf("expected base64 string, got %s", data)
	}
	var back Vector
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 || back[0] != 0.25 || back[1] != -1 || back[2] != 3 {
		t.Errorf("round trip = %v", back)
	}

	var arr Vector
	if err := json.Unmarshal([]byte(`[1, 2.5]`), &arr); err != nil {
		t.Fatal(err)
	}
	if len(arr) != 2 || arr[1] != 2.5 {
		t.Errorf("array decode = %v", arr)
	}

	var bad Vector
	if err := json.Unmarshal([]byte(`"AAA="`), &bad); err == nil {
		t.Error("expected error for truncated vector bytes")
	}
}

func TestMemoryStore_copies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := sampleShard("m")
	_ = store.Put(ctx, s)
	s.Records[0].Vector[0] = 42

	got, err := store.Get(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if got.Records[0].Vector[0] != 1 {
		t.Error("store should not share vectors with the caller")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d", store.Len())
	}
}
