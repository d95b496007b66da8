// Package vector stores per-document embedding shards and runs similarity search over a
// user's shards.
package vector

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Shard holds the embedding records of one document and the model that produced them.
type Shard struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"modelId"`
	Records   []Record  `json:"records"`
	CreatedAt time.Time `json:"createdAt"`
}

// Record is one embedded chunk.
type Record struct {
	Content  string   `json:"content"`
	Vector   Vector   `json:"vector,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Metadata ties a record back to its document and chunk.
type Metadata struct {
	DocumentID string `json:"documentId"`
	ChunkIndex int    `json:"chunkIndex"`
}

// Vector is an embedding. It is encoded in JSON as base64 of little-endian float32 values;
// a plain JSON number array is accepted when decoding.
type Vector []float32

// MarshalJSON encodes v as a base64 string.
func (v Vector) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(base64.StdEncoding.EncodeToString(float32SliceToBytes(v)))
}

// UnmarshalJSON decodes a base64 string or a number array.
func (v *Vector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var f []float32
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = f
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode vector: %w", err)
	}
	if len(raw)%4 != 0 {
		return fmt.Errorf("decode vector: %d bytes is not a whole number of float32 values", len(raw))
	}
	*v = bytesToFloat32Slice(raw)
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// missingVectors returns the positions of records persisted without a vector.
func (s *Shard) missingVectors() []int {
	var idx []int
	for i := range s.Records {
		if len(s.Records[i].Vector) == 0 {
			idx = append(idx, i)
		}
	}
	return idx
}
