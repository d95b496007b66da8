package embedding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errEmptyVector = errors.New("embedding response contained no vector")

// embeddingObject covers the object shapes returned by common embedding APIs.
type embeddingObject struct {
	Embedding  []float32   `json:"embedding"`
	Embeddings [][]float32 `json:"embeddings"`
	Data       []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error json.RawMessage `json:"error"`
}

// parseEmbedding normalizes an embedding response body into one vector. Accepted shapes:
// a raw array, a token matrix (mean of rows), a batch of one token matrix, and objects
// carrying "embedding", "embeddings", or "data[0].embedding".
func parseEmbedding(body []byte) ([]float32, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyVector
	}
	var vec []float32
	switch body[0] {
	case '[':
		v, err := parseEmbeddingArray(body)
		if err != nil {
			return nil, err
		}
		vec = v
	case '{':
		var obj embeddingObject
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("decode embedding object: %w", err)
		}
		switch {
		case len(obj.Error) > 0 && string(obj.Error) != "null":
			return nil, fmt.Errorf("embedding API error: %s", errorText(obj.Error))
		case len(obj.Embedding) > 0:
			vec = obj.Embedding
		case len(obj.Embeddings) > 0:
			vec = obj.Embeddings[0]
		case len(obj.Data) > 0:
			vec = obj.Data[0].Embedding
		}
	default:
		return nil, fmt.Errorf("unexpected embedding response: %.64s", body)
	}
	if len(vec) == 0 {
		return nil, errEmptyVector
	}
	return vec, nil
}

func parseEmbeddingArray(body []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}
	var matrix [][]float32
	if err := json.Unmarshal(body, &matrix); err == nil {
		if len(matrix) == 1 {
			return matrix[0], nil
		}
		return meanRows(matrix), nil
	}
	var batch [][][]float32
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("decode embedding array: %w", err)
	}
	if len(batch) == 0 {
		return nil, errEmptyVector
	}
	return meanRows(batch[0]), nil
}

// errorText returns a readable message from an error field that may be a string or an object.
func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(raw))
}
