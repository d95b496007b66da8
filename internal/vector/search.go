package vector

import (
	"context"
	"sort"

	"github.com/hyperjump/kotae/pkg/utils"
)

// MergedView is the union of the records of several shards, built for one search.
// It shares records with the cache and never modifies them.
type MergedView struct {
	records  []*Record
	shardIDs []string
}

// SearchResult is one scored record.
type SearchResult struct {
	Content  string
	Metadata Metadata
	Score    float64
}

func (v *MergedView) add(s *Shard) {
	v.shardIDs = append(v.shardIDs, s.ID)
	for i := range s.Records {
		v.records = append(v.records, &s.Records[i])
	}
}

// Len returns the number of records in the view.
func (v *MergedView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.records)
}

// ShardIDs returns the ids of the shards merged into the view, in load order.
func (v *MergedView) ShardIDs() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.shardIDs...)
}

// Search embeds query and returns the k records of view most similar to it, best first.
// Equal scores are ordered by chunk index, then by position in the view. An empty view
// returns no results without embedding the query.
func (idx *Index) Search(ctx context.Context, view *MergedView, query string, k int) ([]SearchResult, error) {
	if view.Len() == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultK
	}
	q, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, len(view.records))
	for i, r := range view.records {
		results[i] = SearchResult{
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    utils.CosineSimilarity(q, r.Vector),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Metadata.ChunkIndex < results[j].Metadata.ChunkIndex
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}
