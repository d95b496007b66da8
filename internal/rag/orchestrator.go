// Package rag answers questions from a user's documents: it retrieves the most similar chunks,
// prompts the chat model with them and cites the documents they came from.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

const (
	defaultTopK         = 4
	defaultTitleTimeout = 15 * time.Second
)

// Retriever loads a user's shards and searches them.
type Retriever interface {
	Load(ctx context.Context, ids []string) (*vector.MergedView, error)
	Search(ctx context.Context, view *vector.MergedView, query string, k int) ([]vector.SearchResult, error)
}

// Orchestrator generates answers and conversation titles.
type Orchestrator struct {
	docs         storage.DocumentStore
	convs        storage.ConversationStore
	retriever    Retriever
	model        llm.ChatModel
	topK         int
	titleTimeout time.Duration
	logger       *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithTitleTimeout bounds title generation.
func WithTitleTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.titleTimeout = d
		}
	}
}

// NewOrchestrator returns an orchestrator. convs may be nil when SendMessage is not used.
func NewOrchestrator(docs storage.DocumentStore, convs storage.ConversationStore, retriever Retriever, model llm.ChatModel, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		docs:         docs,
		convs:        convs,
		retriever:    retriever,
		model:        model,
		topK:         defaultTopK,
		titleTimeout: defaultTitleTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateAnswer answers query from userID's documents. When the user has no documents or no
// chunk is retrieved, a fixed answer is returned without calling the chat model.
func (o *Orchestrator) GenerateAnswer(ctx context.Context, userID, query string) (*models.Answer, error) {
	docs, err := o.docs.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return &models.Answer{Answer: NoDocumentsAnswer, Sources: []*models.Source{}}, nil
	}

	owned := make(map[string]*models.Document, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		shardID := d.VectorStoreID
		if shardID == "" {
			shardID = d.ID
		}
		owned[shardID] = d
		ids = append(ids, shardID)
	}

	view, err := o.retriever.Load(ctx, ids)
	if err != nil {
		return nil, err
	}
	results, err := o.retriever.Search(ctx, view, query, o.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	relevant := make([]vector.SearchResult, 0, len(results))
	for _, r := range results {
		if _, ok := owned[r.Metadata.DocumentID]; !ok {
			o.logger.Warn("dropping search result from a document the user does not own",
				zap.String("user_id", userID),
				zap.String("document_id", r.Metadata.DocumentID))
			continue
		}
		relevant = append(relevant, r)
	}
	if len(relevant) == 0 {
		return &models.Answer{Answer: NoRelevantAnswer, Sources: []*models.Source{}}, nil
	}

	text, err := o.model.Invoke(ctx, BuildPrompt(query, relevant))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	o.logger.Debug("answer generated",
		zap.String("user_id", userID),
		zap.String("model", o.model.Name()),
		zap.Int("chunks", len(relevant)))

	return &models.Answer{
		Answer:  strings.TrimSpace(text),
		Sources: sourcesFor(relevant, owned),
	}, nil
}

// sourcesFor maps results to their documents, keeping the first result of each document.
func sourcesFor(results []vector.SearchResult, owned map[string]*models.Document) []*models.Source {
	sources := make([]*models.Source, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		doc := owned[r.Metadata.DocumentID]
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		sources = append(sources, &models.Source{
			DocumentID:     doc.ID,
			DocumentName:   doc.OriginalName,
			RelevanceScore: r.Score,
		})
	}
	return sources
}

// GenerateConversationTitle asks the chat model for a short title. It never fails; a failed
// call or an empty reply yields DefaultTitle.
func (o *Orchestrator) GenerateConversationTitle(ctx context.Context, firstMessage string) string {
	ctx, cancel := context.WithTimeout(ctx, o.titleTimeout)
	defer cancel()

	text, err := o.model.Invoke(ctx, BuildTitlePrompt(firstMessage))
	if err != nil {
		o.logger.Debug("title generation failed", zap.Error(err))
		return DefaultTitle
	}
	title := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(text))
	if title == "" {
		return DefaultTitle
	}
	return title
}
