package rag

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

type fakeChat struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeChat) Invoke(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	reply := f.reply
	f.mu.Unlock()
	if reply == nil {
		return "  a grounded answer [1]  ", nil
	}
	return reply(prompt)
}

func (f *fakeChat) Name() string { return "fake:test" }

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeChat) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeDocs struct {
	mu   sync.Mutex
	docs []*models.Document
}

func (f *fakeDocs) add(userID, name string) *models.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	d := &models.Document{ID: id, UserID: userID, OriginalName: name, VectorStoreID: id}
	f.docs = append(f.docs, d)
	return d
}

func (f *fakeDocs) Find(_ context.Context, userID string) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) FindOne(_ context.Context, id, userID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == id && d.UserID == userID {
			return d, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeDocs) Create(context.Context, *models.Document) error { return nil }
func (f *fakeDocs) Save(context.Context, *models.Document) error   { return nil }
func (f *fakeDocs) Delete(context.Context, *models.Document) error { return nil }

type fakeConvs struct {
	mu    sync.Mutex
	convs map[string]*models.Conversation
	saves int
}

func newFakeConvs() *fakeConvs {
	return &fakeConvs{convs: make(map[string]*models.Conversation)}
}

func (f *fakeConvs) FindConversation(_ context.Context, id, userID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	cp := *c
	cp.Messages = append([]*models.Message(nil), c.Messages...)
	return &cp, nil
}

func (f *fakeConvs) ListConversations(_ context.Context, userID string) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Conversation
	for _, c := range f.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeConvs) CreateConversation(_ context.Context, c *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.convs[c.ID] = &cp
	return nil
}

func (f *fakeConvs) SaveConversation(_ context.Context, c *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[c.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]*models.Message(nil), c.Messages...)
	f.convs[c.ID] = &cp
	f.saves++
	return nil
}

func (f *fakeConvs) DeleteConversation(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.convs, id)
	return nil
}

// stubRetriever returns fixed results regardless of the view.
type stubRetriever struct {
	results []vector.SearchResult
	loaded  [][]string
}

func (s *stubRetriever) Load(_ context.Context, ids []string) (*vector.MergedView, error) {
	s.loaded = append(s.loaded, ids)
	return &vector.MergedView{}, nil
}

func (s *stubRetriever) Search(context.Context, *vector.MergedView, string, int) ([]vector.SearchResult, error) {
	return s.results, nil
}
