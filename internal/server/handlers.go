package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
)

func (s *Server) maxUploadSize() int64 {
	if s.config != nil && s.config.Server.MaxUploadSize > 0 {
		return s.config.Server.MaxUploadSize
	}
	return 10 << 20
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	limit := s.maxUploadSize()
	// Leave room for the multipart envelope; the file itself is checked against limit below.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(limit))
			return
		}
		s.respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(content)) > limit {
		s.respondError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(limit))
		return
	}

	s.logger.Debug("upload request",
		zap.String("user_id", userID),
		zap.String("name", header.Filename),
		zap.Int("size", len(content)))
	summary, err := s.indexer.UploadAndIndex(r.Context(), models.UploadInput{
		UserID:       userID,
		OriginalName: header.Filename,
		Content:      content,
	})
	if err != nil {
		s.logger.Error("upload failed", zap.String("name", header.Filename), zap.Error(err))
		s.respondError(w, statusFor(err), indexer.UserMessage(err))
		return
	}
	s.respondJSON(w, http.StatusCreated, summary)
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", limit>>20)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.storage.Find(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaries := make([]*models.DocumentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = d.Summary()
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": summaries})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.storage.FindOne(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()))
	if err != nil {
		s.respondError(w, statusFor(err), errorText(err, "document not found"))
		return
	}
	s.respondJSON(w, http.StatusOK, doc.Summary())
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.indexer.DeleteDocumentAndIndex(r.Context(), id, userIDFrom(r.Context())); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("deletion failed", zap.String("id", id), zap.Error(err))
		}
		s.respondError(w, statusFor(err), errorText(err, "document not found"))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "Message is required")
		return
	}
	reply, err := s.rag.SendMessage(r.Context(), userIDFrom(r.Context()), req.ConversationID, req.Message)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, statusFor(err), rag.UserMessage(err))
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "Message is required")
		return
	}
	title := s.rag.GenerateConversationTitle(r.Context(), req.Message)
	s.respondJSON(w, http.StatusOK, map[string]string{"title": title})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.storage.ListConversations(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.logger.Error("list conversations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.storage.FindConversation(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()))
	if err != nil {
		s.respondError(w, statusFor(err), errorText(err, "conversation not found"))
		return
	}
	s.respondJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteConversation(r.Context(), id, userIDFrom(r.Context())); err != nil {
		s.respondError(w, statusFor(err), errorText(err, "conversation not found"))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	convCount, err := s.storage.CountConversations(ctx)
	if err != nil {
		s.logger.Error("status: count conversations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents":     docCount,
		"conversations": convCount,
	}
	if s.index != nil {
		resp["cached_shards"] = s.index.Size()
		resp["embedding_model"] = s.index.ModelID()
	}
	if s.config != nil {
		resp["llm_provider"] = s.config.LLM.Provider
		resp["llm_model"] = s.config.LLM.Model
		usage, err := storage.DiskUsage(
			s.config.Storage.DatabasePath,
			s.config.Storage.UploadDir,
			s.config.Storage.VectorStorePath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = usage.Total()
			resp["disk_usage"] = usage
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrEmptyDocument),
		errors.Is(err, models.ErrExtractionFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorText(err error, notFound string) string {
	if errors.Is(err, models.ErrNotFound) {
		return notFound
	}
	return err.Error()
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
