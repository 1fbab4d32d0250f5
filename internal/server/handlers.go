// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/geminichat/internal/attach"
	"github.com/jeranaias/geminichat/internal/export"
	"github.com/jeranaias/geminichat/internal/gemini"
	"github.com/jeranaias/geminichat/internal/markdown"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/render"
)

// conversationSummary is one sidebar entry.
type conversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	Messages  int       `json:"messages"`
	Model     string    `json:"model,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

func (s *Server) summarize(convs []*model.Conversation) []conversationSummary {
	active := s.store.ActiveID()
	out := make([]conversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, conversationSummary{
			ID:        c.ID,
			Title:     c.GetTitle(),
			Preview:   c.Preview(80),
			Messages:  len(c.Messages),
			Model:     c.Model,
			UpdatedAt: c.UpdatedAt,
			Active:    c.ID == active,
		})
	}
	return out
}

// pathIndex parses the {index} path value.
func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, fmt.Sprintf("invalid index %q", r.PathValue("index")), "invalid_request")
		return 0, false
	}
	return i, true
}

// ============================================================================
// Health and static
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
		"loading": s.store.Loading(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeErrorJSON(w, http.StatusNotFound, "metrics are disabled", "not_found")
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	h := markdown.NewChromaHighlighter(markdown.StyleForTheme(s.store.Theme()))
	css, err := h.CSS()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

// ============================================================================
// Conversations
// ============================================================================

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summarize(s.store.Conversations()))
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	conv := s.store.CreateConversation()
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.Conversation(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := s.store.RenameConversation(id, req.Title); err != nil {
		s.writeError(w, err)
		return
	}
	conv, err := s.store.Conversation(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteConversation(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_id": s.store.ActiveID()})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SwitchActive(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_id": s.store.ActiveID()})
}

// handleConversationHTML returns the rendered message list.
func (s *Server) handleConversationHTML(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv, err := s.store.Conversation(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	loading := s.store.Loading() && id == s.store.ActiveID()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(render.HTML(conv, render.Options{
		Markdown: s.renderer(),
		Actions:  true,
		Loading:  loading,
		Metrics:  s.metrics,
	})))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.Conversation(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatMarkdown)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	exporter, err := export.ExporterFor(format, s.store.Theme())
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := exporter.Export(conv)
	if err != nil {
		s.writeError(w, err)
		return
	}

	filename := export.Filename(conv.GetTitle(), exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summarize(s.store.Search(r.URL.Query().Get("q"))))
}

// ============================================================================
// Messages
// ============================================================================

// messageResponse is returned by send and regenerate.
type messageResponse struct {
	ConversationID string         `json:"conversation_id"`
	Message        *model.Message `json:"message"`
}

// detach keeps a generation running if the browser goes away mid-request;
// the chat timeout still bounds it.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	convID := s.store.ActiveID()
	msg, err := s.chat.Send(detach(r), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{ConversationID: convID, Message: msg})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteMessage(index); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	convID := s.store.ActiveID()
	msg, err := s.chat.Regenerate(detach(r), index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{ConversationID: convID, Message: msg})
}

// ============================================================================
// Attachments
// ============================================================================

// pendingAttachment omits the payload, which can be megabytes.
type pendingAttachment struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

func (s *Server) pending() []pendingAttachment {
	atts := s.store.PendingAttachments()
	out := make([]pendingAttachment, len(atts))
	for i, a := range atts {
		out[i] = pendingAttachment{Index: i, Kind: string(a.Kind), Name: a.Name, MimeType: a.MimeType}
	}
	return out
}

func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pending())
}

// handleUpload accepts one or more files in the "file" form field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	reader, err := r.MultipartReader()
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "expected multipart/form-data: "+err.Error(), "invalid_request")
		return
	}

	added := 0
	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeErrorJSON(w, http.StatusRequestEntityTooLarge, attach.ErrTooLarge.Error(), "too_large")
				return
			}
			writeErrorJSON(w, http.StatusBadRequest, "read upload: "+err.Error(), "invalid_request")
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		att, err := attach.FromReader(part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.writeAttachError(w, err)
			return
		}
		s.store.AddPendingAttachment(att)
		added++
	}

	if added == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "no file in upload", "invalid_request")
		return
	}
	writeJSON(w, http.StatusCreated, s.pending())
}

func (s *Server) writeAttachError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, attach.ErrUnsupportedType):
		writeErrorJSON(w, http.StatusUnsupportedMediaType, err.Error(), "unsupported_type")
	case errors.Is(err, attach.ErrTooLarge), errors.As(err, &maxErr):
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, err.Error(), "too_large")
	case errors.Is(err, attach.ErrNoText):
		writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error(), "no_text")
	default:
		writeErrorJSON(w, http.StatusBadRequest, err.Error(), "invalid_request")
	}
}

func (s *Server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := s.store.RemovePendingAttachment(index); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.pending())
}

// ============================================================================
// Saved prompts
// ============================================================================

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.SavedPrompts())
}

func (s *Server) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.SavePrompt(req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.store.SavedPrompts())
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePrompt(index); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.SavedPrompts())
}

// ============================================================================
// Settings
// ============================================================================

type settingsResponse struct {
	Model     string   `json:"model"`
	Models    []string `json:"models"`
	Theme     string   `json:"theme"`
	HasAPIKey bool     `json:"has_api_key"`
	APIKey    string   `json:"api_key"`
}

// settingsRequest fields are optional; nil leaves the setting alone.
type settingsRequest struct {
	APIKey *string `json:"api_key"`
	Model  *string `json:"model"`
	Theme  *string `json:"theme"`
}

func (s *Server) settings() settingsResponse {
	key := s.store.APIKey()
	return settingsResponse{
		Model:     s.store.Model(),
		Models:    model.ModelIDs(),
		Theme:     s.store.Theme(),
		HasAPIKey: key != "",
		APIKey:    gemini.MaskKey(key),
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Theme != nil {
		if err := s.store.SetTheme(strings.TrimSpace(*req.Theme)); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Model != nil {
		if strings.TrimSpace(*req.Model) == "" {
			writeErrorJSON(w, http.StatusBadRequest, "model name must not be empty", "invalid_request")
			return
		}
		if err := s.store.SetModel(*req.Model); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.APIKey != nil {
		if err := s.store.SetAPIKey(strings.TrimSpace(*req.APIKey)); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.settings())
}
