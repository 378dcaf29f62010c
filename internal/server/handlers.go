package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/assist"
	"github.com/vickotoAguilera/BoletasScaner/internal/common"
	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/extract"
	"github.com/vickotoAguilera/BoletasScaner/internal/report"
	"github.com/vickotoAguilera/BoletasScaner/internal/stats"
)

type analyzeRequest struct {
	OwnerID     string `json:"ownerId"`
	ImageBase64 string `json:"imageBase64"`
	MIMEType    string `json:"mimeType"`
	ImageRef    string `json:"imagenURL"`
}

// analyze runs extraction on a receipt photo and returns the normalized
// record without persisting it. The caller reviews and posts it separately.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.WrapError(common.ErrInvalidInput, "invalid request body"))
		return
	}

	mime := constants.NormalizeMIME(req.MIMEType)
	if _, ok := constants.AllowedImageMIMETypes[mime]; !ok {
		writeError(w, common.WrapError(common.ErrInvalidInput, fmt.Sprintf("unsupported image type %q", req.MIMEType)))
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(image) == 0 {
		writeError(w, common.WrapError(common.ErrInvalidInput, "imageBase64 must be a non-empty base64 string"))
		return
	}

	payload, _, err := s.extractor.Extract(r.Context(), image, mime)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := extract.Upgrade(payload, req.OwnerID, req.ImageRef)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type createReceiptRequest struct {
	entity.Receipt
	// Optional receipt photo, archived to Drive when uploads are enabled.
	ImageBase64   string `json:"imageBase64,omitempty"`
	ImageMIMEType string `json:"imageMimeType,omitempty"`
}

func (s *Server) createReceipt(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.WrapError(common.ErrInvalidInput, "invalid request body"))
		return
	}
	rec := req.Receipt

	if req.ImageBase64 != "" && s.drive != nil {
		image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			writeError(w, common.WrapError(common.ErrInvalidInput, "imageBase64 must be valid base64"))
			return
		}
		fileID, err := s.drive.UploadReceiptImage(r.Context(), uuid.NewString(), constants.NormalizeMIME(req.ImageMIMEType), image)
		if err != nil {
			writeError(w, err)
			return
		}
		rec.ImageRef = "drive:" + fileID
	}

	saved, err := s.ledger.Append(r.Context(), &rec)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) listReceipts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	snap, err := s.ledger.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		snap = []*entity.Receipt{}
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) deleteReceipt(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, common.WrapError(common.ErrInvalidInput, "invalid id"))
		return
	}

	if err := s.ledger.Delete(r.Context(), ownerID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) receiptStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	snap, err := s.ledger.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats.Aggregate(snap))
}

func (s *Server) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, report.BuildWorkbook)
}

func (s *Server) exportQuickSheet(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, report.BuildQuickSheet)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, build func([]*entity.Receipt, string) ([]byte, string, error)) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	snap, err := s.ledger.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	baseName := r.URL.Query().Get("name")
	if baseName == "" {
		baseName = report.DefaultBaseName(time.Now())
	}

	content, filename, err := build(snap, baseName)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("drive") == "1" {
		if s.drive == nil {
			writeError(w, common.WrapError(common.ErrInvalidInput, "drive uploads are disabled"))
			return
		}
		fileID, err := s.drive.UploadWorkbook(r.Context(), filename, content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"fileId": fileID, "filename": filename})
		return
	}

	w.Header().Set("Content-Type", constants.XLSXMIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(content); err != nil {
		s.logger.Error("export.write.failed", "error", err)
	}
}

// liveReceipts streams the owner's snapshot over server-sent events. The
// first event carries the current state; each append or delete pushes a
// fresh one.
func (s *Server) liveReceipts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, common.NewAppError("STREAMING_UNSUPPORTED", "response writer does not support streaming", nil))
		return
	}

	updates, cancel, err := s.ledger.Subscribe(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-updates:
			body, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error("live.encode.failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", body)
			flusher.Flush()
		}
	}
}

type chatRequest struct {
	Messages []assist.Message `json:"messages"`
}

// chat forwards the conversation to the help assistant. Only user and
// assistant turns are accepted; the system prompt lives server-side.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "el asistente no está disponible"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.WrapError(common.ErrInvalidInput, "invalid request body"))
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, common.WrapError(common.ErrInvalidInput, "messages must not be empty"))
		return
	}
	for _, m := range req.Messages {
		if m.Role != assist.RoleUser && m.Role != assist.RoleAssistant {
			writeError(w, common.WrapError(common.ErrInvalidInput, fmt.Sprintf("unsupported role %q", m.Role)))
			return
		}
	}

	reply, err := s.assistant.Chat(r.Context(), req.Messages)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": reply})
}

func (s *Server) tutorial(w http.ResponseWriter, r *http.Request) {
	screen := r.URL.Query().Get("context")
	writeJSON(w, http.StatusOK, map[string]string{"tutorial": assist.Tutorial(screen)})
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, common.WrapError(common.ErrInvalidInput, "owner_id is required"))
		return "", false
	}
	return ownerID, true
}
