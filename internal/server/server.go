// Package server exposes the receipt ledger over HTTP: analysis of receipt
// photos, record CRUD, aggregated stats, workbook export, and a live
// server-sent-events feed.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vickotoAguilera/BoletasScaner/internal/assist"
	"github.com/vickotoAguilera/BoletasScaner/internal/drive"
	"github.com/vickotoAguilera/BoletasScaner/internal/extract"
	"github.com/vickotoAguilera/BoletasScaner/internal/ledger"
)

type Server struct {
	ledger    *ledger.Ledger
	extractor extract.Extractor
	drive     *drive.Client    // nil when Drive uploads are disabled
	assistant assist.Assistant // nil when the help chat is disabled
	logger    *slog.Logger
}

func New(l *ledger.Ledger, extractor extract.Extractor, driveClient *drive.Client, assistant assist.Assistant, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{ledger: l, extractor: extractor, drive: driveClient, assistant: assistant, logger: logger}
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Post("/chat", s.chat)
		r.Get("/tutorial", s.tutorial)

		r.Route("/receipts", func(r chi.Router) {
			r.Post("/", s.createReceipt)
			r.Get("/", s.listReceipts)
			r.Get("/stats", s.receiptStats)
			r.Get("/live", s.liveReceipts)
			r.Delete("/{id}", s.deleteReceipt)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/", s.exportWorkbook)
			r.Get("/quick", s.exportQuickSheet)
		})
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
