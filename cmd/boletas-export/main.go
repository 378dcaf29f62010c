// boletas-export writes an owner's receipt ledger to an XLSX workbook, to a
// local file or straight to Google Drive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vickotoAguilera/BoletasScaner/internal/config"
	"github.com/vickotoAguilera/BoletasScaner/internal/drive"
	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/ledger/store"
	"github.com/vickotoAguilera/BoletasScaner/internal/report"
)

func main() {
	var (
		owner   = flag.String("owner", "", "owner id whose receipts to export (required)")
		out     = flag.String("out", "", "output XLSX path (defaults to <name>.xlsx in the working directory)")
		name    = flag.String("name", "", "workbook base name (defaults to mis-gastos-YYYY-MM-DD)")
		quick   = flag.Bool("quick", false, "export the single-sheet summary instead of the full workbook")
		toDrive = flag.Bool("drive", false, "upload the workbook to Google Drive instead of writing a file")
	)
	flag.Parse()

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "Error: --owner is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(store.Dialect(cfg.DB.Driver), cfg.DB.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.RunMigrations(db, store.Dialect(cfg.DB.Driver)); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	st := store.New(db, store.Dialect(cfg.DB.Driver), logger)
	records, err := st.List(ctx, *owner)
	if err != nil {
		logger.Error("failed to list receipts", "owner", *owner, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded receipts", "owner", *owner, "count", len(records))

	baseName := *name
	if baseName == "" {
		baseName = report.DefaultBaseName(time.Now())
	}

	build := report.BuildWorkbook
	if *quick {
		build = report.BuildQuickSheet
	}
	content, filename, err := build([]*entity.Receipt(records), baseName)
	if err != nil {
		logger.Error("failed to build workbook", "error", err)
		os.Exit(1)
	}

	if *toDrive {
		client, err := drive.NewFromEnv(ctx, logger)
		if err != nil {
			logger.Error("failed to create drive client", "error", err)
			os.Exit(1)
		}
		fileID, err := client.UploadWorkbook(ctx, filename, content)
		if err != nil {
			logger.Error("failed to upload workbook", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Uploaded %s to Drive (file id %s)\n", filename, fileID)
		return
	}

	path := *out
	if path == "" {
		path = filename
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		logger.Error("failed to write output file", "path", path, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Export complete!\n")
	fmt.Printf("- Receipts: %d\n", len(records))
	fmt.Printf("- Output: %s\n", path)
}
