// Package store implements the SQL-backed ledger.Store over database/sql,
// with Postgres (pgx) for hosted deployments and SQLite (modernc) for local
// single-user ones.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/common"
	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/ledger"
)

// Dialect selects the SQL driver.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite"
)

// Open connects and pings the database for the given dialect.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if dialect == DialectPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// SQLite: one writer.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Store is the SQL implementation of ledger.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

var _ ledger.Store = (*Store)(nil)

const receiptColumns = `
	id, owner_id, merchant_name, merchant_tax_id, merchant_address, receipt_number,
	city, purchase_date, purchase_time, total_gross, total_net, total_tax,
	payment_method, category, image_ref, confidence, created_at, updated_at
`

func (s *Store) Append(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error) {
	saved := *rec
	saved.ID = uuid.New()
	now := time.Now().UTC()
	saved.CreatedAt = now
	saved.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapError(err, "begin append")
	}
	defer func() { _ = tx.Rollback() }()

	query := s.rebind(`
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = tx.ExecContext(ctx, query,
		saved.ID.String(),
		saved.OwnerID,
		saved.MerchantName,
		saved.MerchantTaxID,
		saved.MerchantAddress,
		saved.ReceiptNumber,
		saved.City,
		saved.PurchaseDate,
		saved.PurchaseTime,
		saved.TotalGross,
		saved.TotalNet,
		saved.TotalTax,
		string(saved.PaymentMethod),
		string(saved.Category),
		saved.ImageRef,
		saved.Confidence,
		saved.CreatedAt,
		saved.UpdatedAt,
	)
	if err != nil {
		return nil, common.WrapError(err, "inserting receipt")
	}

	itemQuery := s.rebind(`
		INSERT INTO receipt_items (
			receipt_id, position, quantity, description,
			unit_price_gross, unit_price_net, unit_tax,
			line_total_gross, line_total_net, line_total_tax
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for pos, it := range saved.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			saved.ID.String(), pos, it.Quantity, it.Description,
			it.UnitPriceGross, it.UnitPriceNet, it.UnitTax,
			it.LineTotalGross, it.LineTotalNet, it.LineTotalTax,
		); err != nil {
			return nil, common.WrapError(err, "inserting receipt item")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, common.WrapError(err, "commit append")
	}

	s.logger.Info("ledger.append.ok",
		"receipt_id", saved.ID.String(),
		"owner_id", saved.OwnerID,
		"total_gross", saved.TotalGross,
		"items", len(saved.Items),
	)
	return &saved, nil
}

func (s *Store) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin delete")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM receipt_items WHERE receipt_id = ?`), id.String()); err != nil {
		return common.WrapError(err, "deleting receipt items")
	}
	res, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM receipts WHERE id = ? AND owner_id = ?`), id.String(), ownerID)
	if err != nil {
		return common.WrapError(err, "deleting receipt")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "rows affected")
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit delete")
	}

	s.logger.Info("ledger.delete.ok", "receipt_id", id.String(), "owner_id", ownerID)
	return nil
}

func (s *Store) List(ctx context.Context, ownerID string) (ledger.Snapshot, error) {
	query := s.rebind(`
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE owner_id = ?
		ORDER BY purchase_date DESC, created_at DESC
	`)
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, common.WrapError(err, "listing receipts")
	}
	defer rows.Close()

	var snap ledger.Snapshot
	byID := make(map[string]*entity.Receipt)
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, common.WrapError(err, "scanning receipt")
		}
		snap = append(snap, rec)
		byID[rec.ID.String()] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterating receipts")
	}
	if len(snap) == 0 {
		return snap, nil
	}

	if err := s.loadItems(ctx, ownerID, byID); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadItems(ctx context.Context, ownerID string, byID map[string]*entity.Receipt) error {
	query := s.rebind(`
		SELECT i.receipt_id, i.quantity, i.description,
		       i.unit_price_gross, i.unit_price_net, i.unit_tax,
		       i.line_total_gross, i.line_total_net, i.line_total_tax
		FROM receipt_items i
		JOIN receipts r ON r.id = i.receipt_id
		WHERE r.owner_id = ?
		ORDER BY i.receipt_id, i.position
	`)
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return common.WrapError(err, "listing receipt items")
	}
	defer rows.Close()

	for rows.Next() {
		var receiptID string
		var it entity.LineItem
		if err := rows.Scan(
			&receiptID, &it.Quantity, &it.Description,
			&it.UnitPriceGross, &it.UnitPriceNet, &it.UnitTax,
			&it.LineTotalGross, &it.LineTotalNet, &it.LineTotalTax,
		); err != nil {
			return common.WrapError(err, "scanning receipt item")
		}
		if rec, ok := byID[receiptID]; ok {
			rec.Items = append(rec.Items, it)
		}
	}
	return common.WrapError(rows.Err(), "iterating receipt items")
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(sc scanner) (*entity.Receipt, error) {
	var rec entity.Receipt
	var id string
	var taxID, address, number, hora sql.NullString
	var payment, category string

	if err := sc.Scan(
		&id, &rec.OwnerID, &rec.MerchantName, &taxID, &address, &number,
		&rec.City, &rec.PurchaseDate, &hora, &rec.TotalGross, &rec.TotalNet, &rec.TotalTax,
		&payment, &category, &rec.ImageRef, &rec.Confidence, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.MerchantTaxID = nullable(taxID)
	rec.MerchantAddress = nullable(address)
	rec.ReceiptNumber = nullable(number)
	rec.PurchaseTime = nullable(hora)
	rec.PaymentMethod = constants.PaymentMethod(payment)
	rec.Category = constants.Category(category)
	return &rec, nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}

// rebind converts ? placeholders to the $N form Postgres expects. SQLite
// takes ? as-is.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
