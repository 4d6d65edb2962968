package storage

// sqlite.go — historial de quotes valoradas.
//
// Estrategia:
//   - `quotes`: una fila por quote correcta, clave = UUID de la quote.
//     Las filas con error de validación no se persisten.
//   - priced_at se guarda como texto de ancho fijo en UTC, así el BETWEEN
//     lexicográfico coincide con el orden temporal.
//   - Prune automático al arrancar: quotes > 90d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/crrpricer/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
    id            TEXT PRIMARY KEY,
    label         TEXT,
    kind          TEXT    NOT NULL,
    spot          REAL    NOT NULL,
    strike        REAL    NOT NULL,
    rate          REAL    NOT NULL,
    maturity      REAL    NOT NULL,
    volatility    REAL    NOT NULL,
    steps         INTEGER NOT NULL,
    value         REAL    NOT NULL,
    intrinsic     REAL    NOT NULL DEFAULT 0,
    probability   REAL    NOT NULL,
    prob_in_range INTEGER NOT NULL DEFAULT 1,
    early_nodes   INTEGER NOT NULL DEFAULT 0,
    priced_at     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_at   ON quotes(priced_at DESC);
CREATE INDEX IF NOT EXISTS idx_quotes_kind ON quotes(kind);
`

const (
	retentionQuotes = 90 * 24 * time.Hour
	timeLayout      = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteStorage implementa ports.QuoteStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveQuotes inserta las quotes correctas en una sola transacción.
func (s *SQLiteStorage) SaveQuotes(ctx context.Context, quotes []domain.Quote) error {
	toWrite := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.OK() {
			toWrite = append(toWrite, q)
		}
	}
	if len(toWrite) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveQuotes: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quotes
			(id, label, kind, spot, strike, rate, maturity, volatility, steps,
			 value, intrinsic, probability, prob_in_range, early_nodes, priced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveQuotes: prepare: %w", err)
	}
	defer stmt.Close()

	for _, q := range toWrite {
		inRange := 0
		if q.ProbabilityInRange {
			inRange = 1
		}
		r := q.Request
		if _, err := stmt.ExecContext(ctx,
			q.ID,
			r.Label,
			r.Kind.String(),
			r.Spot,
			r.Strike,
			r.Rate,
			r.Maturity,
			r.Volatility,
			r.Steps,
			q.Value,
			q.Intrinsic,
			q.Probability,
			inRange,
			q.EarlyExerciseNodes,
			q.PricedAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("storage.SaveQuotes: insert %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveQuotes: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve las quotes cuyo priced_at está en el rango dado.
// Ordenadas por priced_at desc, las más recientes primero.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, kind, spot, strike, rate, maturity, volatility, steps,
		       value, intrinsic, probability, prob_in_range, early_nodes, priced_at
		FROM quotes
		WHERE priced_at BETWEEN ? AND ?
		ORDER BY priced_at DESC
	`, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		var q domain.Quote
		var kind, pricedAt string
		var label sql.NullString
		var inRange int

		if err := rows.Scan(
			&q.ID,
			&label,
			&kind,
			&q.Request.Spot,
			&q.Request.Strike,
			&q.Request.Rate,
			&q.Request.Maturity,
			&q.Request.Volatility,
			&q.Request.Steps,
			&q.Value,
			&q.Intrinsic,
			&q.Probability,
			&inRange,
			&q.EarlyExerciseNodes,
			&pricedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}

		if q.Request.Kind, err = domain.ParseOptionKind(kind); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: row %s: %w", q.ID, err)
		}
		q.Request.Label = label.String
		q.ProbabilityInRange = inRange == 1
		if q.PricedAt, err = time.Parse(timeLayout, pricedAt); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: row %s: parse priced_at: %w", q.ID, err)
		}
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina quotes antiguas para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionQuotes).Format(timeLayout)
	s.db.ExecContext(ctx, `DELETE FROM quotes WHERE priced_at < ?`, cutoff)
}
