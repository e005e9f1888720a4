package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
)

const selectColumns = `SELECT id, import_id, booking_date, payee, purpose, counterparty, amount,
	category_payee, category_purpose, category_counterparty, final_category, processed, created_at
	FROM transactions`

// categorySet is true when a per-field category holds a usable value.
func categorySet(col string) string {
	return fmt.Sprintf("(%[1]s IS NOT NULL AND TRIM(%[1]s) <> '' AND LOWER(%[1]s) <> 'nan')", col)
}

var (
	classifiedSQL = "(final_category IS NOT NULL OR " + categorySet("category_purpose") +
		" OR " + categorySet("category_payee") + " OR " + categorySet("category_counterparty") + ")"

	// effectiveCategorySQL is the first usable category of purpose, payee
	// and counterparty.
	effectiveCategorySQL = "COALESCE(" +
		"CASE WHEN " + categorySet("category_purpose") + " THEN TRIM(category_purpose) END, " +
		"CASE WHEN " + categorySet("category_payee") + " THEN TRIM(category_payee) END, " +
		"CASE WHEN " + categorySet("category_counterparty") + " THEN TRIM(category_counterparty) END)"
)

// ClassifiedFilter selects rows by classification state.
type ClassifiedFilter string

const (
	ClassifiedAll  ClassifiedFilter = "all"
	ClassifiedOnly ClassifiedFilter = "classified"
	Unclassified   ClassifiedFilter = "unclassified"
)

// ParseClassifiedFilter reads all|classified|unclassified; blank is all.
func ParseClassifiedFilter(s string) (ClassifiedFilter, error) {
	switch v := ClassifiedFilter(strings.ToLower(strings.TrimSpace(s))); v {
	case "", ClassifiedAll:
		return ClassifiedAll, nil
	case ClassifiedOnly, Unclassified:
		return v, nil
	default:
		return "", fmt.Errorf("invalid classified filter %q (use all, classified or unclassified)", s)
	}
}

// Filter narrows ListTransactions. Year is YYYY, Month is M or MM.
type Filter struct {
	Year       string
	Month      string
	Classified ClassifiedFilter
}

// DefaultUnclassifiedLimit applies when ListUnclassified gets no limit.
const DefaultUnclassifiedLimit = 100

// InsertTransactions stores txs in one database transaction and sets their
// ids. Either all rows are stored or none.
func (s *SQLiteStorage) InsertTransactions(ctx context.Context, txs []models.StoredTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (
		import_id, booking_date, payee, purpose, counterparty, amount,
		category_payee, category_purpose, category_counterparty, final_category, processed, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Truncate(time.Second)
	for i := range txs {
		t := &txs[i]
		var final interface{}
		if t.FinalCategory != nil {
			final = *t.FinalCategory
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		res, err := stmt.ExecContext(ctx,
			t.ImportID,
			nullable(t.BookingDate),
			nullable(t.Payee),
			nullable(t.Purpose),
			nullable(t.Counterparty),
			nullable(t.Amount),
			nullable(t.CategoryPayee),
			nullable(t.CategoryPurpose),
			nullable(t.CategoryCounterparty),
			final,
			t.Processed,
			t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read inserted id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	s.logger.Debug("Inserted transactions", logging.Field{Key: logging.FieldCount, Value: len(txs)})
	return nil
}

// GetTransaction returns the row with id or ErrNotFound.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id int64) (*models.StoredTransaction, error) {
	rows, err := s.query(ctx, selectColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return &rows[0], nil
}

// ListTransactions returns rows matching f, newest booking date first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, f Filter) ([]models.StoredTransaction, error) {
	var (
		where []string
		args  []interface{}
	)
	if y := strings.TrimSpace(f.Year); y != "" {
		where = append(where, "substr(booking_date, 1, 4) = ?")
		args = append(args, y)
	}
	if m := strings.TrimSpace(f.Month); m != "" {
		if len(m) == 1 {
			m = "0" + m
		}
		where = append(where, "substr(booking_date, 6, 2) = ?")
		args = append(args, m)
	}
	switch f.Classified {
	case ClassifiedOnly:
		where = append(where, classifiedSQL)
	case Unclassified:
		where = append(where, "NOT "+classifiedSQL)
	}

	q := selectColumns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY booking_date DESC, id DESC"
	return s.query(ctx, q, args...)
}

// ListUnclassified returns up to limit rows without any category.
func (s *SQLiteStorage) ListUnclassified(ctx context.Context, limit int) ([]models.StoredTransaction, error) {
	if limit <= 0 {
		limit = DefaultUnclassifiedLimit
	}
	return s.query(ctx, selectColumns+" WHERE NOT "+classifiedSQL+" ORDER BY id LIMIT ?", limit)
}

// SetCategory assigns categoryID to one per-field category. The final
// category fixed at insert is left alone.
func (s *SQLiteStorage) SetCategory(ctx context.Context, id int64, field models.CategoryField, categoryID string) error {
	var col string
	switch field {
	case models.FieldPurpose:
		col = "category_purpose"
	case models.FieldPayee:
		col = "category_payee"
	case models.FieldCounterparty:
		col = "category_counterparty"
	default:
		return fmt.Errorf("unknown category field %q", field)
	}

	res, err := s.db.ExecContext(ctx, "UPDATE transactions SET "+col+" = ? WHERE id = ?", nullable(categoryID), id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return expectAffected(res, id)
}

// DeleteTransaction removes one row or returns ErrNotFound.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectAffected(res, id)
}

// DeleteTransactions removes all rows with the given ids and returns how
// many existed.
func (s *SQLiteStorage) DeleteTransactions(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return res.RowsAffected()
}

// MarkProcessed flags rows as processed.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET processed = 1 WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark transactions processed: %w", err)
	}
	return res.RowsAffected()
}

// ListCategorized returns rows with at least one usable per-field category,
// oldest first.
func (s *SQLiteStorage) ListCategorized(ctx context.Context) ([]models.StoredTransaction, error) {
	return s.query(ctx, selectColumns+" WHERE "+effectiveCategorySQL+" IS NOT NULL ORDER BY booking_date, id")
}

// ListByCategoryID returns rows whose effective category is categoryID,
// oldest first.
func (s *SQLiteStorage) ListByCategoryID(ctx context.Context, categoryID string) ([]models.StoredTransaction, error) {
	return s.query(ctx, selectColumns+" WHERE "+effectiveCategorySQL+" = ? ORDER BY booking_date, id",
		strings.TrimSpace(categoryID))
}

func expectAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStorage) query(ctx context.Context, q string, args ...interface{}) ([]models.StoredTransaction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.StoredTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (models.StoredTransaction, error) {
	var (
		t                                          models.StoredTransaction
		date, payee, purpose, counterparty, amount sql.NullString
		catPayee, catPurpose, catCounterparty      sql.NullString
		final                                      sql.NullInt64
		created                                    sql.NullTime
	)
	err := rows.Scan(&t.ID, &t.ImportID, &date, &payee, &purpose, &counterparty, &amount,
		&catPayee, &catPurpose, &catCounterparty, &final, &t.Processed, &created)
	if err != nil {
		return t, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.BookingDate = date.String
	t.Payee = payee.String
	t.Purpose = purpose.String
	t.Counterparty = counterparty.String
	t.Amount = amount.String
	t.CategoryPayee = catPayee.String
	t.CategoryPurpose = catPurpose.String
	t.CategoryCounterparty = catCounterparty.String
	if final.Valid {
		v := int(final.Int64)
		t.FinalCategory = &v
	}
	if created.Valid {
		t.CreatedAt = created.Time
	}
	return t, nil
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
