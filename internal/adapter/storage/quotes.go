package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
)

var (
	_ port.QuotesStorage      = QuoteRepository{}
	_ port.QuotesReader       = QuoteRepository{}
	_ port.QuoteStatusStorage = QuoteRepository{}
)

const defaultListLimit = 20

type QuoteRepository struct {
	sqldb sqldb
}

func NewQuoteRepository(sqldb sqldb) QuoteRepository {
	return QuoteRepository{sqldb}
}

// StoreQuotes upserts the quote requests with their items in a single
// transaction.
func (r QuoteRepository) StoreQuotes(
	ctx context.Context, qs []domain.QuoteRequest,
) (storeErr error) {
	const op = "QuoteRepository.StoreQuotes"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	upsertQuote := `
		INSERT INTO quote_requests (
			id, channel, name, email, phone, company,
			message, currency, total, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			channel = EXCLUDED.channel,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			company = EXCLUDED.company,
			message = EXCLUDED.message,
			currency = EXCLUDED.currency,
			total = EXCLUDED.total,
			updated_at = now();
	`

	insertItem := `
		INSERT INTO quote_items (
			quote_id, position, product_id, name, category, price, quantity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	quoteStmt, err := tx.PrepareContext(ctx, upsertQuote)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer closeStmt(log, quoteStmt)

	itemStmt, err := tx.PrepareContext(ctx, insertItem)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer closeStmt(log, itemStmt)

	for _, q := range qs {
		_, err := quoteStmt.ExecContext(ctx,
			q.ID, string(q.Channel), q.Contact.Name, q.Contact.Email,
			q.Contact.Phone, q.Contact.Company, q.Contact.Message,
			q.Currency, q.Total, q.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM quote_items WHERE quote_id = $1;`, q.ID,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}

		for i, it := range q.Items {
			_, err := itemStmt.ExecContext(ctx,
				q.ID, i+1, it.ProductID, it.Name, string(it.Category),
				it.Price, it.Quantity,
			)
			if err != nil {
				return fmt.Errorf("%s: failed to exec: %w", op, err)
			}
		}
	}

	return nil
}

// StoreQuoteStatus sets the status of a quote. The quote itself does not
// have to be stored yet.
func (r QuoteRepository) StoreQuoteStatus(
	ctx context.Context, quoteID string, st domain.QuoteStatus,
) error {
	const op = "QuoteRepository.StoreQuoteStatus"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO quote_status (quote_id, status)
		VALUES ($1, $2)
		ON CONFLICT (quote_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = now();`

	_, err := r.sqldb.ExecContext(ctx, query, quoteID, string(st))
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

// ReadQuote returns the stored request with its items in submission order.
func (r QuoteRepository) ReadQuote(
	ctx context.Context, id string,
) (domain.StoredQuote, error) {
	const op = "QuoteRepository.ReadQuote"

	if err := ctx.Err(); err != nil {
		return domain.StoredQuote{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			q.id, q.channel, q.name, q.email, q.phone, q.company,
			q.message, q.currency, q.total,
			COALESCE(s.status, 'pending'), q.created_at
		FROM quote_requests q
		LEFT JOIN quote_status s ON s.quote_id = q.id
		WHERE q.id = $1;`

	v, err := scanQuote(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoredQuote{}, fmt.Errorf(
				"%s: %w", op, domain.ErrQuoteNotFound,
			)
		}
		return domain.StoredQuote{}, fmt.Errorf("%s: %w", op, err)
	}

	items, err := r.readItems(ctx, id)
	if err != nil {
		return domain.StoredQuote{}, fmt.Errorf("%s: %w", op, err)
	}
	v.Items = items
	return v, nil
}

// ListQuotes returns the most recent requests without their items.
func (r QuoteRepository) ListQuotes(
	ctx context.Context, limit int,
) ([]domain.StoredQuote, error) {
	const op = "QuoteRepository.ListQuotes"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT
			q.id, q.channel, q.name, q.email, q.phone, q.company,
			q.message, q.currency, q.total,
			COALESCE(s.status, 'pending'), q.created_at
		FROM quote_requests q
		LEFT JOIN quote_status s ON s.quote_id = q.id
		ORDER BY q.created_at DESC, q.id ASC
		LIMIT $1;`

	rows, err := r.sqldb.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var vs []domain.StoredQuote
	for rows.Next() {
		v, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func (r QuoteRepository) readItems(
	ctx context.Context, id string,
) ([]domain.QuoteItem, error) {
	query := `
		SELECT product_id, name, category, price, quantity
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY position ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.QuoteItem
	for rows.Next() {
		var (
			it       domain.QuoteItem
			category string
		)
		err := rows.Scan(
			&it.ProductID, &it.Name, &category, &it.Price, &it.Quantity,
		)
		if err != nil {
			return nil, err
		}
		it.Category = domain.Category(category)
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (domain.StoredQuote, error) {
	var (
		v       domain.StoredQuote
		channel string
		status  string
	)
	err := row.Scan(
		&v.ID, &channel, &v.Contact.Name, &v.Contact.Email,
		&v.Contact.Phone, &v.Contact.Company, &v.Contact.Message,
		&v.Currency, &v.Total, &status, &v.CreatedAt,
	)
	if err != nil {
		return domain.StoredQuote{}, err
	}
	v.Channel = domain.QuoteChannel(channel)
	v.Status = domain.QuoteStatus(status)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}

func closeStmt(log *slog.Logger, stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		log.Error("failed to close prepared stmt", "err", err)
	}
}
