package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/domain/transaction"
)

const transactionColumns = `id, order_id, gateway, amount, currency, status,
	        gateway_transaction_id, gateway_reference, redirect_url, message,
	        refunded_amount, response, metadata, created_at, updated_at`

// TransactionRepository implements transaction.Repository using PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new transaction. A duplicate order id maps to
// ErrInvalidInput so callers can reject replays of the same order.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	response, err := json.Marshal(t.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO transactions
		 (id, order_id, gateway, amount, currency, status,
		  gateway_transaction_id, gateway_reference, redirect_url, message,
		  refunded_amount, response, metadata, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		t.ID, t.OrderID, t.Gateway, centsToNumericString(t.AmountCents), t.Currency, string(t.Status),
		t.GatewayTransactionID, t.GatewayReference, t.RedirectURL, t.Message,
		centsToNumericString(t.RefundedCents), response, metadata, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.NewDomainError(
				"duplicate_order",
				"a transaction already exists for order "+t.OrderID,
				domainErrors.ErrInvalidInput,
			)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByOrderID retrieves a transaction by the merchant order id.
func (r *TransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*transaction.Transaction, error) {
	return r.scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE order_id = $1`, orderID))
}

// GetByGatewayTransactionID retrieves a transaction by the id the gateway
// assigned, which is what webhook payloads usually carry.
func (r *TransactionRepository) GetByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*transaction.Transaction, error) {
	return r.scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE gateway_transaction_id = $1`, gatewayTxnID))
}

// Update updates an existing transaction.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	response, err := json.Marshal(t.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET
		  status=$1, gateway_transaction_id=$2, gateway_reference=$3, redirect_url=$4,
		  message=$5, refunded_amount=$6, response=$7, metadata=$8, updated_at=$9
		 WHERE id=$10`,
		string(t.Status), t.GatewayTransactionID, t.GatewayReference, t.RedirectURL,
		t.Message, centsToNumericString(t.RefundedCents), response, metadata, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}
	return nil
}

// List lists transactions with optional filters, newest first.
func (r *TransactionRepository) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`)
	args := []any{}
	argIdx := 1

	if f.Gateway != "" {
		fmt.Fprintf(&sb, " AND gateway = $%d", argIdx)
		args = append(args, f.Gateway)
		argIdx++
	}
	if f.Status != "" {
		fmt.Fprintf(&sb, " AND status = $%d", argIdx)
		args = append(args, string(f.Status))
		argIdx++
	}

	sb.WriteString(" ORDER BY created_at DESC")

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*transaction.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// scanTransaction scans a transaction from any source implementing scanner.
func (r *TransactionRepository) scanTransaction(s scanner) (*transaction.Transaction, error) {
	t := &transaction.Transaction{}
	var (
		amountStr   string
		refundedStr string
		status      string
		response    []byte
		metadata    []byte
	)
	err := s.Scan(
		&t.ID, &t.OrderID, &t.Gateway, &amountStr, &t.Currency, &status,
		&t.GatewayTransactionID, &t.GatewayReference, &t.RedirectURL, &t.Message,
		&refundedStr, &response, &metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	if t.AmountCents, err = numericStringToCents(amountStr); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if t.RefundedCents, err = numericStringToCents(refundedStr); err != nil {
		return nil, fmt.Errorf("parse refunded amount: %w", err)
	}

	t.Status = transaction.Status(status)
	if len(response) > 0 {
		if err := json.Unmarshal(response, &t.Response); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return t, nil
}
