package db

import (
	"context"
	"database/sql"

	"fungible-token-demo/internal/model"
)

// Journal stores references to submitted transactions for display.
type Journal struct {
	db *sql.DB
}

func NewJournal(conn *sql.DB) *Journal {
	return &Journal{db: conn}
}

func (j *Journal) Record(ctx context.Context, tx model.Transaction) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO transactions (id, kind, signer, recipient, amount, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		tx.ID, tx.Kind, tx.Signer, tx.Recipient, tx.Amount, tx.SubmittedAt)
	return err
}

// Recent returns the newest limit transactions, newest first. A limit of
// zero or less returns all of them.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, signer, recipient, amount, submitted_at
		 FROM transactions ORDER BY submitted_at DESC LIMIT $1`, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(&tx.ID, &tx.Kind, &tx.Signer, &tx.Recipient, &tx.Amount, &tx.SubmittedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// limitArg maps non-positive limits to NULL, which Postgres treats as LIMIT ALL.
func limitArg(limit int) sql.NullInt64 {
	if limit <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(limit), Valid: true}
}
