package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

// Tipos de registro na trilha de auditoria
const (
	KindPlaced        = "placed"
	KindResultChecked = "result_checked"
)

// Schema da trilha; (bet_id, kind) único torna a reentrega idempotente
const Schema = `
CREATE TABLE IF NOT EXISTS bet_transactions (
	id         BIGSERIAL   PRIMARY KEY,
	bet_id     TEXT        NOT NULL,
	user_id    TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	jogo       TEXT        NOT NULL,
	concurso   TEXT        NOT NULL,
	old_status TEXT,
	new_status TEXT        NOT NULL,
	acertos    INT,
	payload    JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (bet_id, kind)
);
CREATE INDEX IF NOT EXISTS bet_transactions_user_idx ON bet_transactions (user_id, created_at);
`

const insertTx = `
	INSERT INTO bet_transactions
	  (bet_id, user_id, kind, jogo, concurso, old_status, new_status, acertos, payload)
	VALUES
	  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (bet_id, kind) DO NOTHING`

// PostgresRepo grava a trilha de auditoria das apostas
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

// InsertPlaced registra a criação da aposta (sem status anterior)
func (r *PostgresRepo) InsertPlaced(ctx context.Context, e events.BetPlaced) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, insertTx,
		e.BetID, e.UserID, KindPlaced, e.Jogo, e.Concurso,
		nil, e.Status, nil, string(payload),
	)
	return err
}

// InsertResultChecked registra a primeira conferência do resultado
func (r *PostgresRepo) InsertResultChecked(ctx context.Context, e events.BetResultChecked) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, insertTx,
		e.BetID, e.UserID, KindResultChecked, e.Jogo, e.Concurso,
		e.OldStatus, e.NewStatus, e.Acertos, string(payload),
	)
	return err
}
