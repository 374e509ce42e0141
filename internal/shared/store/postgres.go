package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Schema cria a tabela de nós; idempotente
const Schema = `
CREATE TABLE IF NOT EXISTS kv_nodes (
	parent     TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (parent, key)
);
CREATE INDEX IF NOT EXISTS kv_nodes_users_email_idx ON kv_nodes ((value->>'email')) WHERE parent = 'users';
`

const upsertNode = `
	INSERT INTO kv_nodes (parent, key, value, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (parent, key) DO UPDATE SET
	  value      = EXCLUDED.value,
	  updated_at = EXCLUDED.updated_at`

// appendUnique só altera a linha se o valor ainda não está na lista e ela tem espaço
const appendUnique = `
	UPDATE kv_nodes
	SET value = jsonb_set(value, $3::text[], COALESCE(value #> $3::text[], '[]'::jsonb) || to_jsonb($4::text), true),
	    updated_at = NOW()
	WHERE parent = $1 AND key = $2
	  AND NOT (COALESCE(value #> $3::text[], '[]'::jsonb) ? $4::text)
	  AND ($5::int <= 0 OR jsonb_array_length(COALESCE(value #> $3::text[], '[]'::jsonb)) < $5::int)`

// Postgres implementa Store sobre uma tabela JSONB no Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna o store; chame EnsureSchema na subida do serviço
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsureSchema aplica o DDL da tabela kv_nodes
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return unavailable("schema", "kv_nodes", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Get(ctx context.Context, path string, dst any) (bool, error) {
	parent, key, err := split(path)
	if err != nil {
		return false, err
	}
	var raw []byte
	err = p.db.QueryRowContext(ctx, `SELECT value FROM kv_nodes WHERE parent=$1 AND key=$2`, parent, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("get", path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("store get %s: decode: %w", path, err)
	}
	return true, nil
}

func (p *Postgres) Set(ctx context.Context, path string, value any) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store set %s: encode: %w", path, err)
	}
	if _, err := p.db.ExecContext(ctx, upsertNode, parent, key, string(b)); err != nil {
		return unavailable("set", path, err)
	}
	return nil
}

// SetMany grava todos os nós numa única transação, em ordem de caminho
func (p *Postgres) SetMany(ctx context.Context, values map[string]any) error {
	paths := sortedKeys(values)
	type row struct {
		parent, key string
		value       string
	}
	rows := make([]row, 0, len(paths))
	for _, path := range paths {
		parent, key, err := split(path)
		if err != nil {
			return err
		}
		b, err := json.Marshal(values[path])
		if err != nil {
			return fmt.Errorf("store set %s: encode: %w", path, err)
		}
		rows = append(rows, row{parent, key, string(b)})
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("batch", "begin", err)
	}
	defer tx.Rollback()

	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, upsertNode, r.parent, r.key, r.value); err != nil {
			return unavailable("batch", paths[i], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("batch", "commit", err)
	}
	return nil
}

// Update aplica jsonb_set encadeado numa única instrução, então a alteração é atômica por nó
func (p *Postgres) Update(ctx context.Context, path string, fields map[string]any) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	args := []any{parent, key}
	expr := "value"
	for _, f := range sortedKeys(fields) {
		b, err := json.Marshal(fields[f])
		if err != nil {
			return fmt.Errorf("store update %s.%s: encode: %w", path, f, err)
		}
		args = append(args, pq.Array(strings.Split(f, "/")), string(b))
		expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], $%d::jsonb, true)", expr, len(args)-1, len(args))
	}

	q := fmt.Sprintf(`UPDATE kv_nodes SET value = %s, updated_at = NOW() WHERE parent=$1 AND key=$2`, expr)
	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return unavailable("update", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update", path, err)
	}
	if n == 0 {
		return fmt.Errorf("store update %s: %w", path, ErrNotFound)
	}
	return nil
}

// AppendUnique decide e grava numa única instrução; sem linha alterada, relê o nó
// só para escolher o erro
func (p *Postgres) AppendUnique(ctx context.Context, path, field, value string, limit int) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	parts := pq.Array(strings.Split(field, "/"))

	res, err := p.db.ExecContext(ctx, appendUnique, parent, key, parts, value, limit)
	if err != nil {
		return unavailable("append", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("append", path, err)
	}
	if n > 0 {
		return nil
	}

	var raw []byte
	err = p.db.QueryRowContext(ctx,
		`SELECT COALESCE(value #> $3::text[], '[]'::jsonb) FROM kv_nodes WHERE parent=$1 AND key=$2`,
		parent, key, parts).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store append %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return unavailable("append", path, err)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("store append %s.%s: decode: %w", path, field, err)
	}
	for _, v := range list {
		if v == value {
			return fmt.Errorf("store append %s.%s: %w", path, field, ErrAlreadyPresent)
		}
	}
	return fmt.Errorf("store append %s.%s: %w", path, field, ErrLimitReached)
}

func (p *Postgres) Push(_ context.Context, path string) (string, error) {
	if err := validParent(path); err != nil {
		return "", err
	}
	return newKey()
}

func (p *Postgres) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	if err := validParent(path); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT key, value FROM kv_nodes WHERE parent=$1 ORDER BY key`, path)
	if err != nil {
		return nil, unavailable("children", path, err)
	}
	return scanChildren(path, rows)
}

func (p *Postgres) QueryByField(ctx context.Context, path, field, value string) (map[string]json.RawMessage, error) {
	if err := validParent(path); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT key, value FROM kv_nodes WHERE parent=$1 AND value->>$2 = $3 ORDER BY key`,
		path, field, value)
	if err != nil {
		return nil, unavailable("query", path, err)
	}
	return scanChildren(path, rows)
}

// Delete remove o nó e a subárvore (filhos com parent = path ou parent iniciando em path/)
func (p *Postgres) Delete(ctx context.Context, path string) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`DELETE FROM kv_nodes WHERE (parent=$1 AND key=$2) OR parent=$3 OR parent LIKE $4`,
		parent, key, path, path+"/%")
	if err != nil {
		return unavailable("delete", path, err)
	}
	return nil
}

func scanChildren(path string, rows *sql.Rows) (map[string]json.RawMessage, error) {
	defer rows.Close()
	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, unavailable("scan", path, err)
		}
		out[k] = json.RawMessage(v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("scan", path, err)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ Store = (*Postgres)(nil)
