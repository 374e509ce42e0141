package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresGet(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_nodes WHERE parent=$1 AND key=$2`)).
		WithArgs("bets", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"nome":"a"}`)))

	var d doc
	ok, err := p.Get(context.Background(), "bets/b1", &d)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", d.Nome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissing(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(`SELECT value FROM kv_nodes`).
		WithArgs("bets", "nope").
		WillReturnError(sql.ErrNoRows)

	var d doc
	ok, err := p.Get(context.Background(), "bets/nope", &d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresGetWrapsDriverError(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(`SELECT value FROM kv_nodes`).WillReturnError(errors.New("conn reset"))

	var d doc
	_, err := p.Get(context.Background(), "bets/b1", &d)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPostgresSetManyUsesTransaction(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv_nodes`).WithArgs("bets", "b1", `{"nome":"a"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO kv_nodes`).WithArgs("users/u1/bets", "b1", `true`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.SetMany(context.Background(), map[string]any{
		"users/u1/bets/b1": true,
		"bets/b1":          doc{Nome: "a"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetManyRollsBackOnFailure(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv_nodes`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO kv_nodes`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := p.SetMany(context.Background(), map[string]any{
		"bets/b1":          doc{Nome: "a"},
		"users/u1/bets/b1": true,
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateBuildsSingleStatement(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE kv_nodes SET value = jsonb_set(jsonb_set(value, $3::text[], $4::jsonb, true), $5::text[], $6::jsonb, true), updated_at = NOW() WHERE parent=$1 AND key=$2`)).
		WithArgs("bets", "b1", sqlmock.AnyArg(), `true`, sqlmock.AnyArg(), `"prize"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := p.Update(context.Background(), "bets/b1", map[string]any{
		"status":     "prize",
		"consultado": true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingRow(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(`UPDATE kv_nodes`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.Update(context.Background(), "bets/b1", map[string]any{"status": "prize"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresAppendUniqueSingleStatement(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(appendUnique)).
		WithArgs("bets", "g1", sqlmock.AnyArg(), "u3", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.AppendUnique(context.Background(), "bets/g1", "grupo/participantes", "u3", 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendUniqueClassifiesRejection(t *testing.T) {
	cases := []struct {
		name  string
		list  string
		found bool
		want  error
	}{
		{"já participa", `["u1","u3"]`, true, ErrAlreadyPresent},
		{"lotado", `["u1","u2"]`, true, ErrLimitReached},
		{"sem aposta", ``, false, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, mock := newMock(t)
			mock.ExpectExec(`UPDATE kv_nodes`).WillReturnResult(sqlmock.NewResult(0, 0))
			q := mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(value #> $3::text[], '[]'::jsonb) FROM kv_nodes WHERE parent=$1 AND key=$2`)).
				WithArgs("bets", "g1", sqlmock.AnyArg())
			if tc.found {
				q.WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(tc.list)))
			} else {
				q.WillReturnError(sql.ErrNoRows)
			}

			err := p.AppendUnique(context.Background(), "bets/g1", "grupo/participantes", "u3", 2)
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresAppendUniqueDriverError(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(`UPDATE kv_nodes`).WillReturnError(errors.New("conn reset"))

	err := p.AppendUnique(context.Background(), "bets/g1", "grupo/participantes", "u3", 2)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPostgresQueryByField(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value FROM kv_nodes WHERE parent=$1 AND value->>$2 = $3 ORDER BY key`)).
		WithArgs("users", "email", "ana@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("u1", []byte(`{"email":"ana@x.com"}`)))

	out, err := p.QueryByField(context.Background(), "users", "email", "ana@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, "u1")
}

func TestPostgresDeleteSubtree(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM kv_nodes`).
		WithArgs("users", "u1", "users/u1", "users/u1/%").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, p.Delete(context.Background(), "users/u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
