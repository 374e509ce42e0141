package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Nome  string         `json:"nome"`
	Email string         `json:"email,omitempty"`
	Grupo map[string]any `json:"grupo,omitempty"`
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "bets/b1", doc{Nome: "a"}))

	var got doc
	ok, err := m.Get(ctx, "bets/b1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Nome)

	ok, err = m.Get(ctx, "bets/missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryInvalidPath(t *testing.T) {
	m := NewMemory()
	for _, p := range []string{"", "/bets", "bets/", "bets//x"} {
		err := m.Set(context.Background(), p, 1)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestMemoryUpdateNestedField(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "bets/g1", doc{Nome: "x", Grupo: map[string]any{"nome": "amigos", "participantes": []string{"u1"}}}))

	require.NoError(t, m.Update(ctx, "bets/g1", map[string]any{"grupo/participantes": []string{"u1", "u2"}}))

	var got doc
	_, err := m.Get(ctx, "bets/g1", &got)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Nome)
	assert.Equal(t, "amigos", got.Grupo["nome"])
	assert.Equal(t, []any{"u1", "u2"}, got.Grupo["participantes"])
}

func TestMemoryUpdateMissingNode(t *testing.T) {
	err := NewMemory().Update(context.Background(), "bets/nope", map[string]any{"status": "prize"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryChildrenAndQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SetMany(ctx, map[string]any{
		"users/u1":         doc{Nome: "Ana", Email: "ana@x.com"},
		"users/u2":         doc{Nome: "Bia", Email: "bia@x.com"},
		"users/u1/bets/b1": true,
		"users/u1/bets/b2": true,
	}))

	kids, err := m.Children(ctx, "users/u1/bets")
	require.NoError(t, err)
	assert.Len(t, kids, 2)
	assert.JSONEq(t, "true", string(kids["b1"]))

	found, err := m.QueryByField(ctx, "users", "email", "bia@x.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	var d doc
	require.NoError(t, json.Unmarshal(found["u2"], &d))
	assert.Equal(t, "Bia", d.Nome)
}

func TestMemoryDeleteSubtree(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SetMany(ctx, map[string]any{
		"users/u1":         doc{Nome: "Ana"},
		"users/u1/bets/b1": true,
	}))

	require.NoError(t, m.Delete(ctx, "users/u1"))

	var d doc
	ok, _ := m.Get(ctx, "users/u1", &d)
	assert.False(t, ok)
	kids, _ := m.Children(ctx, "users/u1/bets")
	assert.Empty(t, kids)
}

func TestMemorySetManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Fail = func(op, path string) error {
		if op == "set" && strings.HasPrefix(path, "users/") {
			return errors.New("boom")
		}
		return nil
	}

	err := m.SetMany(ctx, map[string]any{
		"bets/b1":          doc{Nome: "a"},
		"users/u1/bets/b1": true,
	})
	require.ErrorIs(t, err, ErrUnavailable)

	m.Fail = nil
	var d doc
	ok, err := m.Get(ctx, "bets/b1", &d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPushGeneratesOrderedKeys(t *testing.T) {
	m := NewMemory()
	a, err := m.Push(context.Background(), "bets")
	require.NoError(t, err)
	b, err := m.Push(context.Background(), "bets")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestMemoryAppendUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "bets/g1", doc{Nome: "a", Grupo: map[string]any{"participantes": []string{"u1"}}}))

	require.NoError(t, m.AppendUnique(ctx, "bets/g1", "grupo/participantes", "u2", 3))
	assert.ErrorIs(t, m.AppendUnique(ctx, "bets/g1", "grupo/participantes", "u2", 3), ErrAlreadyPresent)
	require.NoError(t, m.AppendUnique(ctx, "bets/g1", "grupo/participantes", "u3", 3))
	assert.ErrorIs(t, m.AppendUnique(ctx, "bets/g1", "grupo/participantes", "u4", 3), ErrLimitReached)
	assert.ErrorIs(t, m.AppendUnique(ctx, "bets/nope", "grupo/participantes", "u4", 3), ErrNotFound)

	var got doc
	_, err := m.Get(ctx, "bets/g1", &got)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Nome)
	assert.Equal(t, []any{"u1", "u2", "u3"}, got.Grupo["participantes"])
}

func TestMemoryAppendUniqueCreatesMissingList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "bets/g1", doc{Nome: "a"}))

	require.NoError(t, m.AppendUnique(ctx, "bets/g1", "grupo/participantes", "u1", 0))

	var got doc
	_, _ = m.Get(ctx, "bets/g1", &got)
	assert.Equal(t, []any{"u1"}, got.Grupo["participantes"])
}

func TestMemoryAppendUniqueConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "bets/g1", doc{Grupo: map[string]any{"participantes": []string{}}}))

	const writers = 20
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = m.AppendUnique(ctx, "bets/g1", "grupo/participantes", fmt.Sprintf("u%d", i), 5)
		}()
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrLimitReached):
			full++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, writers-5, full)

	var got doc
	_, _ = m.Get(ctx, "bets/g1", &got)
	assert.Len(t, got.Grupo["participantes"], 5)
}
