// Package store implementa o banco hierárquico chave/valor usado pelas apostas.
//
// Cada caminho "a/b/c" é um nó independente (pai "a/b", chave "c") com um
// documento JSON. Get lê apenas o valor do nó; Children lista os filhos diretos.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("registro não encontrado")
	ErrUnavailable = errors.New("banco de dados indisponível")
	ErrInvalidPath = errors.New("caminho inválido")

	// AppendUnique
	ErrAlreadyPresent = errors.New("valor já presente na lista")
	ErrLimitReached   = errors.New("lista atingiu o limite")
)

// Store é o contrato consumido pelos repositórios
type Store interface {
	// Get decodifica o nó em dst; retorna false se o nó não existe
	Get(ctx context.Context, path string, dst any) (bool, error)
	// Set grava (ou substitui) o valor do nó
	Set(ctx context.Context, path string, value any) error
	// SetMany grava vários nós de forma atômica: ou todos, ou nenhum
	SetMany(ctx context.Context, values map[string]any) error
	// Update altera só os campos informados; chaves com "/" apontam campos aninhados.
	// Retorna ErrNotFound se o nó não existe.
	Update(ctx context.Context, path string, fields map[string]any) error
	// AppendUnique acrescenta value à lista de strings em field (chaves com "/" apontam
	// campos aninhados) numa única operação atômica. Falha com ErrAlreadyPresent se value
	// já está na lista, ErrLimitReached se a lista tem limit itens ou mais (limit <= 0: sem
	// limite) e ErrNotFound se o nó não existe.
	AppendUnique(ctx context.Context, path, field, value string, limit int) error
	// Push gera uma chave nova (ordenada no tempo) sob path, sem gravar nada
	Push(ctx context.Context, path string) (string, error)
	// Children retorna os filhos diretos de path, por chave
	Children(ctx context.Context, path string) (map[string]json.RawMessage, error)
	// QueryByField retorna os filhos diretos de path cujo campo field é igual a value
	QueryByField(ctx context.Context, path, field, value string) (map[string]json.RawMessage, error)
	// Delete remove o nó e todos os descendentes
	Delete(ctx context.Context, path string) error
	Ping(ctx context.Context) error
}

// Join monta um caminho a partir dos segmentos
func Join(parts ...string) string { return strings.Join(parts, "/") }

// split separa "a/b/c" em ("a/b", "c")
func split(path string) (parent, key string, err error) {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path, nil
	}
	return path[:i], path[i+1:], nil
}

func validParent(path string) error {
	if _, _, err := split(path); err != nil {
		return err
	}
	return nil
}

// newKey gera chaves UUIDv7, que ordenam pela hora de criação
func newKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func unavailable(op, path string, err error) error {
	return fmt.Errorf("store %s %s: %w: %w", op, path, ErrUnavailable, err)
}
