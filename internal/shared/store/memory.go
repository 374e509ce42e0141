package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Memory é um Store em memória para testes e execução local sem Postgres.
// Fail, se definido, é consultado antes de cada operação e permite simular falhas.
type Memory struct {
	mu    sync.RWMutex
	nodes map[string]map[string][]byte // parent -> key -> json

	Fail func(op, path string) error
}

func NewMemory() *Memory {
	return &Memory{nodes: make(map[string]map[string][]byte)}
}

func (m *Memory) fail(op, path string) error {
	if m.Fail == nil {
		return nil
	}
	if err := m.Fail(op, path); err != nil {
		return unavailable(op, path, err)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return m.fail("ping", "") }

func (m *Memory) Get(_ context.Context, path string, dst any) (bool, error) {
	parent, key, err := split(path)
	if err != nil {
		return false, err
	}
	if err := m.fail("get", path); err != nil {
		return false, err
	}
	m.mu.RLock()
	raw, ok := m.nodes[parent][key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("store get %s: decode: %w", path, err)
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, path string, value any) error {
	return m.SetMany(ctx, map[string]any{path: value})
}

func (m *Memory) SetMany(_ context.Context, values map[string]any) error {
	type row struct {
		parent, key string
		value       []byte
	}
	rows := make([]row, 0, len(values))
	for _, path := range sortedKeys(values) {
		parent, key, err := split(path)
		if err != nil {
			return err
		}
		if err := m.fail("set", path); err != nil {
			return err
		}
		b, err := json.Marshal(values[path])
		if err != nil {
			return fmt.Errorf("store set %s: encode: %w", path, err)
		}
		rows = append(rows, row{parent, key, b})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		if m.nodes[r.parent] == nil {
			m.nodes[r.parent] = make(map[string][]byte)
		}
		m.nodes[r.parent][r.key] = r.value
	}
	return nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	if err := m.fail("update", path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.nodes[parent][key]
	if !ok {
		return fmt.Errorf("store update %s: %w", path, ErrNotFound)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("store update %s: decode: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	for _, f := range sortedKeys(fields) {
		// normaliza o valor para a mesma forma que teria após ida e volta em JSON
		b, err := json.Marshal(fields[f])
		if err != nil {
			return fmt.Errorf("store update %s.%s: encode: %w", path, f, err)
		}
		var v any
		_ = json.Unmarshal(b, &v)
		setNested(doc, strings.Split(f, "/"), v)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store update %s: encode: %w", path, err)
	}
	m.nodes[parent][key] = b
	return nil
}

func (m *Memory) AppendUnique(_ context.Context, path, field, value string, limit int) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	if err := m.fail("append", path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.nodes[parent][key]
	if !ok {
		return fmt.Errorf("store append %s: %w", path, ErrNotFound)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("store append %s: decode: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}

	parts := strings.Split(field, "/")
	var list []any
	if cur := getNested(doc, parts); cur != nil {
		arr, ok := cur.([]any)
		if !ok {
			return fmt.Errorf("store append %s.%s: campo não é lista", path, field)
		}
		list = arr
	}
	for _, v := range list {
		if s, _ := v.(string); s == value {
			return fmt.Errorf("store append %s.%s: %w", path, field, ErrAlreadyPresent)
		}
	}
	if limit > 0 && len(list) >= limit {
		return fmt.Errorf("store append %s.%s: %w", path, field, ErrLimitReached)
	}
	setNested(doc, parts, append(list, value))

	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store append %s: encode: %w", path, err)
	}
	m.nodes[parent][key] = b
	return nil
}

func (m *Memory) Push(_ context.Context, path string) (string, error) {
	if err := validParent(path); err != nil {
		return "", err
	}
	if err := m.fail("push", path); err != nil {
		return "", err
	}
	return newKey()
}

func (m *Memory) Children(_ context.Context, path string) (map[string]json.RawMessage, error) {
	if err := validParent(path); err != nil {
		return nil, err
	}
	if err := m.fail("children", path); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(m.nodes[path]))
	for k, v := range m.nodes[path] {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (m *Memory) QueryByField(_ context.Context, path, field, value string) (map[string]json.RawMessage, error) {
	if err := validParent(path); err != nil {
		return nil, err
	}
	if err := m.fail("query", path); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage)
	for k, v := range m.nodes[path] {
		var doc map[string]any
		if json.Unmarshal(v, &doc) != nil {
			continue
		}
		if s, ok := doc[field].(string); ok && s == value {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	parent, key, err := split(path)
	if err != nil {
		return err
	}
	if err := m.fail("delete", path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes[parent], key)
	for p := range m.nodes {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.nodes, p)
		}
	}
	return nil
}

func getNested(doc map[string]any, parts []string) any {
	var cur any = doc
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[p]
	}
	return cur
}

func setNested(doc map[string]any, parts []string, v any) {
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

var _ Store = (*Memory)(nil)
