package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type memKV struct {
	data map[string][]byte
	err  error
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) AtomicGet(_ context.Context, key string) (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memKV) AtomicSet(_ context.Context, key string, value any) (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	prev, ok := m.data[key]
	m.data[key] = value.([]byte)
	if !ok {
		return nil, nil
	}
	return prev, nil
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return m.err
}

func (m *memKV) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, m.err
}

type brand struct {
	Name string
	Rank int
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New(newMemKV())

	var miss brand
	if c.Get(ctx, "brands:id:1", &miss) {
		t.Fatal("hit on empty cache")
	}

	c.Set(ctx, "brands:id:1", brand{Name: "Ankara", Rank: 2})
	c.Set(ctx, "brands:id:1", brand{Name: "Ankara Co", Rank: 3})

	var got brand
	if !c.Get(ctx, "brands:id:1", &got) {
		t.Fatal("miss after Set")
	}
	if got.Name != "Ankara Co" || got.Rank != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	c := New(kv)

	c.Set(ctx, "brands:page:20:0", []int{1})
	c.Set(ctx, "brands:id:1", brand{Name: "a"})
	c.Set(ctx, "categories", []string{"shoes"})

	c.InvalidatePrefix(ctx, "brands:")
	if len(kv.data) != 1 {
		t.Fatalf("keys left = %d, want 1", len(kv.data))
	}

	c.Invalidate(ctx, "categories")
	if len(kv.data) != 0 {
		t.Fatalf("keys left = %d", len(kv.data))
	}
}

func TestCache_BackendErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.err = errors.New("connection refused")
	c := New(kv)

	c.Set(ctx, "k", 1)
	var v int
	if c.Get(ctx, "k", &v) {
		t.Fatal("hit while backend is down")
	}
	c.Invalidate(ctx, "k")
	c.InvalidatePrefix(ctx, "k")
}

func TestCache_StaleEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data["k"] = []byte(`"text"`)
	c := New(kv)

	var v brand
	if c.Get(ctx, "k", &v) {
		t.Fatal("decoded a string into a struct")
	}
}
