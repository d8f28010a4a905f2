package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Collection persists one record slice as a single JSON document.
// Every mutation rewrites the whole file through a temp file + rename,
// so a crash leaves either the old or the new document, never a torn
// one. Insertion order is the slice order.
type Collection[T any] struct {
	mu    sync.Mutex
	path  string
	keyFn func(T) string
	items []T
}

func openCollection[T any](path string, keyFn func(T) string) (*Collection[T], error) {
	c := &Collection[T]{path: path, keyFn: keyFn}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &c.items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return c, nil
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (c *Collection[T]) Insert(ctx context.Context, rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, rec)
	if err := c.flush(); err != nil {
		c.items = c.items[:len(c.items)-1]
		return err
	}
	return nil
}

func (c *Collection[T]) Replace(ctx context.Context, id string, rec T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.keyFn(c.items[i]) != id {
			continue
		}
		old := c.items[i]
		c.items[i] = rec
		if err := c.flush(); err != nil {
			c.items[i] = old
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (c *Collection[T]) RemoveWhere(ctx context.Context, match func(T) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0:0]
	for _, rec := range c.items {
		if !match(rec) {
			kept = append(kept, rec)
		}
	}

	removed := len(c.items) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	old := c.items
	c.items = kept
	if err := c.flush(); err != nil {
		c.items = old
		return 0, err
	}
	return removed, nil
}

// flush writes the whole collection atomically. Callers hold c.mu.
func (c *Collection[T]) flush() error {
	data, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}
	return atomicWrite(c.path, data)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()

	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return werr
		}
		return cerr
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
