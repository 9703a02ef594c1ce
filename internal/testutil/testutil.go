// Package testutil holds in-memory doubles shared by service and handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"library-backend/internal/infrastructure/storage"
	"library-backend/pkg/database"
)

// Transactor runs the unit of work inline and counts invocations.
// When Fail is set it returns Fail without calling fn. After-commit hooks
// run only when fn succeeds.
type Transactor struct {
	mu    sync.Mutex
	Calls int
	Fail  error
}

func (t *Transactor) WithinTx(ctx context.Context, fn database.TxFunc) error {
	t.mu.Lock()
	t.Calls++
	fail := t.Fail
	t.mu.Unlock()

	if fail != nil {
		return fail
	}

	scoped, flush := database.CommitScope(ctx)
	if err := fn(scoped); err != nil {
		return err
	}
	flush(ctx)
	return nil
}

// Cache is a map backed pkg/cache.Cache. TTLs are ignored.
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewCache() *Cache {
	return &Cache{data: map[string][]byte{}}
}

func (c *Cache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *Cache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if raw, ok := c.data[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	n++
	raw, _ := json.Marshal(n)
	c.data[key] = raw
	return n, nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *Cache) Expire(context.Context, string, time.Duration) error { return nil }

// Has reports whether key is cached, for assertions.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// Photos is an in-memory storage.PhotoStore. Payloads equal to
// InvalidPhoto are rejected like a non-image upload.
type Photos struct {
	mu      sync.Mutex
	n       int
	Objects map[string][]byte
}

var InvalidPhoto = []byte("not an image")

func NewPhotos() *Photos {
	return &Photos{Objects: map[string][]byte{}}
}

func (p *Photos) Save(_ context.Context, folder string, data []byte) (string, error) {
	if bytes.Equal(data, InvalidPhoto) {
		return "", &storage.InvalidPhotoError{Err: errors.New("unsupported format")}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	key := fmt.Sprintf("%s/photo-%d.jpg", folder, p.n)
	p.Objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (p *Photos) Open(_ context.Context, key string) (*storage.Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.Objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	}, nil
}

func (p *Photos) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.Objects, key)
	return nil
}

// Jobs records photo deletions instead of enqueueing them.
type Jobs struct {
	mu      sync.Mutex
	Deleted []string
}

func (j *Jobs) DeletePhoto(_ context.Context, key, _ string) error {
	if key == "" {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Deleted = append(j.Deleted, key)
	return nil
}
