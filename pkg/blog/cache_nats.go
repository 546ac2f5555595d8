package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSKVConfig configures the NATS JetStream key-value cache backend.
type NATSKVConfig struct {
	// URL of the NATS server, e.g. "nats://127.0.0.1:4222".
	URL string
	// Bucket is the KV bucket name; it is created when missing.
	Bucket string
	// TTL is the bucket-level max age applied when the bucket is created.
	TTL time.Duration
	// ConnectTimeout bounds the initial connection.
	ConnectTimeout time.Duration
}

// Static errors for the NATS backend.
var (
	ErrNATSURLRequired    = errors.New("NATS URL is required")
	ErrNATSBucketRequired = errors.New("NATS bucket is required")
)

var invalidKeyChars = regexp.MustCompile(`[^-/_=.a-zA-Z0-9]`)

// kvStore is the subset of a JetStream KV bucket the cache needs.
type kvStore interface {
	get(key string) ([]byte, error)
	put(key string, value []byte) error
	delete(key string) error
	keys() ([]string, error)
}

type natsBucket struct {
	kv nats.KeyValue
}

func (b *natsBucket) get(key string) ([]byte, error) {
	entry, err := b.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("getting key %q: %w", key, err)
	}

	return entry.Value(), nil
}

func (b *natsBucket) put(key string, value []byte) error {
	_, err := b.kv.Put(key, value)
	if err != nil {
		return fmt.Errorf("putting key %q: %w", key, err)
	}

	return nil
}

func (b *natsBucket) delete(key string) error {
	err := b.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}

	return nil
}

func (b *natsBucket) keys() ([]string, error) {
	keys, err := b.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("listing keys: %w", err)
	}

	return keys, nil
}

// NATSKVCache stores cache entries in a JetStream KV bucket so several
// processes can share reference data.
type NATSKVCache struct {
	store kvStore
	conn  *nats.Conn
}

// NewNATSKVCache connects to NATS and opens (or creates) the configured bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config.URL == "" {
		return nil, ErrNATSURLRequired
	}

	if config.Bucket == "" {
		return nil, ErrNATSBucketRequired
	}

	opts := []nats.Option{nats.Name("blogctl-cache")}
	if config.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(config.ConnectTimeout))
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	kv, err := js.KeyValue(config.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: config.Bucket,
			TTL:    config.TTL,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening KV bucket %q: %w", config.Bucket, err)
	}

	return &NATSKVCache{
		store: &natsBucket{kv: kv},
		conn:  conn,
	}, nil
}

func newNATSKVCacheWithStore(store kvStore) *NATSKVCache {
	return &NATSKVCache{store: store}
}

// Close drains the underlying connection.
func (c *NATSKVCache) Close() {
	if c.conn != nil {
		_ = c.conn.Drain()
	}
}

func natsKey(key string) string {
	return invalidKeyChars.ReplaceAllString(key, "_")
}

// Get retrieves an unexpired entry.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.store.get(natsKey(key))
	if err != nil {
		return nil, err
	}

	var entry CacheEntry

	err = json.Unmarshal(data, &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired() {
		_ = c.store.delete(natsKey(key))

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	return c.store.put(natsKey(key), data)
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	return c.store.delete(natsKey(key))
}

// Clear removes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.store.keys()
	if err != nil {
		return err
	}

	for _, key := range keys {
		err := c.store.delete(key)
		if err != nil {
			return err
		}
	}

	return nil
}

// Has reports whether an unexpired entry exists.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}
