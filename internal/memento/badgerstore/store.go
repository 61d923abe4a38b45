// Package badgerstore persists memento trees in BadgerDB.
//
// A tree is flattened into one key per attribute plus one marker key per node:
//
//	<name>/<ord>:<type>:<id>/<ord>:<type>:<id>#<attr>  ->  value
//	<name>/<ord>:<type>:<id>#                          ->  ""
//
// Ordinals are zero padded so that a prefix scan returns nodes in creation
// order. Types, ids and attribute names are query-escaped, so '/', ':' and '#'
// only ever appear as separators.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/dshills/modelview/internal/memento"
)

// ErrNotFound is returned by Load when no tree is stored under the name.
var ErrNotFound = errors.New("memento not found")

// ErrInvalidKey is returned when a stored key cannot be decoded.
var ErrInvalidKey = errors.New("invalid memento key")

// Config holds configuration for the store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites makes every commit durable before returning.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output. Nil disables it.
	Logger *slog.Logger
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store saves and loads memento trees by name.
type Store struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create state directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the tree stored under name with root.
func (s *Store) Save(ctx context.Context, name string, root *memento.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := []byte(escape(name) + "/")
	return s.db.Update(func(txn *badger.Txn) error {
		stale := collectKeys(txn, prefix)
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete %q: %w", k, err)
			}
		}
		return writeNode(txn, escape(name), 0, root)
	})
}

// Load returns the tree stored under name.
func (s *Store) Load(ctx context.Context, name string) (*memento.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := escape(name) + "/"

	var root *memento.Node
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		nodes := make(map[string]*memento.Node)
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), prefix)
			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %q: %w", key, err)
			}
			nodePath, attr, ok := strings.Cut(key, "#")
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidKey, key)
			}
			node, err := resolve(nodes, nodePath, &root)
			if err != nil {
				return err
			}
			if attr == "" {
				continue
			}
			name, err := url.QueryUnescape(attr)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidKey, key)
			}
			node.PutString(name, string(value))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrNotFound
	}
	return root, nil
}

// Delete removes the tree stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := []byte(escape(name) + "/")
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range collectKeys(txn, prefix) {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func collectKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func writeNode(txn *badger.Txn, parent string, ord int, n *memento.Node) error {
	path := fmt.Sprintf("%s/%06d:%s:%s", parent, ord, escape(n.Type()), escape(n.ID()))
	if err := txn.Set([]byte(path+"#"), []byte{}); err != nil {
		return err
	}
	for _, k := range n.Keys() {
		v, _ := n.GetString(k)
		if err := txn.Set([]byte(path+"#"+escape(k)), []byte(v)); err != nil {
			return err
		}
	}
	for i, c := range n.Nodes() {
		if err := writeNode(txn, path, i, c); err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the node for an encoded node path, creating it under its
// parent when first seen. Keys arrive sorted, so parents precede children.
func resolve(nodes map[string]*memento.Node, nodePath string, root **memento.Node) (*memento.Node, error) {
	if n, ok := nodes[nodePath]; ok {
		return n, nil
	}
	parentPath, seg := "", nodePath
	if i := strings.LastIndexByte(nodePath, '/'); i >= 0 {
		parentPath, seg = nodePath[:i], nodePath[i+1:]
	}
	parts := strings.SplitN(seg, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, nodePath)
	}
	typ, err1 := url.QueryUnescape(parts[1])
	id, err2 := url.QueryUnescape(parts[2])
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, nodePath)
	}

	n := memento.NewNode(typ, id)
	if parentPath == "" {
		if *root != nil {
			return nil, fmt.Errorf("%w: second root %q", ErrInvalidKey, nodePath)
		}
		*root = n
	} else {
		parent, ok := nodes[parentPath]
		if !ok {
			return nil, fmt.Errorf("%w: orphan %q", ErrInvalidKey, nodePath)
		}
		parent.AddChild(n)
	}
	nodes[nodePath] = n
	return n, nil
}

func escape(s string) string {
	return url.QueryEscape(s)
}
