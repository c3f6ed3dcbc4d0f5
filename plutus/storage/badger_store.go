// Package storage persists emitted script artifacts in BadgerDB.
//
// Two key spaces are kept:
//
//	a/<script hash>  -> CBOR Record of the first build of that script
//	b/<build key>    -> CBOR Record of that build
//
// The build key identifies a template source plus its bound parameters, so a
// re-run that produces different bytes for the same inputs is caught as drift.
// Builds from different sources may share a script; each keeps its own record.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"github.com/wbrown/janus-plutus/plutus/script"
)

var (
	// ErrNotFound is returned when no record exists for a key
	ErrNotFound = errors.New("artifact not found")

	// ErrArtifactDrift is returned when the same template and parameters
	// previously produced a different script
	ErrArtifactDrift = errors.New("artifact drift")
)

var (
	artifactPrefix = []byte("a/")
	buildPrefix    = []byte("b/")
)

// Options configures the store
type Options struct {
	Path     string
	InMemory bool
}

// BoundParam is a parameter value as recorded with an artifact
type BoundParam struct {
	Name    string `cbor:"1,keyasint"`
	CBORHex string `cbor:"2,keyasint"`
}

// Record is a stored artifact with the inputs that produced it
type Record struct {
	ScriptHash []byte                `cbor:"1,keyasint"`
	Template   string                `cbor:"2,keyasint"`
	SourceHash []byte                `cbor:"3,keyasint"`
	Params     []BoundParam          `cbor:"4,keyasint"`
	Artifact   script.ScriptArtifact `cbor:"5,keyasint"`
	StoredAt   time.Time             `cbor:"6,keyasint"`
}

// BuildKey identifies the record's template source and parameters
func (r *Record) BuildKey() []byte {
	h := sha256.New()
	h.Write(r.SourceHash)
	for _, p := range r.Params {
		fmt.Fprintf(h, "%d:%s=%s;", len(p.Name), p.Name, p.CBORHex)
	}
	return h.Sum(nil)
}

// HashHex is the hex script hash
func (r *Record) HashHex() string {
	return hex.EncodeToString(r.ScriptHash)
}

// ArtifactStore implements artifact persistence using BadgerDB
type ArtifactStore struct {
	db *badger.DB
	em cbor.EncMode
}

// Open opens or creates a store
func Open(opts Options) (*ArtifactStore, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts.Logger = nil // Disable BadgerDB logs

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ArtifactStore{db: db, em: em}, nil
}

func artifactKey(hash []byte) []byte {
	return append(append([]byte(nil), artifactPrefix...), hash...)
}

func buildKey(key []byte) []byte {
	return append(append([]byte(nil), buildPrefix...), key...)
}

// Put stores a record. existing is true when the same template and
// parameters were already stored with the same script hash; the stored record
// is left untouched in that case. rec itself is not modified.
//
// The record is written under its build key. It is also written under its
// script hash unless another build already produced that script, in which
// case the earlier record stays.
func (s *ArtifactStore) Put(rec *Record) (existing bool, err error) {
	if len(rec.ScriptHash) == 0 {
		return false, fmt.Errorf("record has no script hash")
	}
	stored := *rec
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now().UTC()
	}
	value, err := s.em.Marshal(&stored)
	if err != nil {
		return false, fmt.Errorf("failed to encode record: %w", err)
	}

	bkey := buildKey(stored.BuildKey())
	akey := artifactKey(stored.ScriptHash)
	err = s.db.Update(func(txn *badger.Txn) error {
		prev, err := s.read(txn, bkey)
		switch {
		case err == nil:
			if !bytes.Equal(prev.ScriptHash, stored.ScriptHash) {
				return fmt.Errorf("%w: %s was %x, now %x", ErrArtifactDrift, stored.Template, prev.ScriptHash, stored.ScriptHash)
			}
			existing = true
			return nil
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if err := txn.Set(bkey, value); err != nil {
			return fmt.Errorf("failed to write build record: %w", err)
		}
		_, err = txn.Get(akey)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(akey, value); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}
		return nil
	})
	return existing, err
}

// Get retrieves the first record stored for a script hash
func (s *ArtifactStore) Get(hash []byte) (*Record, error) {
	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.read(txn, artifactKey(hash))
		return err
	})
	return rec, err
}

// Lookup retrieves the record of the build identified by key
func (s *ArtifactStore) Lookup(key []byte) (*Record, error) {
	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.read(txn, buildKey(key))
		return err
	})
	return rec, err
}

func (s *ArtifactStore) read(txn *badger.Txn, key []byte) (*Record, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %x", ErrNotFound, key[2:])
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	err = item.Value(func(val []byte) error {
		return cbor.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode record %x: %w", key[2:], err)
	}
	return &rec, nil
}

// List returns the first record of every stored script ordered by script hash
func (s *ArtifactStore) List() ([]*Record, error) {
	var records []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = artifactPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(artifactPrefix); it.ValidForPrefix(artifactPrefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("failed to decode record: %w", err)
			}
			records = append(records, &rec)
		}
		return nil
	})
	return records, err
}

// Close closes the store
func (s *ArtifactStore) Close() error {
	return s.db.Close()
}
