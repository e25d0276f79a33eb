// Package storage keeps a persistent history of finished runs in a bbolt file.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"kafkaload/internal/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	BucketRuns  = "runs"
	BucketIndex = "run_ids"

	// DefaultLimit caps how many runs are kept.
	DefaultLimit = 100
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db    *bbolt.DB
	limit int
}

// DefaultPath is $HOME/.kafkaload/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kafkaload", "history.db"), nil
}

// Open opens or creates the history file at path. limit <= 0 means DefaultLimit.
func Open(path string, limit int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketRuns)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(BucketIndex))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{db: db, limit: limit}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores a report. Runs are ordered by insertion; the oldest are
// dropped once the limit is exceeded.
func (s *Store) Save(rep runner.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(BucketRuns))
		index := tx.Bucket([]byte(BucketIndex))

		if old := index.Get([]byte(rep.RunID)); old != nil {
			if err := runs.Delete(old); err != nil {
				return err
			}
		}

		seq, err := runs.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := runs.Put(key, data); err != nil {
			return err
		}
		if err := index.Put([]byte(rep.RunID), key); err != nil {
			return err
		}
		return s.prune(runs, index)
	})
}

func (s *Store) prune(runs, index *bbolt.Bucket) error {
	c := runs.Cursor()

	n := 0
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	excess := n - s.limit
	if excess <= 0 {
		return nil
	}

	for k, v := c.First(); k != nil && excess > 0; k, v = c.First() {
		var rep runner.Report
		if err := json.Unmarshal(v, &rep); err == nil {
			if err := index.Delete([]byte(rep.RunID)); err != nil {
				return err
			}
		}
		if err := c.Delete(); err != nil {
			return err
		}
		excess--
	}
	return nil
}

// List returns stored runs, newest first.
func (s *Store) List() ([]runner.Report, error) {
	var reps []runner.Report

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketRuns)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rep runner.Report
			if err := json.Unmarshal(v, &rep); err != nil {
				return fmt.Errorf("decoding run %x: %w", k, err)
			}
			reps = append(reps, rep)
		}
		return nil
	})
	return reps, err
}

func (s *Store) Get(id string) (runner.Report, error) {
	var rep runner.Report
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(BucketIndex)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		v := tx.Bucket([]byte(BucketRuns)).Get(key)
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(v, &rep)
	})
	return rep, err
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// Observer saves every finished run.
type Observer struct {
	runner.NopObserver

	store *Store
	log   zerolog.Logger
}

func NewObserver(s *Store, log zerolog.Logger) *Observer {
	return &Observer{store: s, log: log}
}

func (o *Observer) Finished(rep runner.Report) {
	if err := o.store.Save(rep); err != nil {
		o.log.Warn().Err(err).Str("run_id", rep.RunID).Msg("failed to save run history")
	}
}
