package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metacubex/bbolt"
	"gopkg.in/yaml.v3"

	"proxy-switch/logging"
)

const keyLastRun = "last-run"

var (
	bucketData  = []byte("data")
	ErrNotFound = errors.New("no record")
)

// Store is the run journal. It only records what a run did; nothing reads
// it back to decide what to write.
type Store struct {
	DB *bbolt.DB
}

type TargetRecord struct {
	Name   string `yaml:"name"`
	Action string `yaml:"action"`
	Error  string `yaml:"error,omitempty"`
}

type Run struct {
	Mode    string         `yaml:"mode"`
	HTTP    string         `yaml:"http,omitempty"`
	SOCKS   string         `yaml:"socks,omitempty"`
	NoProxy string         `yaml:"no-proxy,omitempty"`
	Time    time.Time      `yaml:"time"`
	Targets []TargetRecord `yaml:"targets"`
}

// Open opens the journal at path. A corrupt file is removed and recreated.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("directory creation error: %w", err)
	}

	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		if err == bbolt.ErrInvalid || err == bbolt.ErrChecksum || err == bbolt.ErrVersionMismatch {
			if os.Remove(path) == nil {
				logging.Warn().Str("path", path).Msg("removed invalid data file")
			}
			db, err = bbolt.Open(path, 0o644, &bbolt.Options{Timeout: time.Second})
		}
		if err != nil {
			return nil, fmt.Errorf("error opening data file %s: %w", path, err)
		}
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) Set(k, v string) error {
	if s.DB == nil {
		return nil
	}
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketData)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(k), []byte(v))
	})
	if err != nil {
		return fmt.Errorf("failed to write data for %s: %w", k, err)
	}
	return nil
}

func (s *Store) Get(k string) (v string) {
	if s.DB == nil {
		return ""
	}
	_ = s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketData)
		if bucket != nil {
			v = string(bucket.Get([]byte(k)))
		}
		return nil
	})
	return v
}

func (s *Store) SaveRun(run *Run) error {
	out, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	return s.Set(keyLastRun, string(out))
}

func (s *Store) LastRun() (*Run, error) {
	raw := s.Get(keyLastRun)
	if raw == "" {
		return nil, ErrNotFound
	}
	run := &Run{}
	if err := yaml.Unmarshal([]byte(raw), run); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return run, nil
}
