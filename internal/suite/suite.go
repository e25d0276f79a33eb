// Package suite holds the fixed smoke-test sequence and loads custom ones.
package suite

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kafkaload/internal/record"
	"kafkaload/internal/runner"
)

// DefaultInterval is the pause between two smoke-test sends.
const DefaultInterval = 500 * time.Millisecond

var ErrInvalidCases = errors.New("invalid cases")

// Default is the built-in sequence. The fourth send repeats the first id.
func Default() []runner.Case {
	return []runner.Case{
		{ID: "msg-test-001", Category: record.OrderCreated},
		{ID: "msg-test-002", Category: record.PaymentReceived},
		{ID: "msg-test-003", Category: record.InventoryUpdate},
		{ID: "msg-test-001", Category: record.OrderCreated},
		{ID: "msg-test-004", Category: record.OrderCancelled},
		{ID: "msg-test-005", Category: record.ShipmentCreated},
	}
}

// File is the on-disk layout of a case list.
//
//	interval: 250ms
//	cases:
//	  - id: msg-a
//	    category: order_created
type File struct {
	Interval string      `yaml:"interval"`
	Cases    []fileEntry `yaml:"cases"`
}

type fileEntry struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
}

// Load reads a case list from path. The returned interval is zero when the
// file does not set one.
func Load(path string) ([]runner.Case, time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening cases file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a YAML case list.
func Decode(r io.Reader) ([]runner.Case, time.Duration, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidCases, err)
	}

	var interval time.Duration
	if file.Interval != "" {
		d, err := time.ParseDuration(file.Interval)
		if err != nil || d < 0 {
			return nil, 0, fmt.Errorf("%w: interval '%s'", ErrInvalidCases, file.Interval)
		}
		interval = d
	}

	if len(file.Cases) == 0 {
		return nil, 0, fmt.Errorf("%w: no cases", ErrInvalidCases)
	}

	cases := make([]runner.Case, 0, len(file.Cases))
	for i, e := range file.Cases {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, 0, fmt.Errorf("%w: case %d has no id", ErrInvalidCases, i)
		}
		category, err := record.ParseCategory(e.Category)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: case %d (%s): %w", ErrInvalidCases, i, id, err)
		}
		cases = append(cases, runner.Case{ID: id, Category: category})
	}
	return cases, interval, nil
}

// Duplicates counts the cases that repeat an earlier id.
func Duplicates(cases []runner.Case) int {
	seen := make(map[string]struct{}, len(cases))
	n := 0
	for _, c := range cases {
		if _, ok := seen[c.ID]; ok {
			n++
			continue
		}
		seen[c.ID] = struct{}{}
	}
	return n
}
