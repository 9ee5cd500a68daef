package population

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

var nan = math.NaN()

// Observation is one (country, time key, population) row of a prepared
// table.
type Observation struct {
	ISO3       string
	Location   string
	Key        TimeKey
	Population float64
}

// Table is a long-form population table indexed by time key.
type Table struct {
	rows  []Observation
	byKey map[TimeKey][]int
	keys  []TimeKey
	codes []string
}

// Preparer turns raw records into a Table.
type Preparer struct {
	Log *slog.Logger
}

// HalfYearly expands every record into a January and a July observation.
func (p Preparer) HalfYearly(records []Record) (*Table, error) {
	b := p.newBuilder()
	for _, r := range records {
		if r.ISO3 == "" {
			continue
		}
		if err := b.add(r, TimeKey{Year: r.Year, Period: January}, r.January); err != nil {
			return nil, err
		}
		if err := b.add(r, TimeKey{Year: r.Year, Period: July}, r.July); err != nil {
			return nil, err
		}
	}
	return b.table(), nil
}

// Yearly uses each record directly, keyed by its year. column selects the
// population value, ColumnJanuary or ColumnJuly.
func (p Preparer) Yearly(records []Record, column string) (*Table, error) {
	if column != ColumnJanuary && column != ColumnJuly {
		return nil, fmt.Errorf("prepare: unsupported population column %q", column)
	}
	b := p.newBuilder()
	for _, r := range records {
		if r.ISO3 == "" {
			continue
		}
		v := r.January
		if column == ColumnJuly {
			v = r.July
		}
		if err := b.add(r, TimeKey{Year: r.Year, Period: Annual}, v); err != nil {
			return nil, err
		}
	}
	return b.table(), nil
}

func (p Preparer) newBuilder() *builder {
	log := p.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &builder{log: log, seen: make(map[string]map[TimeKey]bool)}
}

type builder struct {
	log  *slog.Logger
	rows []Observation
	seen map[string]map[TimeKey]bool
}

func (b *builder) add(r Record, key TimeKey, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		b.log.Warn("dropping population value", "country", r.ISO3, "key", key.String(), "value", v)
		return nil
	}
	keys := b.seen[r.ISO3]
	if keys == nil {
		keys = make(map[TimeKey]bool)
		b.seen[r.ISO3] = keys
	}
	if keys[key] {
		return fmt.Errorf("prepare: duplicate observation for %s at %s", r.ISO3, key)
	}
	keys[key] = true
	b.rows = append(b.rows, Observation{ISO3: r.ISO3, Location: r.Location, Key: key, Population: v})
	return nil
}

func (b *builder) table() *Table {
	return NewTable(b.rows)
}

// NewTable indexes already prepared observations.
func NewTable(rows []Observation) *Table {
	t := &Table{rows: rows, byKey: make(map[TimeKey][]int)}
	codes := make(map[string]bool)
	for i, o := range rows {
		if _, ok := t.byKey[o.Key]; !ok {
			t.keys = append(t.keys, o.Key)
		}
		t.byKey[o.Key] = append(t.byKey[o.Key], i)
		if !codes[o.ISO3] {
			codes[o.ISO3] = true
			t.codes = append(t.codes, o.ISO3)
		}
	}
	sort.Slice(t.keys, func(i, j int) bool { return t.keys[i].Before(t.keys[j]) })
	sort.Strings(t.codes)
	return t
}

// Len returns the number of observations.
func (t *Table) Len() int { return len(t.rows) }

// Keys returns the unique time keys in ascending order.
func (t *Table) Keys() []TimeKey {
	out := make([]TimeKey, len(t.keys))
	copy(out, t.keys)
	return out
}

// Codes returns the unique ISO3 codes in the table, sorted.
func (t *Table) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// Rows returns the observations for key in input order.
func (t *Table) Rows(key TimeKey) []Observation {
	idx := t.byKey[key]
	out := make([]Observation, len(idx))
	for i, j := range idx {
		out[i] = t.rows[j]
	}
	return out
}
