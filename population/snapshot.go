package population

import "sort"

// Snapshot is the derived top-N state of one frame. Bars are in display
// order, ascending by population.
type Snapshot struct {
	Key  TimeKey
	Bars []Observation
}

// Max returns the largest population in the snapshot.
func (s Snapshot) Max() float64 {
	var max float64
	for _, b := range s.Bars {
		if b.Population > max {
			max = b.Population
		}
	}
	return max
}

// Snapshot selects the n largest observations at key.
func (t *Table) Snapshot(key TimeKey, n int) Snapshot {
	return Snapshot{Key: key, Bars: TopN(t.Rows(key), n)}
}

// Between blends the observations of two keys. Each country's
// population is interpolated linearly by f in [0, 1]; a country present
// at only one of the keys keeps that value. The snapshot carries the key
// nearest to f.
func (t *Table) Between(from, to TimeKey, f float64, n int) Snapshot {
	key := from
	if f >= 0.5 {
		key = to
	}

	target := make(map[string]Observation)
	for _, o := range t.Rows(to) {
		target[o.ISO3] = o
	}

	var rows []Observation
	seen := make(map[string]bool)
	for _, o := range t.Rows(from) {
		seen[o.ISO3] = true
		if dst, ok := target[o.ISO3]; ok {
			o.Population += (dst.Population - o.Population) * f
		}
		o.Key = key
		rows = append(rows, o)
	}
	for _, o := range t.Rows(to) {
		if seen[o.ISO3] {
			continue
		}
		o.Key = key
		rows = append(rows, o)
	}

	return Snapshot{Key: key, Bars: TopN(rows, n)}
}

// TopN returns the min(n, len(rows)) largest observations, ascending by
// population. Equal populations rank by ISO3 code, so the selection does
// not depend on input order.
func TopN(rows []Observation, n int) []Observation {
	ranked := make([]Observation, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Population != ranked[j].Population {
			return ranked[i].Population > ranked[j].Population
		}
		return ranked[i].ISO3 < ranked[j].ISO3
	})
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	}
	return ranked
}
