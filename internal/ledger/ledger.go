// Package ledger keeps the identifiers minted during a run so the pacing loop
// can replay one of them as a duplicate.
package ledger

// Picker draws an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Ledger is an append-only list of original identifiers. It is not safe for
// concurrent use.
type Ledger struct {
	ids []string
}

func New() *Ledger {
	return &Ledger{}
}

// RecordNew appends id.
func (l *Ledger) RecordNew(id string) {
	l.ids = append(l.ids, id)
}

// SampleExisting returns a uniformly chosen recorded id, or false when
// nothing has been recorded yet. The ledger is not modified.
func (l *Ledger) SampleExisting(p Picker) (string, bool) {
	if len(l.ids) == 0 {
		return "", false
	}
	return l.ids[p.IntN(len(l.ids))], true
}

// Contains reports whether id was recorded.
func (l *Ledger) Contains(id string) bool {
	for _, v := range l.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (l *Ledger) Len() int {
	return len(l.ids)
}

// Reset drops every recorded id.
func (l *Ledger) Reset() {
	l.ids = l.ids[:0]
}
