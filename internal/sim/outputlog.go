package sim

import (
	"sort"
	"sync"
)

// OutputLog is the append-only record of published ticks. The stepper
// appends; readers take copies. With a positive retention window, records
// older than the newest record's time minus the window are dropped.
type OutputLog struct {
	mu        sync.RWMutex
	records   []Record
	retention float64
}

func NewOutputLog(retention float64) *OutputLog {
	return &OutputLog{retention: retention}
}

func (l *OutputLog) Append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	if l.retention <= 0 {
		return
	}
	cutoff := r.Time() - l.retention
	i := sort.Search(len(l.records), func(i int) bool { return l.records[i].Time() >= cutoff })
	if i > 0 {
		l.records = l.records[i:]
	}
}

// Snapshot returns a copy of the logged records, oldest first.
func (l *OutputLog) Snapshot() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *OutputLog) Latest() (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

func (l *OutputLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *OutputLog) Clear() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}
