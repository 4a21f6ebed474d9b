package daily

import (
	"sort"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
)

// AggregateManual keeps, per trimmed task name, the manual log with the latest
// CompletedAt at or after since. Entries without a completion time or of
// another log type are ignored. Equal completion instants resolve to the
// greater ObjectID, i.e. the later insert. The result is ordered newest first.
func AggregateManual(logs []models.LogEntry, since time.Time) []models.LogEntry {
	latest := make(map[string]models.LogEntry, len(logs))
	for _, l := range logs {
		if l.LogType != models.LogManual || l.CompletedAt == nil {
			continue
		}
		if l.CompletedAt.Before(since) {
			continue
		}
		key := l.Key()
		if cur, ok := latest[key]; !ok || newerCompletion(l, cur) {
			latest[key] = l
		}
	}

	out := make([]models.LogEntry, 0, len(latest))
	for _, l := range latest {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return newerCompletion(out[i], out[j]) })
	return out
}

// newerCompletion orders by CompletedAt, then by id.
func newerCompletion(a, b models.LogEntry) bool {
	if !a.CompletedAt.Equal(*b.CompletedAt) {
		return a.CompletedAt.After(*b.CompletedAt)
	}
	return a.ID.Hex() > b.ID.Hex()
}
