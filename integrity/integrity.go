// Package integrity stamps log entries with a content digest and checks them
// later. A stamp proves a record has not changed since it was stamped; there
// is no chain and no external ledger.
package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const Algorithm = "sha256"

// canonical lists the fields covered by the digest, in a fixed order.
// Instants are reduced to milliseconds, the precision both stores keep.
type canonical struct {
	LogID     string         `json:"logId"`
	SeasonID  string         `json:"seasonId"`
	TaskName  string         `json:"taskName"`
	Status    string         `json:"status"`
	LogType   string         `json:"logType"`
	Materials []canonicalMat `json:"materials"`
	CreatedAt int64          `json:"createdAt"`
	Completed *int64         `json:"completedAt"`
}

type canonicalMat struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Digest returns the hex SHA-256 of the entry's canonical fields, prefixed with 0x.
func Digest(l *models.LogEntry) string {
	c := canonical{
		LogID:     l.ID.Hex(),
		SeasonID:  l.SeasonID.Hex(),
		TaskName:  l.TaskName,
		Status:    string(l.Status),
		LogType:   string(l.LogType),
		Materials: make([]canonicalMat, 0, len(l.UsedMaterials)),
		CreatedAt: l.CreatedAt.UnixMilli(),
	}
	for _, m := range l.UsedMaterials {
		c.Materials = append(c.Materials, canonicalMat{Name: m.Name, Quantity: m.Quantity, Unit: m.Unit})
	}
	if l.CompletedAt != nil {
		ms := l.CompletedAt.UnixMilli()
		c.Completed = &ms
	}
	// Marshalling a struct of plain values cannot fail.
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return "0x" + hex.EncodeToString(sum[:])
}

// Stamper records and verifies stamps through the log store.
type Stamper struct {
	logs store.Logs
	now  func() time.Time
}

func NewStamper(logs store.Logs, now func() time.Time) *Stamper {
	if now == nil {
		now = time.Now
	}
	return &Stamper{logs: logs, now: now}
}

// Stamp attaches a stamp to l and persists it. An entry that already carries
// a stamp keeps it. The store numbers stamps per season.
func (s *Stamper) Stamp(ctx context.Context, l *models.LogEntry) (models.IntegrityStamp, error) {
	if l.Integrity != nil {
		return *l.Integrity, nil
	}
	stamp, err := s.logs.SetIntegrity(ctx, l.ID, models.IntegrityStamp{
		Hash:      Digest(l),
		Algorithm: Algorithm,
		StampedAt: s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		return models.IntegrityStamp{}, fmt.Errorf("stamp log %s: %w", l.ID.Hex(), err)
	}
	l.Integrity = &stamp
	return stamp, nil
}

// Record loads the entry by id and stamps it.
func (s *Stamper) Record(ctx context.Context, logID primitive.ObjectID) (*models.LogEntry, models.IntegrityStamp, error) {
	l, err := s.logs.GetLog(ctx, logID)
	if err != nil {
		return nil, models.IntegrityStamp{}, err
	}
	stamp, err := s.Stamp(ctx, l)
	if err != nil {
		return nil, models.IntegrityStamp{}, err
	}
	return l, stamp, nil
}

type Verification struct {
	LogID    string                 `json:"logId"`
	Recorded bool                   `json:"recorded"`
	Verified bool                   `json:"verified"`
	Stamp    *models.IntegrityStamp `json:"stamp,omitempty"`
	Computed string                 `json:"computedHash,omitempty"`
}

// Verify recomputes the digest of the stored entry and compares it with its stamp.
func (s *Stamper) Verify(ctx context.Context, logID primitive.ObjectID) (Verification, error) {
	l, err := s.logs.GetLog(ctx, logID)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{LogID: l.ID.Hex()}
	if l.Integrity == nil {
		return v, nil
	}
	v.Recorded = true
	v.Stamp = l.Integrity
	v.Computed = Digest(l)
	v.Verified = v.Computed == l.Integrity.Hash
	return v, nil
}

type TraceEntry struct {
	Date      time.Time             `json:"date"`
	Task      string                `json:"task"`
	Materials []models.UsedMaterial `json:"materials"`
	Hash      string                `json:"hash"`
	Sequence  int64                 `json:"sequence"`
}

// Trace lists the stamped entries of a season in log date order.
func (s *Stamper) Trace(ctx context.Context, seasonID primitive.ObjectID) ([]TraceEntry, error) {
	logs, err := s.logs.FindLogs(ctx, store.LogFilter{SeasonID: &seasonID, Stamped: true, Ascending: true})
	if err != nil {
		return nil, err
	}
	out := make([]TraceEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, TraceEntry{
			Date:      l.LogDate,
			Task:      l.TaskName,
			Materials: l.UsedMaterials,
			Hash:      l.Integrity.Hash,
			Sequence:  l.Integrity.Sequence,
		})
	}
	return out, nil
}
