package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogStatus is the recorded state of a work item.
type LogStatus string

const (
	StatusDone       LogStatus = "DONE"
	StatusSkipped    LogStatus = "SKIPPED"
	StatusManual     LogStatus = "MANUAL"
	StatusPending    LogStatus = "PENDING"
	StatusInProgress LogStatus = "IN_PROGRESS"
)

// LogType separates entries confirmed from the plan and ad hoc records.
type LogType string

const (
	LogScheduled LogType = "scheduled"
	LogManual    LogType = "manual"
)

// LogEntry is one work record. CreatedAt is assigned by the server and is the
// only timestamp trusted when ordering against hidden-task entries.
type LogEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"         json:"id"`
	SeasonID      primitive.ObjectID `bson:"season"                json:"season"`
	UserID        primitive.ObjectID `bson:"user"                  json:"user"`
	TaskName      string             `bson:"taskName"              json:"taskName"`
	LogDate       time.Time          `bson:"logDate"               json:"logDate"`
	Status        LogStatus          `bson:"status"                json:"status"`
	LogType       LogType            `bson:"logType"               json:"logType"`
	UsedMaterials []UsedMaterial     `bson:"usedMaterials"         json:"usedMaterials"`
	Notes         string             `bson:"notes,omitempty"       json:"notes,omitempty"`
	Location      string             `bson:"location,omitempty"    json:"location,omitempty"`
	CompletedAt   *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"             json:"createdAt"`

	Integrity *IntegrityStamp `bson:"integrity,omitempty" json:"integrity,omitempty"`
}

// Key is the natural task key: the trimmed task name.
func (l *LogEntry) Key() string { return TaskKey(l.TaskName) }

type UsedMaterial struct {
	Name     string  `bson:"materialName"      json:"materialName" validate:"required"`
	Quantity float64 `bson:"quantity"          json:"quantity"     validate:"gte=0"`
	Unit     string  `bson:"unit,omitempty"    json:"unit,omitempty"`
	Barcode  string  `bson:"barcode,omitempty" json:"barcode,omitempty"`
}

// IntegrityStamp is a content digest of a log entry's canonical fields.
type IntegrityStamp struct {
	Hash      string    `bson:"hash"      json:"hash"`
	Algorithm string    `bson:"algorithm" json:"algorithm"`
	Sequence  int64     `bson:"sequence"  json:"sequence"`
	StampedAt time.Time `bson:"stampedAt" json:"stampedAt"`
}

// TaskKey normalizes a task name for matching: surrounding whitespace is
// dropped, case is kept.
func TaskKey(name string) string { return strings.TrimSpace(name) }
