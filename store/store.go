// Package store persists seasons, templates, log entries, hidden tasks,
// materials and users. Two backends implement Store: MongoDB for production
// and SQLite (GORM) for single-node deployments and tests.
package store

import (
	"context"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Seasons interface {
	CreateSeason(ctx context.Context, s *models.Season) error
	// GetSeason returns the season only when it belongs to owner.
	GetSeason(ctx context.Context, owner, id primitive.ObjectID) (*models.Season, error)
	// FindSeason looks a season up by id or by exact name, regardless of owner.
	FindSeason(ctx context.Context, lotCode string) (*models.Season, error)
	ListSeasons(ctx context.Context, f SeasonFilter) ([]models.Season, error)
	// DeleteSeason removes the season with its log entries and hidden tasks.
	DeleteSeason(ctx context.Context, owner, id primitive.ObjectID) error
}

type SeasonFilter struct {
	OwnerID    *primitive.ObjectID
	ActiveOnly bool
}

type Templates interface {
	CreateTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
	UpdateTemplate(ctx context.Context, t *models.Template) error
	DeleteTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error)
}

type Logs interface {
	CreateLog(ctx context.Context, l *models.LogEntry) error
	// WriteLog stores a new entry together with the hidden-task changes it causes.
	WriteLog(ctx context.Context, w LogWrite) (LogWriteResult, error)
	GetLog(ctx context.Context, id primitive.ObjectID) (*models.LogEntry, error)
	FindLogs(ctx context.Context, f LogFilter) ([]models.LogEntry, error)
	// SetIntegrity attaches stamp to an unstamped entry under the next sequence
	// number of the entry's season; stamp.Sequence is ignored. An entry that
	// already carries a stamp keeps it. The stored stamp is returned.
	SetIntegrity(ctx context.Context, id primitive.ObjectID, stamp models.IntegrityStamp) (models.IntegrityStamp, error)
}

// LogWrite is a new log entry and the registry changes that go with it.
// SQLite applies all of it in one transaction. MongoDB runs the registry
// writes first and inserts the entry last: both registry writes are
// idempotent, so a retry after a failure converges and never duplicates
// the entry.
type LogWrite struct {
	Entry *models.LogEntry
	// Unskip deletes the SKIPPED hide of the entry's task, if any.
	Unskip bool
	// Hide is upserted when set.
	Hide *models.HiddenTask
}

type LogWriteResult struct {
	Unskipped bool
	// HideExisted reports that Hide overwrote an existing entry.
	HideExisted bool
}

// LogFilter narrows FindLogs. Zero fields do not filter. Results are ordered
// by LogDate, newest first unless Ascending is set.
type LogFilter struct {
	SeasonID       *primitive.ObjectID
	UserID         *primitive.ObjectID
	TaskName       string
	LogType        models.LogType
	ExcludeLogType models.LogType
	Status         models.LogStatus
	CompletedOnly  bool
	Stamped        bool
	LoggedFrom     time.Time // inclusive
	LoggedTo       time.Time // exclusive
	Ascending      bool
}

// HiddenTasks is the hidden-task registry.
type HiddenTasks interface {
	// Hide inserts or overwrites the entry for (SeasonID, TaskName) in one
	// atomic write and reports whether an entry already existed.
	Hide(ctx context.Context, h models.HiddenTask) (bool, error)
	UnhideWhere(ctx context.Context, season primitive.ObjectID, taskName string, reason models.HideReason) (int64, error)
	ListHidden(ctx context.Context, season primitive.ObjectID) ([]models.HiddenTask, error)
}

type Materials interface {
	CreateMaterial(ctx context.Context, m *models.Material) error
	ListMaterials(ctx context.Context) ([]models.Material, error)
	UpdateMaterial(ctx context.Context, m *models.Material) error
	DeleteMaterial(ctx context.Context, id primitive.ObjectID) (*models.Material, error)
	MaterialByBarcode(ctx context.Context, barcode string) (*models.Material, error)
	// TrackUsage increments the usage counter of (user, name), creating it if needed.
	TrackUsage(ctx context.Context, user primitive.ObjectID, name string, at time.Time) (*models.MaterialUsage, error)
	FavoriteMaterials(ctx context.Context, user primitive.ObjectID, limit int) ([]models.MaterialUsage, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SetFCMToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// Counts holds the figures behind the statistics endpoint.
type Counts struct {
	Seasons       int64
	ActiveSeasons int64
	Logs          int64
	LogsSince     int64
	Materials     int64
	Templates     int64
}

type Store interface {
	Seasons
	Templates
	Logs
	HiddenTasks
	Materials
	Users

	// Count returns collection sizes; LogsSince counts logs dated at or after since.
	Count(ctx context.Context, since time.Time) (Counts, error)
	// Reset drops every record except users. Used by the operator CLI only.
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*Mongo)(nil)
	_ Store = (*SQLite)(nil)
)
