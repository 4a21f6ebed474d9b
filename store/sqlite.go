package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLite is the embedded backend. Times are stored in UTC so that the text
// encoding used by the driver sorts chronologically.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
// Writes are serialized through a single connection.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperr.Unavailable("open sqlite", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperr.Unavailable("open sqlite", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Older files kept 0 on unstamped rows, which the unique
	// (season_id, integrity_sequence) index would reject.
	if db.Migrator().HasTable(&logRow{}) {
		if err := db.Exec("UPDATE log_entries SET integrity_sequence = NULL WHERE integrity_hash = ''").Error; err != nil {
			return nil, apperr.Unavailable("migrate sqlite", err)
		}
	}

	if err := db.AutoMigrate(
		&userRow{},
		&seasonRow{},
		&templateRow{},
		&logRow{},
		&hiddenRow{},
		&materialRow{},
		&usageRow{},
	); err != nil {
		return nil, apperr.Unavailable("migrate sqlite", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqlErr(op, notFound string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s", notFound)
	case isDuplicate(err):
		return apperr.Conflict("%s: duplicate key", op)
	default:
		return apperr.Unavailable(op, err)
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---- rows ----

type userRow struct {
	ID           string `gorm:"primaryKey;size:24"`
	Name         string
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string
	FCMToken     string
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type seasonRow struct {
	ID         string  `gorm:"primaryKey;size:24"`
	OwnerID    string  `gorm:"index;size:24;not null"`
	Name       string  `gorm:"index;not null"`
	FarmArea   string  `gorm:"not null"`
	TemplateID *string `gorm:"size:24"`
	StartDate  time.Time
	IsActive   bool `gorm:"index"`
	CreatedAt  time.Time
}

func (seasonRow) TableName() string { return "farm_seasons" }

type templateRow struct {
	ID           string `gorm:"primaryKey;size:24"`
	Name         string `gorm:"uniqueIndex;not null"`
	CropType     string `gorm:"not null"`
	DurationDays *int
	Stages       []models.Stage `gorm:"serializer:json"`
	CreatedBy    *string        `gorm:"size:24"`
	CreatedAt    time.Time
}

func (templateRow) TableName() string { return "plan_templates" }

type logRow struct {
	ID                 string    `gorm:"primaryKey;size:24"`
	SeasonID           string    `gorm:"index:idx_log_season_date;uniqueIndex:idx_log_season_seq;size:24;not null"`
	UserID             string    `gorm:"index;size:24"`
	TaskName           string    `gorm:"not null"`
	LogDate            time.Time `gorm:"index:idx_log_season_date"`
	Status             string
	LogType            string
	UsedMaterials      []models.UsedMaterial `gorm:"serializer:json"`
	Notes              string
	Location           string
	CompletedAt        *time.Time
	CreatedAt          time.Time
	IntegrityHash      string
	IntegrityAlgorithm string
	IntegritySequence  *int64 `gorm:"uniqueIndex:idx_log_season_seq"` // NULL until stamped
	StampedAt          *time.Time
}

func (logRow) TableName() string { return "log_entries" }

type hiddenRow struct {
	ID       string  `gorm:"primaryKey;size:24"`
	SeasonID string  `gorm:"uniqueIndex:idx_hidden_season_task;size:24;not null"`
	TaskName string  `gorm:"uniqueIndex:idx_hidden_season_task;not null"`
	UserID   *string `gorm:"size:24"`
	Reason   string  `gorm:"not null"`
	HiddenAt time.Time
}

func (hiddenRow) TableName() string { return "hidden_tasks" }

type materialRow struct {
	ID          string  `gorm:"primaryKey;size:24"`
	Name        string  `gorm:"uniqueIndex;not null"`
	Type        string  `gorm:"not null"`
	Supplier    string
	Barcode     *string `gorm:"uniqueIndex"`
	Unit        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

func (materialRow) TableName() string { return "materials" }

type usageRow struct {
	UserID       string `gorm:"primaryKey;size:24"`
	MaterialName string `gorm:"primaryKey"`
	UsageCount   int64
	LastUsedAt   time.Time
}

func (usageRow) TableName() string { return "material_usages" }

// ---- conversions ----

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil || id.IsZero() {
		return nil
	}
	h := id.Hex()
	return &h
}

func oidPtr(h *string) *primitive.ObjectID {
	if h == nil || *h == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(*h)
	if err != nil {
		return nil
	}
	return &id
}

func oid(h string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(h)
	return id
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func newID(id *primitive.ObjectID) string {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	return id.Hex()
}

func seasonToRow(s *models.Season) seasonRow {
	return seasonRow{
		ID:         newID(&s.ID),
		OwnerID:    s.OwnerID.Hex(),
		Name:       s.Name,
		FarmArea:   s.FarmArea,
		TemplateID: hexPtr(s.TemplateID),
		StartDate:  s.StartDate.UTC(),
		IsActive:   s.IsActive,
		CreatedAt:  s.CreatedAt.UTC(),
	}
}

func (r seasonRow) model() models.Season {
	return models.Season{
		ID:         oid(r.ID),
		OwnerID:    oid(r.OwnerID),
		Name:       r.Name,
		FarmArea:   r.FarmArea,
		TemplateID: oidPtr(r.TemplateID),
		StartDate:  r.StartDate,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt,
	}
}

func templateToRow(t *models.Template) templateRow {
	return templateRow{
		ID:           newID(&t.ID),
		Name:         t.Name,
		CropType:     t.CropType,
		DurationDays: t.DurationDays,
		Stages:       t.Stages,
		CreatedBy:    hexPtr(t.CreatedBy),
		CreatedAt:    t.CreatedAt.UTC(),
	}
}

func (r templateRow) model() models.Template {
	stages := r.Stages
	if stages == nil {
		stages = []models.Stage{}
	}
	return models.Template{
		ID:           oid(r.ID),
		Name:         r.Name,
		CropType:     r.CropType,
		DurationDays: r.DurationDays,
		Stages:       stages,
		CreatedBy:    oidPtr(r.CreatedBy),
		CreatedAt:    r.CreatedAt,
	}
}

func logToRow(l *models.LogEntry) logRow {
	row := logRow{
		ID:            newID(&l.ID),
		SeasonID:      l.SeasonID.Hex(),
		UserID:        l.UserID.Hex(),
		TaskName:      l.TaskName,
		LogDate:       l.LogDate.UTC(),
		Status:        string(l.Status),
		LogType:       string(l.LogType),
		UsedMaterials: l.UsedMaterials,
		Notes:         l.Notes,
		Location:      l.Location,
		CompletedAt:   utcPtr(l.CompletedAt),
		CreatedAt:     l.CreatedAt.UTC(),
	}
	if l.Integrity != nil {
		row.IntegrityHash = l.Integrity.Hash
		row.IntegrityAlgorithm = l.Integrity.Algorithm
		seq := l.Integrity.Sequence
		row.IntegritySequence = &seq
		row.StampedAt = utcPtr(&l.Integrity.StampedAt)
	}
	return row
}

func (r logRow) model() models.LogEntry {
	used := r.UsedMaterials
	if used == nil {
		used = []models.UsedMaterial{}
	}
	l := models.LogEntry{
		ID:            oid(r.ID),
		SeasonID:      oid(r.SeasonID),
		UserID:        oid(r.UserID),
		TaskName:      r.TaskName,
		LogDate:       r.LogDate,
		Status:        models.LogStatus(r.Status),
		LogType:       models.LogType(r.LogType),
		UsedMaterials: used,
		Notes:         r.Notes,
		Location:      r.Location,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
	if r.IntegrityHash != "" {
		l.Integrity = &models.IntegrityStamp{
			Hash:      r.IntegrityHash,
			Algorithm: r.IntegrityAlgorithm,
		}
		if r.IntegritySequence != nil {
			l.Integrity.Sequence = *r.IntegritySequence
		}
		if r.StampedAt != nil {
			l.Integrity.StampedAt = *r.StampedAt
		}
	}
	return l
}

func (r hiddenRow) model() models.HiddenTask {
	return models.HiddenTask{
		ID:       oid(r.ID),
		SeasonID: oid(r.SeasonID),
		TaskName: r.TaskName,
		UserID:   oidPtr(r.UserID),
		Reason:   models.HideReason(r.Reason),
		HiddenAt: r.HiddenAt,
	}
}

func materialToRow(m *models.Material) materialRow {
	row := materialRow{
		ID:          newID(&m.ID),
		Name:        m.Name,
		Type:        string(m.Type),
		Supplier:    m.Supplier,
		Unit:        m.Unit,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if b := strings.TrimSpace(m.Barcode); b != "" {
		row.Barcode = &b
	}
	return row
}

func (r materialRow) model() models.Material {
	m := models.Material{
		ID:          oid(r.ID),
		Name:        r.Name,
		Type:        models.MaterialType(r.Type),
		Supplier:    r.Supplier,
		Unit:        r.Unit,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
	if r.Barcode != nil {
		m.Barcode = *r.Barcode
	}
	return m
}

func (r usageRow) model() models.MaterialUsage {
	return models.MaterialUsage{
		UserID:       oid(r.UserID),
		MaterialName: r.MaterialName,
		UsageCount:   r.UsageCount,
		LastUsedAt:   r.LastUsedAt,
	}
}

// ---- seasons ----

func (s *SQLite) CreateSeason(ctx context.Context, season *models.Season) error {
	row := seasonToRow(season)
	return sqlErr("insert season", "", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *SQLite) GetSeason(ctx context.Context, owner, id primitive.ObjectID) (*models.Season, error) {
	var row seasonRow
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id.Hex(), owner.Hex()).First(&row).Error
	if err != nil {
		return nil, sqlErr("find season", "season not found", err)
	}
	out := row.model()
	return &out, nil
}

func (s *SQLite) FindSeason(ctx context.Context, lotCode string) (*models.Season, error) {
	var row seasonRow
	err := s.db.WithContext(ctx).Where("id = ? OR name = ?", lotCode, lotCode).First(&row).Error
	if err != nil {
		return nil, sqlErr("find season", "season not found", err)
	}
	out := row.model()
	return &out, nil
}

func (s *SQLite) ListSeasons(ctx context.Context, f SeasonFilter) ([]models.Season, error) {
	q := s.db.WithContext(ctx).Model(&seasonRow{})
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", f.OwnerID.Hex())
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []seasonRow
	if err := q.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, sqlErr("list seasons", "", err)
	}
	out := make([]models.Season, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *SQLite) DeleteSeason(ctx context.Context, owner, id primitive.ObjectID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id.Hex(), owner.Hex()).Delete(&seasonRow{})
		if res.Error != nil {
			return sqlErr("delete season", "", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("season not found")
		}
		if err := tx.Where("season_id = ?", id.Hex()).Delete(&logRow{}).Error; err != nil {
			return sqlErr("delete season logs", "", err)
		}
		if err := tx.Where("season_id = ?", id.Hex()).Delete(&hiddenRow{}).Error; err != nil {
			return sqlErr("delete season hidden tasks", "", err)
		}
		return nil
	})
}

// ---- templates ----

func (s *SQLite) CreateTemplate(ctx context.Context, t *models.Template) error {
	row := templateToRow(t)
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil && isDuplicate(err) {
		return apperr.Conflict("template %q already exists", t.Name)
	}
	return sqlErr("insert template", "", err)
}

func (s *SQLite) GetTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	var row templateRow
	if err := s.db.WithContext(ctx).Where("id = ?", id.Hex()).First(&row).Error; err != nil {
		return nil, sqlErr("find template", "template not found", err)
	}
	out := row.model()
	return &out, nil
}

func (s *SQLite) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var rows []templateRow
	if err := s.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, sqlErr("list templates", "", err)
	}
	out := make([]models.Template, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *SQLite) UpdateTemplate(ctx context.Context, t *models.Template) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row templateRow
		if err := tx.Where("id = ?", t.ID.Hex()).First(&row).Error; err != nil {
			return sqlErr("find template", "template not found", err)
		}
		row.Name = t.Name
		row.CropType = t.CropType
		row.DurationDays = t.DurationDays
		row.Stages = t.Stages
		if err := tx.Save(&row).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("template %q already exists", t.Name)
			}
			return sqlErr("update template", "", err)
		}
		*t = row.model()
		return nil
	})
}

func (s *SQLite) DeleteTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	var out models.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row templateRow
		if err := tx.Where("id = ?", id.Hex()).First(&row).Error; err != nil {
			return sqlErr("find template", "template not found", err)
		}
		if err := tx.Delete(&row).Error; err != nil {
			return sqlErr("delete template", "", err)
		}
		out = row.model()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- logs ----

func (s *SQLite) CreateLog(ctx context.Context, l *models.LogEntry) error {
	if l.UsedMaterials == nil {
		l.UsedMaterials = []models.UsedMaterial{}
	}
	row := logToRow(l)
	return sqlErr("insert log", "", s.db.WithContext(ctx).Create(&row).Error)
}

// WriteLog inserts the entry and applies its registry changes in one
// transaction; nothing is kept when any step fails.
func (s *SQLite) WriteLog(ctx context.Context, w LogWrite) (LogWriteResult, error) {
	var res LogWriteResult
	l := w.Entry
	if l.UsedMaterials == nil {
		l.UsedMaterials = []models.UsedMaterial{}
	}
	row := logToRow(l)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return sqlErr("insert log", "", err)
		}
		if w.Unskip {
			n, err := unhideTx(tx, l.SeasonID, l.TaskName, models.HideSkipped)
			if err != nil {
				return sqlErr("unhide task", "", err)
			}
			res.Unskipped = n > 0
		}
		if w.Hide != nil {
			existed, err := hideTx(tx, *w.Hide)
			if err != nil {
				return sqlErr("hide task", "", err)
			}
			res.HideExisted = existed
		}
		return nil
	})
	if err != nil {
		return LogWriteResult{}, err
	}
	return res, nil
}

func (s *SQLite) GetLog(ctx context.Context, id primitive.ObjectID) (*models.LogEntry, error) {
	var row logRow
	if err := s.db.WithContext(ctx).Where("id = ?", id.Hex()).First(&row).Error; err != nil {
		return nil, sqlErr("find log", "log not found", err)
	}
	out := row.model()
	return &out, nil
}

func (s *SQLite) FindLogs(ctx context.Context, f LogFilter) ([]models.LogEntry, error) {
	q := s.db.WithContext(ctx).Model(&logRow{})
	if f.SeasonID != nil {
		q = q.Where("season_id = ?", f.SeasonID.Hex())
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", f.UserID.Hex())
	}
	if f.TaskName != "" {
		q = q.Where("task_name = ?", f.TaskName)
	}
	switch {
	case f.LogType != "":
		q = q.Where("log_type = ?", string(f.LogType))
	case f.ExcludeLogType != "":
		q = q.Where("log_type <> ?", string(f.ExcludeLogType))
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.CompletedOnly {
		q = q.Where("completed_at IS NOT NULL")
	}
	if f.Stamped {
		q = q.Where("integrity_hash <> ''")
	}
	if !f.LoggedFrom.IsZero() {
		q = q.Where("log_date >= ?", f.LoggedFrom.UTC())
	}
	if !f.LoggedTo.IsZero() {
		q = q.Where("log_date < ?", f.LoggedTo.UTC())
	}
	order := "log_date desc, id desc"
	if f.Ascending {
		order = "log_date asc, id asc"
	}

	var rows []logRow
	if err := q.Order(order).Find(&rows).Error; err != nil {
		return nil, sqlErr("find logs", "", err)
	}
	out := make([]models.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// SetIntegrity draws the next sequence inside the write transaction. Writes
// share one connection, so no other stamp can interleave; the unique
// (season_id, integrity_sequence) index backs that up.
func (s *SQLite) SetIntegrity(ctx context.Context, id primitive.ObjectID, stamp models.IntegrityStamp) (models.IntegrityStamp, error) {
	var out models.IntegrityStamp
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row logRow
		if err := tx.Where("id = ?", id.Hex()).First(&row).Error; err != nil {
			return sqlErr("find log", "log not found", err)
		}
		if row.IntegrityHash != "" {
			out = *row.model().Integrity
			return nil
		}

		var next int64
		err := tx.Model(&logRow{}).
			Where("season_id = ?", row.SeasonID).
			Select("COALESCE(MAX(integrity_sequence), 0) + 1").
			Scan(&next).Error
		if err != nil {
			return sqlErr("next stamp sequence", "", err)
		}
		stamp.Sequence = next
		stamp.StampedAt = stamp.StampedAt.UTC()

		err = tx.Model(&logRow{}).Where("id = ?", row.ID).Updates(map[string]any{
			"integrity_hash":      stamp.Hash,
			"integrity_algorithm": stamp.Algorithm,
			"integrity_sequence":  stamp.Sequence,
			"stamped_at":          stamp.StampedAt,
		}).Error
		if err != nil {
			return sqlErr("stamp log", "", err)
		}
		out = stamp
		return nil
	})
	return out, err
}

// ---- hidden tasks ----

// Hide writes with INSERT ... ON CONFLICT(season_id, task_name) DO UPDATE, so
// the unique index and not a preceding read decides between insert and update.
func (s *SQLite) Hide(ctx context.Context, h models.HiddenTask) (bool, error) {
	var existed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		existed, err = hideTx(tx, h)
		return err
	})
	if err != nil {
		return false, sqlErr("hide task", "", err)
	}
	return existed, nil
}

func hideTx(tx *gorm.DB, h models.HiddenTask) (bool, error) {
	key := models.TaskKey(h.TaskName)
	row := hiddenRow{
		ID:       primitive.NewObjectID().Hex(),
		SeasonID: h.SeasonID.Hex(),
		TaskName: key,
		UserID:   hexPtr(h.UserID),
		Reason:   string(h.Reason),
		HiddenAt: h.HiddenAt.UTC(),
	}
	cols := []string{"reason", "hidden_at"}
	if row.UserID != nil {
		cols = append(cols, "user_id")
	}

	var n int64
	if err := tx.Model(&hiddenRow{}).Where("season_id = ? AND task_name = ?", row.SeasonID, key).Count(&n).Error; err != nil {
		return false, err
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "season_id"}, {Name: "task_name"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&row).Error
	return n > 0, err
}

func (s *SQLite) UnhideWhere(ctx context.Context, season primitive.ObjectID, taskName string, reason models.HideReason) (int64, error) {
	n, err := unhideTx(s.db.WithContext(ctx), season, taskName, reason)
	if err != nil {
		return 0, sqlErr("unhide task", "", err)
	}
	return n, nil
}

func unhideTx(tx *gorm.DB, season primitive.ObjectID, taskName string, reason models.HideReason) (int64, error) {
	res := tx.Where("season_id = ? AND task_name = ? AND reason = ?", season.Hex(), models.TaskKey(taskName), string(reason)).
		Delete(&hiddenRow{})
	return res.RowsAffected, res.Error
}

func (s *SQLite) ListHidden(ctx context.Context, season primitive.ObjectID) ([]models.HiddenTask, error) {
	var rows []hiddenRow
	err := s.db.WithContext(ctx).Where("season_id = ?", season.Hex()).Order("hidden_at asc, id asc").Find(&rows).Error
	if err != nil {
		return nil, sqlErr("list hidden tasks", "", err)
	}
	out := make([]models.HiddenTask, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// ---- materials ----

func (s *SQLite) CreateMaterial(ctx context.Context, m *models.Material) error {
	row := materialToRow(m)
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil && isDuplicate(err) {
		return apperr.Conflict("material %q or its barcode already exists", m.Name)
	}
	return sqlErr("insert material", "", err)
}

func (s *SQLite) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var rows []materialRow
	if err := s.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, sqlErr("list materials", "", err)
	}
	out := make([]models.Material, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *SQLite) UpdateMaterial(ctx context.Context, m *models.Material) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur materialRow
		if err := tx.Where("id = ?", m.ID.Hex()).First(&cur).Error; err != nil {
			return sqlErr("find material", "material not found", err)
		}
		row := materialToRow(m)
		row.CreatedAt = cur.CreatedAt
		if err := tx.Save(&row).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("material %q or its barcode already exists", m.Name)
			}
			return sqlErr("update material", "", err)
		}
		*m = row.model()
		return nil
	})
}

func (s *SQLite) DeleteMaterial(ctx context.Context, id primitive.ObjectID) (*models.Material, error) {
	var out models.Material
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row materialRow
		if err := tx.Where("id = ?", id.Hex()).First(&row).Error; err != nil {
			return sqlErr("find material", "material not found", err)
		}
		if err := tx.Delete(&row).Error; err != nil {
			return sqlErr("delete material", "", err)
		}
		out = row.model()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SQLite) MaterialByBarcode(ctx context.Context, barcode string) (*models.Material, error) {
	var row materialRow
	if err := s.db.WithContext(ctx).Where("barcode = ?", strings.TrimSpace(barcode)).First(&row).Error; err != nil {
		return nil, sqlErr("find material", "material not found", err)
	}
	out := row.model()
	return &out, nil
}

func (s *SQLite) TrackUsage(ctx context.Context, user primitive.ObjectID, name string, at time.Time) (*models.MaterialUsage, error) {
	row := usageRow{UserID: user.Hex(), MaterialName: name, UsageCount: 1, LastUsedAt: at.UTC()}
	var out usageRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "material_name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"usage_count":  gorm.Expr("usage_count + 1"),
				"last_used_at": row.LastUsedAt,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND material_name = ?", row.UserID, name).First(&out).Error
	})
	if err != nil {
		return nil, sqlErr("track material usage", "", err)
	}
	m := out.model()
	return &m, nil
}

func (s *SQLite) FavoriteMaterials(ctx context.Context, user primitive.ObjectID, limit int) ([]models.MaterialUsage, error) {
	var rows []usageRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", user.Hex()).
		Order("usage_count desc, last_used_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, sqlErr("list favorite materials", "", err)
	}
	out := make([]models.MaterialUsage, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// ---- users ----

func (s *SQLite) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	row := userRow{
		ID:           newID(&u.ID),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FCMToken:     u.FCMToken,
		CreatedAt:    u.CreatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil && isDuplicate(err) {
		return apperr.Conflict("email already registered")
	}
	return sqlErr("insert user", "", err)
}

func (r userRow) model() models.User {
	return models.User{
		ID:           oid(r.ID),
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FCMToken:     r.FCMToken,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *SQLite) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id.Hex()).First(&row).Error; err != nil {
		return nil, sqlErr("find user", "user not found", err)
	}
	u := row.model()
	return &u, nil
}

func (s *SQLite) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&row).Error; err != nil {
		return nil, sqlErr("find user", "user not found", err)
	}
	u := row.model()
	return &u, nil
}

func (s *SQLite) SetFCMToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id.Hex()).Update("fcm_token", token)
	if res.Error != nil {
		return sqlErr("set fcm token", "", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// ---- maintenance ----

func (s *SQLite) Count(ctx context.Context, since time.Time) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	steps := []struct {
		name string
		dst  *int64
		q    *gorm.DB
	}{
		{"seasons", &c.Seasons, db.Model(&seasonRow{})},
		{"active seasons", &c.ActiveSeasons, db.Model(&seasonRow{}).Where("is_active = ?", true)},
		{"logs", &c.Logs, db.Model(&logRow{})},
		{"recent logs", &c.LogsSince, db.Model(&logRow{}).Where("log_date >= ?", since.UTC())},
		{"materials", &c.Materials, db.Model(&materialRow{})},
		{"templates", &c.Templates, db.Model(&templateRow{})},
	}
	for _, st := range steps {
		if err := st.q.Count(st.dst).Error; err != nil {
			return c, sqlErr(fmt.Sprintf("count %s", st.name), "", err)
		}
	}
	return c, nil
}

func (s *SQLite) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&logRow{}, &hiddenRow{}, &seasonRow{}, &templateRow{}, &materialRow{}, &usageRow{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return sqlErr("reset", "", err)
			}
		}
		return nil
	})
}
