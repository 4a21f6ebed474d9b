package logbook

import (
	"context"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultUnit = "kg"

type CreateLogRequest struct {
	SeasonID      string                `json:"season"        validate:"required,hexadecimal,len=24"`
	TaskName      string                `json:"taskName"      validate:"required"`
	Status        models.LogStatus      `json:"status"        validate:"required,oneof=DONE SKIPPED MANUAL PENDING IN_PROGRESS"`
	LogType       models.LogType        `json:"logType"       validate:"omitempty,oneof=scheduled manual"`
	UsedMaterials []models.UsedMaterial `json:"usedMaterials" validate:"dive"`
	Notes         string                `json:"notes"`
	Location      string                `json:"location"`
	CompletedAt   *time.Time            `json:"completedAt"`
}

// CreateLogResult reports the registry changes a new log caused: Hidden when
// it confirmed a planned task, Unskipped when it revoked a SKIPPED hide.
type CreateLogResult struct {
	Log       *models.LogEntry `json:"log"`
	Hidden    bool             `json:"hidden"`
	Unskipped bool             `json:"unskipped"`
}

// CreateLog records work on a season of user. LogDate and CreatedAt come from
// the server clock; CompletedAt defaults to now.
//
// Any new log revokes a SKIPPED hide of its task. A scheduled log with status
// DONE hides the task with reason DONE. Manual logs never hide anything, and
// DONE hides are never revoked here. The entry and these registry changes are
// written together through store.WriteLog; usage counters and the integrity
// stamp follow as best effort.
func (s *Service) CreateLog(ctx context.Context, user primitive.ObjectID, req CreateLogRequest) (CreateLogResult, error) {
	req.TaskName = models.TaskKey(req.TaskName)
	if req.LogType == "" {
		req.LogType = models.LogScheduled
	}
	if err := models.ValidateStruct(req); err != nil {
		return CreateLogResult{}, err
	}
	seasonID, _ := primitive.ObjectIDFromHex(req.SeasonID)
	if _, err := s.st.GetSeason(ctx, user, seasonID); err != nil {
		return CreateLogResult{}, err
	}

	now := s.instant()
	completed := now
	if req.CompletedAt != nil {
		completed = req.CompletedAt.UTC().Truncate(time.Millisecond)
	}
	used := make([]models.UsedMaterial, 0, len(req.UsedMaterials))
	for _, m := range req.UsedMaterials {
		m.Name = strings.TrimSpace(m.Name)
		if m.Unit == "" {
			m.Unit = defaultUnit
		}
		used = append(used, m)
	}

	entry := &models.LogEntry{
		SeasonID:      seasonID,
		UserID:        user,
		TaskName:      req.TaskName,
		LogDate:       now,
		Status:        req.Status,
		LogType:       req.LogType,
		UsedMaterials: used,
		Notes:         strings.TrimSpace(req.Notes),
		Location:      strings.TrimSpace(req.Location),
		CompletedAt:   &completed,
		CreatedAt:     now,
	}
	w := store.LogWrite{Entry: entry, Unskip: true}
	if entry.LogType == models.LogScheduled && entry.Status == models.StatusDone {
		w.Hide = &models.HiddenTask{
			SeasonID: seasonID,
			TaskName: entry.TaskName,
			UserID:   &user,
			Reason:   models.HideDone,
			HiddenAt: now,
		}
	}
	wr, err := s.st.WriteLog(ctx, w)
	if err != nil {
		return CreateLogResult{}, err
	}
	res := CreateLogResult{Log: entry, Hidden: w.Hide != nil, Unskipped: wr.Unskipped}

	for _, m := range used {
		if m.Name == "" {
			continue
		}
		if _, err := s.st.TrackUsage(ctx, user, m.Name, now); err != nil {
			s.log.Warn("material usage not tracked", "material", m.Name, "err", err)
		}
	}

	if s.stamp != nil {
		if _, err := s.stamp.Stamp(ctx, entry); err != nil {
			s.log.Warn("integrity stamp failed", "log", entry.ID.Hex(), "err", err)
		}
	}

	s.log.Debug("log created",
		"log", entry.ID.Hex(), "season", seasonID.Hex(), "task", entry.TaskName,
		"type", entry.LogType, "status", entry.Status)
	return res, nil
}

// SeasonLogs returns the non-scheduled logs of a season of user, newest first.
func (s *Service) SeasonLogs(ctx context.Context, user, seasonID primitive.ObjectID) ([]models.LogEntry, error) {
	if _, err := s.st.GetSeason(ctx, user, seasonID); err != nil {
		return nil, err
	}
	return s.st.FindLogs(ctx, store.LogFilter{SeasonID: &seasonID, ExcludeLogType: models.LogScheduled})
}

// TrackUsage counts one pick of a material by user.
func (s *Service) TrackUsage(ctx context.Context, user primitive.ObjectID, material string) (*models.MaterialUsage, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, apperr.Invalid("materialName is required")
	}
	return s.st.TrackUsage(ctx, user, material, s.instant())
}
