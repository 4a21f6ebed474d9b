package logbook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateSeasonRequest carries StartDate as YYYY-MM-DD, or as an RFC 3339
// instant whose local date is used.
type CreateSeasonRequest struct {
	SeasonName string `json:"seasonName" validate:"required"`
	FarmArea   string `json:"farmArea"   validate:"required"`
	StartDate  string `json:"startDate"  validate:"required"`
	TemplateID string `json:"templateId" validate:"omitempty,hexadecimal,len=24"`
}

// CreateSeason starts a season for user. Without an explicit template the
// first template whose crop type occurs in the season name is attached.
func (s *Service) CreateSeason(ctx context.Context, user primitive.ObjectID, req CreateSeasonRequest) (*models.Season, error) {
	req.SeasonName = strings.TrimSpace(req.SeasonName)
	req.FarmArea = strings.TrimSpace(req.FarmArea)
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}
	start, err := s.parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	season := &models.Season{
		OwnerID:   user,
		Name:      req.SeasonName,
		FarmArea:  req.FarmArea,
		StartDate: start,
		IsActive:  true,
		CreatedAt: s.instant(),
	}

	if req.TemplateID != "" {
		id, _ := primitive.ObjectIDFromHex(req.TemplateID)
		tpl, err := s.st.GetTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		season.TemplateID = &tpl.ID
	} else {
		tpl, err := s.matchTemplate(ctx, req.SeasonName)
		if err != nil {
			return nil, err
		}
		if tpl != nil {
			season.TemplateID = &tpl.ID
			s.log.Info("template matched by crop type", "template", tpl.Name, "cropType", tpl.CropType)
		} else {
			s.log.Info("no template matches season, starting without a plan", "season", req.SeasonName)
		}
	}

	if err := s.st.CreateSeason(ctx, season); err != nil {
		return nil, err
	}
	return season, nil
}

func (s *Service) matchTemplate(ctx context.Context, seasonName string) (*models.Template, error) {
	tpls, err := s.st.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tpls {
		if crop := strings.TrimSpace(tpls[i].CropType); crop != "" && strings.Contains(seasonName, crop) {
			return &tpls[i], nil
		}
	}
	return nil, nil
}

// parseDate returns midnight of the given calendar date in the service zone.
func (s *Service) parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseInLocation(time.DateOnly, v, s.loc); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, apperr.Invalid("startDate must be YYYY-MM-DD or RFC 3339, got %q", v)
	}
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc), nil
}

// ListSeasons returns the active seasons of user, newest first.
func (s *Service) ListSeasons(ctx context.Context, user primitive.ObjectID) ([]models.Season, error) {
	return s.st.ListSeasons(ctx, store.SeasonFilter{OwnerID: &user, ActiveOnly: true})
}

// DeleteSeason removes the season with its log entries and hidden tasks.
func (s *Service) DeleteSeason(ctx context.Context, user, seasonID primitive.ObjectID) error {
	return s.st.DeleteSeason(ctx, user, seasonID)
}

type HideRequest struct {
	SeasonID string            `json:"seasonId" validate:"required,hexadecimal,len=24"`
	TaskName string            `json:"taskName" validate:"required"`
	Reason   models.HideReason `json:"reason"   validate:"required,oneof=DONE SKIPPED"`
}

type HideResult struct {
	Hidden        bool `json:"hidden"`
	AlreadyHidden bool `json:"alreadyHidden"`
}

// Hide removes a planned task from the daily view of a season until a new
// log revokes a SKIPPED entry. Hiding an already hidden task overwrites its
// reason and time.
func (s *Service) Hide(ctx context.Context, user primitive.ObjectID, req HideRequest) (HideResult, error) {
	req.TaskName = models.TaskKey(req.TaskName)
	if err := models.ValidateStruct(req); err != nil {
		return HideResult{}, err
	}
	seasonID, _ := primitive.ObjectIDFromHex(req.SeasonID)
	if _, err := s.st.GetSeason(ctx, user, seasonID); err != nil {
		return HideResult{}, err
	}
	existed, err := s.hide(ctx, user, seasonID, req.TaskName, req.Reason)
	if err != nil {
		return HideResult{}, err
	}
	return HideResult{Hidden: true, AlreadyHidden: existed}, nil
}

func (s *Service) hide(ctx context.Context, user, seasonID primitive.ObjectID, task string, reason models.HideReason) (bool, error) {
	h := models.HiddenTask{
		SeasonID: seasonID,
		TaskName: task,
		UserID:   &user,
		Reason:   reason,
		HiddenAt: s.instant(),
	}
	existed, err := s.st.Hide(ctx, h)
	if errors.Is(err, apperr.ErrConflict) {
		// Lost a race with a concurrent first insert; the entry exists now.
		existed, err = s.st.Hide(ctx, h)
	}
	return existed, err
}
