package logbook

import (
	"context"
	"strings"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckTemplate validates a template and normalizes its task names.
func CheckTemplate(t *models.Template) error {
	t.Name = strings.TrimSpace(t.Name)
	t.CropType = strings.TrimSpace(t.CropType)
	if t.Stages == nil {
		t.Stages = []models.Stage{}
	}
	for i := range t.Stages {
		st := &t.Stages[i]
		if st.Tasks == nil {
			st.Tasks = []models.ScheduledTask{}
		}
		for j := range st.Tasks {
			st.Tasks[j].Name = models.TaskKey(st.Tasks[j].Name)
			if st.Tasks[j].SuggestedMaterials == nil {
				st.Tasks[j].SuggestedMaterials = []models.SuggestedMaterial{}
			}
		}
	}
	if err := models.ValidateStruct(t); err != nil {
		return err
	}
	if t.DurationDays != nil {
		for _, st := range t.Stages {
			if st.EndDay > *t.DurationDays {
				return apperr.Invalid("stage %q ends on day %d, after durationDays %d", st.Name, st.EndDay, *t.DurationDays)
			}
		}
	}
	return nil
}

func (s *Service) CreateTemplate(ctx context.Context, user primitive.ObjectID, t *models.Template) error {
	if err := CheckTemplate(t); err != nil {
		return err
	}
	t.ID = primitive.NilObjectID
	t.CreatedBy = &user
	t.CreatedAt = s.instant()
	return s.st.CreateTemplate(ctx, t)
}

func (s *Service) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return s.st.ListTemplates(ctx)
}

// UpdateTemplate replaces the name, crop type, duration and stages of a template.
func (s *Service) UpdateTemplate(ctx context.Context, id primitive.ObjectID, t *models.Template) error {
	if err := CheckTemplate(t); err != nil {
		return err
	}
	t.ID = id
	return s.st.UpdateTemplate(ctx, t)
}

// DeleteTemplate removes a template. Seasons that used it keep working on
// their manual logs only.
func (s *Service) DeleteTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	return s.st.DeleteTemplate(ctx, id)
}
