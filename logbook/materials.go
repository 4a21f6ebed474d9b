package logbook

import (
	"context"
	"sort"
	"strings"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FavoritesLimit caps both favorite lists.
const FavoritesLimit = 10

func normalizeMaterial(m *models.Material) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Barcode = strings.TrimSpace(m.Barcode)
	if m.Type == "" {
		m.Type = models.MaterialOther
	}
	if m.Unit == "" {
		m.Unit = defaultUnit
	}
	return models.ValidateStruct(m)
}

func (s *Service) CreateMaterial(ctx context.Context, m *models.Material) error {
	if err := normalizeMaterial(m); err != nil {
		return err
	}
	m.ID = primitive.NilObjectID
	m.IsActive = true
	m.CreatedAt = s.instant()
	return s.st.CreateMaterial(ctx, m)
}

func (s *Service) ListMaterials(ctx context.Context) ([]models.Material, error) {
	return s.st.ListMaterials(ctx)
}

func (s *Service) UpdateMaterial(ctx context.Context, id primitive.ObjectID, m *models.Material) error {
	if err := normalizeMaterial(m); err != nil {
		return err
	}
	m.ID = id
	return s.st.UpdateMaterial(ctx, m)
}

func (s *Service) DeleteMaterial(ctx context.Context, id primitive.ObjectID) (*models.Material, error) {
	return s.st.DeleteMaterial(ctx, id)
}

func (s *Service) MaterialByBarcode(ctx context.Context, barcode string) (*models.Material, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, apperr.Invalid("barcode is required")
	}
	return s.st.MaterialByBarcode(ctx, barcode)
}

// SuggestedMaterials returns what the season's template suggests for a task.
func (s *Service) SuggestedMaterials(ctx context.Context, user, seasonID primitive.ObjectID, taskName string) ([]models.SuggestedMaterial, error) {
	season, err := s.st.GetSeason(ctx, user, seasonID)
	if err != nil {
		return nil, err
	}
	if !season.HasTemplate() {
		return nil, apperr.NotFound("season has no plan template")
	}
	tpl, err := s.st.GetTemplate(ctx, *season.TemplateID)
	if err != nil {
		return nil, err
	}
	return tpl.SuggestedFor(models.TaskKey(taskName)), nil
}

// MaterialTally is a material's use summed over a user's log entries.
type MaterialTally struct {
	MaterialName  string  `json:"materialName"`
	UsageCount    int     `json:"usageCount"`
	TotalQuantity float64 `json:"totalQuantity"`
	Unit          string  `json:"unit"`
}

// LoggedFavorites tallies the materials used in the user's logs and returns the
// most frequent ones. Ties keep the name order.
func (s *Service) LoggedFavorites(ctx context.Context, user primitive.ObjectID) ([]MaterialTally, error) {
	logs, err := s.st.FindLogs(ctx, store.LogFilter{UserID: &user, Ascending: true})
	if err != nil {
		return nil, err
	}
	byName := map[string]*MaterialTally{}
	for _, l := range logs {
		for _, m := range l.UsedMaterials {
			t, ok := byName[m.Name]
			if !ok {
				t = &MaterialTally{MaterialName: m.Name, Unit: m.Unit}
				byName[m.Name] = t
			}
			t.UsageCount++
			t.TotalQuantity += m.Quantity
		}
	}
	out := make([]MaterialTally, 0, len(byName))
	for _, t := range byName {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].MaterialName < out[j].MaterialName
	})
	if len(out) > FavoritesLimit {
		out = out[:FavoritesLimit]
	}
	return out, nil
}

// FavoriteMaterials returns the user's most picked materials from the usage counters.
func (s *Service) FavoriteMaterials(ctx context.Context, user primitive.ObjectID) ([]models.MaterialUsage, error) {
	return s.st.FavoriteMaterials(ctx, user, FavoritesLimit)
}
