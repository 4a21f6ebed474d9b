package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ict = time.FixedZone("ICT", 7*3600)

func litchi() *models.Template {
	return &models.Template{
		Name:     "Vải thiều VietGAP",
		CropType: "Vải",
		Stages: []models.Stage{
			{Name: "Ra hoa", StartDay: 1, EndDay: 30, Tasks: []models.ScheduledTask{
				{Name: "Phun thuốc", ScheduledDate: "05/01/2026"},
				{Name: "Tỉa cành"},
			}},
			{Name: "Thu hoạch", StartDay: 90, EndDay: 110, Tasks: []models.ScheduledTask{
				{Name: "Thu hái", SuggestedMaterials: []models.SuggestedMaterial{{Name: "Sọt tre"}}},
			}},
		},
	}
}

func doneLog(task string, at time.Time, notes string, mats ...models.UsedMaterial) models.LogEntry {
	return models.LogEntry{
		ID: primitive.NewObjectID(), TaskName: task, LogDate: at, Status: models.StatusDone,
		LogType: models.LogScheduled, Notes: notes, UsedMaterials: mats, CreatedAt: at,
	}
}

func TestBuildTraceability(t *testing.T) {
	season := &models.Season{ID: primitive.NewObjectID(), Name: "Vải Lục Ngạn 2026", FarmArea: "Đồi 3"}
	d1 := time.Date(2026, time.January, 5, 8, 0, 0, 0, ict)
	d2 := d1.AddDate(0, 0, 10)
	d3 := d1.AddDate(0, 0, 20)
	done := []models.LogEntry{
		doneLog("Phun thuốc", d1, "Lần 1", models.UsedMaterial{Name: "Antracol", Quantity: 1, Unit: "kg"}),
		doneLog("Phun thuốc", d2, "Lần 2", models.UsedMaterial{Name: "Antracol", Quantity: 1.5, Unit: "kg"}),
		doneLog("Làm cỏ", d3, ""),
	}

	tr := BuildTraceability(season, litchi(), done)
	assert.Equal(t, season.ID.Hex(), tr.LotCode)
	assert.Equal(t, "Vải thiều VietGAP", tr.TemplateName)
	require.NotNil(t, tr.HarvestDate)
	assert.True(t, tr.HarvestDate.Equal(d3))
	require.Len(t, tr.Stages, 2)

	spray := tr.Stages[0].Tasks[0]
	assert.True(t, spray.IsCompleted)
	assert.Len(t, spray.CompletedDates, 2)
	assert.Len(t, spray.Materials, 2)
	assert.Equal(t, "Lần 1; Lần 2", spray.Notes)
	require.NotNil(t, spray.ScheduledDate)
	assert.Equal(t, "05/01/2026", *spray.ScheduledDate)

	prune := tr.Stages[0].Tasks[1]
	assert.False(t, prune.IsCompleted)
	assert.Empty(t, prune.CompletedDates)
	assert.Nil(t, prune.ScheduledDate)

	assert.Len(t, tr.Stages[1].Tasks[0].SuggestedMaterials, 1)

	require.Len(t, tr.OtherTasks, 1)
	assert.Equal(t, "Làm cỏ", tr.OtherTasks[0].TaskName)
}

func TestBuildTraceability_NoTemplateNoLogs(t *testing.T) {
	tr := BuildTraceability(&models.Season{ID: primitive.NewObjectID()}, nil, nil)
	assert.Equal(t, NoTemplateName, tr.TemplateName)
	assert.Equal(t, "N/A", tr.CropType)
	assert.Nil(t, tr.HarvestDate)
	assert.NotNil(t, tr.Stages)
	assert.Empty(t, tr.OtherTasks)
}

func TestService_TraceAndStats(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	defer st.Close(ctx)

	tpl := litchi()
	require.NoError(t, st.CreateTemplate(ctx, tpl))
	season := &models.Season{
		OwnerID: primitive.NewObjectID(), Name: "Vải Lục Ngạn 2026", FarmArea: "Đồi 3",
		TemplateID: &tpl.ID, StartDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, ict), IsActive: true,
	}
	require.NoError(t, st.CreateSeason(ctx, season))
	old := &models.Season{OwnerID: season.OwnerID, Name: "Vải 2025", FarmArea: "Đồi 1"}
	require.NoError(t, st.CreateSeason(ctx, old))

	now := time.Date(2026, time.February, 10, 9, 0, 0, 0, ict)
	for _, l := range []models.LogEntry{
		doneLog("Phun thuốc", now.AddDate(0, -1, 0), ""),
		doneLog("Tỉa cành", now.Add(-time.Hour), ""),
		{TaskName: "Tỉa cành", LogDate: now, Status: models.StatusSkipped, LogType: models.LogScheduled, CreatedAt: now},
	} {
		l.SeasonID = season.ID
		require.NoError(t, st.CreateLog(ctx, &l))
	}
	require.NoError(t, st.CreateMaterial(ctx, &models.Material{Name: "Antracol", Type: models.MaterialPesticide}))

	svc := NewService(st, ict)

	byID, err := svc.Trace(ctx, season.ID.Hex())
	require.NoError(t, err)
	byName, err := svc.Trace(ctx, "Vải Lục Ngạn 2026")
	require.NoError(t, err)
	assert.Equal(t, byID.LotCode, byName.LotCode)
	assert.True(t, byID.Stages[0].Tasks[0].IsCompleted)
	assert.True(t, byID.Stages[0].Tasks[1].IsCompleted)
	assert.Len(t, byID.Stages[0].Tasks[1].CompletedDates, 1, "only DONE logs count")

	_, err = svc.Trace(ctx, "LOT-404")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	stats, err := svc.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Seasons.Total)
	assert.Equal(t, int64(1), stats.Seasons.Active)
	assert.Equal(t, int64(1), stats.Seasons.Inactive)
	assert.Equal(t, int64(3), stats.Logs.Total)
	assert.Equal(t, int64(2), stats.Logs.ThisMonth)
	assert.Equal(t, int64(1), stats.Materials.Total)
	assert.Equal(t, int64(1), stats.Templates.Total)
}

func TestMonthStart(t *testing.T) {
	// 2026-01-31 20:00 UTC is already February in ICT.
	now := time.Date(2026, time.January, 31, 20, 0, 0, 0, time.UTC)
	assert.True(t, MonthStart(now, ict).Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, ict)))
}
