package logbook

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/daily"
	"github.com/Thanhdhxd/logbook-app/integrity"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ict = time.FixedZone("ICT", 7*3600)

// clock is a manual clock shared by the services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	st    *store.SQLite
	clk   *clock
	svc   *Service
	view  *daily.Service
	owner primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "logbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	clk := &clock{t: time.Date(2025, time.November, 12, 8, 0, 0, 0, ict)}
	return &fixture{
		st:  st,
		clk: clk,
		svc: NewService(st, ict,
			WithClock(clk.Now),
			WithStamper(integrity.NewStamper(st, clk.Now))),
		view:  daily.NewService(st, ict, 30*24*time.Hour, daily.WithClock(clk.Now)),
		owner: primitive.NewObjectID(),
	}
}

func riceTemplate() *models.Template {
	return &models.Template{
		Name:     "Quy trình lúa",
		CropType: "Lúa",
		Stages: []models.Stage{
			{Name: "Làm đất", StartDay: 1, EndDay: 10, Tasks: []models.ScheduledTask{
				{Name: "Bón lót", SuggestedMaterials: []models.SuggestedMaterial{{Name: "Phân chuồng", SuggestedQuantityUnit: "500 kg/ha"}}},
			}},
			{Name: "Gieo sạ", StartDay: 11, EndDay: 20, Tasks: []models.ScheduledTask{
				{Name: "Gieo sạ"},
				{Name: "Phun thuốc"},
			}},
		},
	}
}

func (f *fixture) season(t *testing.T, start string) *models.Season {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.CreateTemplate(ctx, f.owner, riceTemplate()))
	s, err := f.svc.CreateSeason(ctx, f.owner, CreateSeasonRequest{
		SeasonName: "Lúa Đông Xuân 2025",
		FarmArea:   "Ruộng A",
		StartDate:  start,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) log(t *testing.T, s *models.Season, task string, typ models.LogType, status models.LogStatus) CreateLogResult {
	t.Helper()
	res, err := f.svc.CreateLog(context.Background(), f.owner, CreateLogRequest{
		SeasonID: s.ID.Hex(),
		TaskName: task,
		Status:   status,
		LogType:  typ,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) dailyView(t *testing.T, s *models.Season) daily.View {
	t.Helper()
	v, err := f.view.View(context.Background(), f.owner, s.ID)
	require.NoError(t, err)
	return v
}

func planned(v daily.View) []string {
	var out []string
	for _, t := range v.Tasks {
		if t.Planned {
			out = append(out, t.TaskName)
		}
	}
	return out
}

func unplanned(v daily.View) []string {
	var out []string
	for _, t := range v.Tasks {
		if !t.Planned {
			out = append(out, t.TaskName)
		}
	}
	return out
}

func TestCreateSeason_MatchesTemplateByCropType(t *testing.T) {
	f := newFixture(t)
	s := f.season(t, "2025-11-01")

	require.True(t, s.HasTemplate())
	assert.True(t, s.StartDate.Equal(time.Date(2025, time.November, 1, 0, 0, 0, 0, ict)))
	assert.True(t, s.IsActive)
	assert.Equal(t, f.owner, s.OwnerID)

	other, err := f.svc.CreateSeason(context.Background(), f.owner, CreateSeasonRequest{
		SeasonName: "Ngô hè thu", FarmArea: "Bãi bồi", StartDate: "2025-11-01T20:00:00Z",
	})
	require.NoError(t, err)
	assert.False(t, other.HasTemplate())
	assert.True(t, other.StartDate.Equal(time.Date(2025, time.November, 2, 0, 0, 0, 0, ict)), "instant is reduced to its local date")
}

func TestCreateSeason_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSeason(ctx, f.owner, CreateSeasonRequest{SeasonName: "Lúa", StartDate: "2025-11-01"})
	assert.True(t, errors.Is(err, apperr.ErrInvalid))
	assert.Contains(t, err.Error(), "farmArea")

	_, err = f.svc.CreateSeason(ctx, f.owner, CreateSeasonRequest{SeasonName: "Lúa", FarmArea: "A", StartDate: "01/11/2025"})
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	_, err = f.svc.CreateSeason(ctx, f.owner, CreateSeasonRequest{
		SeasonName: "Lúa", FarmArea: "A", StartDate: "2025-11-01", TemplateID: primitive.NewObjectID().Hex(),
	})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

// Hiding twice leaves one entry carrying the later time.
func TestHide_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")
	req := HideRequest{SeasonID: s.ID.Hex(), TaskName: "Phun thuốc", Reason: models.HideSkipped}

	res, err := f.svc.Hide(ctx, f.owner, req)
	require.NoError(t, err)
	assert.True(t, res.Hidden)
	assert.False(t, res.AlreadyHidden)

	f.clk.Advance(time.Minute)
	req.TaskName = "  Phun thuốc "
	res, err = f.svc.Hide(ctx, f.owner, req)
	require.NoError(t, err)
	assert.True(t, res.AlreadyHidden)

	hidden, err := f.st.ListHidden(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	assert.Equal(t, "Phun thuốc", hidden[0].TaskName)
	assert.True(t, hidden[0].HiddenAt.Equal(f.clk.Now()))
}

func TestHide_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	_, err := f.svc.Hide(ctx, f.owner, HideRequest{SeasonID: s.ID.Hex(), TaskName: "Gieo sạ", Reason: "LATER"})
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	_, err = f.svc.Hide(ctx, f.owner, HideRequest{SeasonID: "nope", TaskName: "Gieo sạ", Reason: models.HideDone})
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	_, err = f.svc.Hide(ctx, primitive.NewObjectID(), HideRequest{SeasonID: s.ID.Hex(), TaskName: "Gieo sạ", Reason: models.HideDone})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestHide_ConcurrentRequestsLeaveOneEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Hide(ctx, f.owner, HideRequest{SeasonID: s.ID.Hex(), TaskName: "Gieo sạ", Reason: models.HideSkipped})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	hidden, err := f.st.ListHidden(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, hidden, 1)
}

// Entries logged at the same moment still get distinct, gapless stamp
// sequences within their season.
func TestCreateLog_ConcurrentStampsGetDistinctSequences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateLog(ctx, f.owner, CreateLogRequest{
				SeasonID: s.ID.Hex(),
				TaskName: "Làm cỏ",
				Status:   models.StatusManual,
				LogType:  models.LogManual,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stamped, err := f.st.FindLogs(ctx, store.LogFilter{SeasonID: &s.ID, Stamped: true})
	require.NoError(t, err)
	require.Len(t, stamped, n)
	var seqs []int
	for _, l := range stamped {
		require.NotNil(t, l.Integrity)
		seqs = append(seqs, int(l.Integrity.Sequence))
	}
	sort.Ints(seqs)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, seqs)
}

// A scheduled DONE log hides the task from the plan, on that day and later.
func TestCreateLog_ScheduledDoneHides(t *testing.T) {
	f := newFixture(t)
	s := f.season(t, "2025-11-01")

	v := f.dailyView(t, s)
	assert.Equal(t, 12, v.CurrentDay)
	assert.Equal(t, []string{"Gieo sạ", "Phun thuốc"}, planned(v))
	assert.Equal(t, daily.StatusTodo, v.Tasks[0].Status)

	res := f.log(t, s, "Gieo sạ", models.LogScheduled, models.StatusDone)
	assert.True(t, res.Hidden)

	f.clk.Advance(time.Hour)
	assert.Equal(t, []string{"Phun thuốc"}, planned(f.dailyView(t, s)))

	f.clk.Set(time.Date(2025, time.November, 15, 8, 0, 0, 0, ict))
	v = f.dailyView(t, s)
	assert.Equal(t, 15, v.CurrentDay)
	assert.Equal(t, []string{"Phun thuốc"}, planned(v))
}

// A manual DONE log creates no hidden entry and shows as an unplanned row.
func TestCreateLog_ManualNeverHides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	res := f.log(t, s, "Bón lót", models.LogManual, models.StatusDone)
	assert.False(t, res.Hidden)

	hidden, err := f.st.ListHidden(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	f.clk.Advance(time.Hour)
	v := f.dailyView(t, s)
	assert.Equal(t, []string{"Bón lót"}, unplanned(v))
	assert.Equal(t, daily.ManualFrequency, v.Tasks[len(v.Tasks)-1].Frequency)
}

// A manual log created after a hide lifts it; a backdated one created before does not.
func TestRecencyUsesCreationTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	// Recorded before the hide, but claims to be completed after it.
	backdated := f.clk.Now().Add(3 * time.Hour)
	_, err := f.svc.CreateLog(ctx, f.owner, CreateLogRequest{
		SeasonID: s.ID.Hex(), TaskName: "Phun thuốc", Status: models.StatusManual,
		LogType: models.LogManual, CompletedAt: &backdated,
	})
	require.NoError(t, err)

	f.clk.Advance(time.Minute)
	_, err = f.svc.Hide(ctx, f.owner, HideRequest{SeasonID: s.ID.Hex(), TaskName: "Phun thuốc", Reason: models.HideSkipped})
	require.NoError(t, err)

	f.clk.Advance(time.Minute)
	v := f.dailyView(t, s)
	assert.Equal(t, []string{"Gieo sạ"}, planned(v))
	assert.Equal(t, []string{"Phun thuốc"}, unplanned(v))

	f.clk.Advance(time.Minute)
	res := f.log(t, s, "Phun thuốc", models.LogManual, models.StatusManual)
	assert.True(t, res.Unskipped)

	f.clk.Advance(time.Minute)
	v = f.dailyView(t, s)
	assert.Equal(t, []string{"Gieo sạ", "Phun thuốc"}, planned(v))
	assert.Equal(t, []string{"Phun thuốc"}, unplanned(v))
}

// Assumption: DONE hides are permanent; later scheduled logs do not revoke them.
func TestCreateLog_DoneHideIsNotRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	f.log(t, s, "Gieo sạ", models.LogScheduled, models.StatusDone)
	f.clk.Advance(time.Hour)
	res := f.log(t, s, "Gieo sạ", models.LogScheduled, models.StatusSkipped)
	assert.False(t, res.Unskipped)

	hidden, err := f.st.ListHidden(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	assert.Equal(t, models.HideDone, hidden[0].Reason)

	f.clk.Advance(time.Hour)
	assert.Equal(t, []string{"Phun thuốc"}, planned(f.dailyView(t, s)))
}

func TestCreateLog_RevokesSkippedHide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	_, err := f.svc.Hide(ctx, f.owner, HideRequest{SeasonID: s.ID.Hex(), TaskName: "Phun thuốc", Reason: models.HideSkipped})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gieo sạ"}, planned(f.dailyView(t, s)))

	f.clk.Advance(time.Hour)
	res := f.log(t, s, "Phun thuốc", models.LogScheduled, models.StatusInProgress)
	assert.True(t, res.Unskipped)
	assert.False(t, res.Hidden)

	hidden, err := f.st.ListHidden(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	v := f.dailyView(t, s)
	assert.Equal(t, []string{"Gieo sạ", "Phun thuốc"}, planned(v))
	assert.Equal(t, "IN_PROGRESS", v.Tasks[1].Status)
}

func TestCreateLog_FieldsAndSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")

	res, err := f.svc.CreateLog(ctx, f.owner, CreateLogRequest{
		SeasonID: s.ID.Hex(),
		TaskName: " Bón lót ",
		Status:   models.StatusDone,
		UsedMaterials: []models.UsedMaterial{
			{Name: "Phân chuồng", Quantity: 500},
			{Name: "Vôi bột", Quantity: 20, Unit: "bao"},
		},
		Notes: "Bón trước khi cày",
	})
	require.NoError(t, err)

	l := res.Log
	assert.Equal(t, "Bón lót", l.TaskName)
	assert.Equal(t, models.LogScheduled, l.LogType, "scheduled is the default type")
	assert.Equal(t, "kg", l.UsedMaterials[0].Unit)
	assert.Equal(t, "bao", l.UsedMaterials[1].Unit)
	require.NotNil(t, l.CompletedAt)
	assert.True(t, l.CompletedAt.Equal(f.clk.Now()))
	assert.True(t, l.CreatedAt.Equal(f.clk.Now()))
	require.NotNil(t, l.Integrity)
	assert.Equal(t, integrity.Digest(l), l.Integrity.Hash)

	favs, err := f.svc.FavoriteMaterials(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, favs, 2)

	_, err = f.svc.CreateLog(ctx, f.owner, CreateLogRequest{
		SeasonID: s.ID.Hex(), TaskName: "Bón lót", Status: models.StatusDone,
		UsedMaterials: []models.UsedMaterial{{Name: "Phân chuồng", Quantity: -1}},
	})
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	_, err = f.svc.CreateLog(ctx, f.owner, CreateLogRequest{SeasonID: s.ID.Hex(), TaskName: "Bón lót", Status: "FINISHED"})
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	_, err = f.svc.CreateLog(ctx, primitive.NewObjectID(), CreateLogRequest{SeasonID: s.ID.Hex(), TaskName: "Bón lót", Status: models.StatusDone})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSeasonLogs_ExcludesScheduled(t *testing.T) {
	f := newFixture(t)
	s := f.season(t, "2025-11-01")

	f.log(t, s, "Gieo sạ", models.LogScheduled, models.StatusDone)
	f.clk.Advance(time.Minute)
	f.log(t, s, "Nhổ cỏ", models.LogManual, models.StatusManual)
	f.clk.Advance(time.Minute)
	f.log(t, s, "Bắt ốc", models.LogManual, models.StatusManual)

	logs, err := f.svc.SeasonLogs(context.Background(), f.owner, s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Bắt ốc", logs[0].TaskName)
	assert.Equal(t, "Nhổ cỏ", logs[1].TaskName)
}

// Deleting a season removes its logs and hidden entries; lookups return empty.
func TestDeleteSeason_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.season(t, "2025-11-01")
	keep := f.season2(t)

	f.log(t, s, "Gieo sạ", models.LogScheduled, models.StatusDone)
	f.log(t, s, "Nhổ cỏ", models.LogManual, models.StatusManual)
	f.log(t, keep, "Nhổ cỏ", models.LogManual, models.StatusManual)
	_, err := f.svc.Hide(ctx, f.owner, HideRequest{SeasonID: s.ID.Hex(), TaskName: "Phun thuốc", Reason: models.HideSkipped})
	require.NoError(t, err)

	assert.True(t, errors.Is(f.svc.DeleteSeason(ctx, primitive.NewObjectID(), s.ID), apperr.ErrNotFound))
	require.NoError(t, f.svc.DeleteSeason(ctx, f.owner, s.ID))

	logs, err := f.st.FindLogs(ctx, store.LogFilter{SeasonID: &s.ID})
	require.NoError(t, err)
	assert.Empty(t, logs)
	hidden, err := f.st.ListHidden(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	logs, err = f.st.FindLogs(ctx, store.LogFilter{SeasonID: &keep.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = f.view.View(ctx, f.owner, s.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(f.svc.DeleteSeason(ctx, f.owner, s.ID), apperr.ErrNotFound))
}

func (f *fixture) season2(t *testing.T) *models.Season {
	t.Helper()
	s, err := f.svc.CreateSeason(context.Background(), f.owner, CreateSeasonRequest{
		SeasonName: "Rau muống", FarmArea: "Ruộng B", StartDate: "2025-11-05",
	})
	require.NoError(t, err)
	return s
}
