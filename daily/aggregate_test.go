package daily

import (
	"testing"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oidN(n byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = n
	return id
}

func manualLog(id byte, name string, completed time.Time) models.LogEntry {
	c := completed
	return models.LogEntry{
		ID:          oidN(id),
		TaskName:    name,
		Status:      models.StatusManual,
		LogType:     models.LogManual,
		CompletedAt: &c,
		CreatedAt:   completed,
	}
}

func TestAggregateManual_LatestPerName(t *testing.T) {
	now := date(2025, time.November, 12)
	logs := []models.LogEntry{
		manualLog(1, "Tưới nước", now.Add(-48*time.Hour)),
		manualLog(2, "Tưới nước", now.Add(-2*time.Hour)),
		manualLog(3, " Tưới nước ", now.Add(-24*time.Hour)),
		manualLog(4, "Nhổ cỏ", now.Add(-72*time.Hour)),
	}

	out := AggregateManual(logs, now.Add(-30*24*time.Hour))
	require.Len(t, out, 2)
	assert.Equal(t, oidN(2), out[0].ID)
	assert.Equal(t, oidN(4), out[1].ID)
}

func TestAggregateManual_Window(t *testing.T) {
	now := date(2025, time.November, 12)
	since := now.Add(-30 * 24 * time.Hour)
	logs := []models.LogEntry{
		manualLog(1, "Nhổ cỏ", since.Add(-time.Second)),
		manualLog(2, "Tỉa cành", since),
		{ID: oidN(3), TaskName: "Không hoàn thành", LogType: models.LogManual},
	}
	sched := manualLog(4, "Bón lót", now)
	sched.LogType = models.LogScheduled
	logs = append(logs, sched)

	out := AggregateManual(logs, since)
	require.Len(t, out, 1)
	assert.Equal(t, "Tỉa cành", out[0].TaskName, "window start is inclusive")
}

func TestAggregateManual_TieBreakByID(t *testing.T) {
	at := date(2025, time.November, 10)
	logs := []models.LogEntry{
		manualLog(9, "Phun thuốc", at),
		manualLog(3, "Phun thuốc", at),
	}
	for _, in := range [][]models.LogEntry{logs, {logs[1], logs[0]}} {
		out := AggregateManual(in, at.Add(-time.Hour))
		require.Len(t, out, 1)
		assert.Equal(t, oidN(9), out[0].ID)
	}
}

func TestAggregateManual_Empty(t *testing.T) {
	out := AggregateManual(nil, time.Now())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
