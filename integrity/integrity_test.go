package integrity

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixed = time.Date(2025, time.November, 12, 3, 0, 0, 0, time.UTC)

func entry() models.LogEntry {
	done := fixed.Add(-time.Hour)
	return models.LogEntry{
		ID:            primitive.NewObjectID(),
		SeasonID:      primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		TaskName:      "Phun thuốc",
		LogDate:       fixed,
		Status:        models.StatusDone,
		LogType:       models.LogScheduled,
		UsedMaterials: []models.UsedMaterial{{Name: "Regent 800WG", Quantity: 0.5, Unit: "kg"}},
		CompletedAt:   &done,
		CreatedAt:     fixed,
	}
}

func TestDigest(t *testing.T) {
	l := entry()
	h := Digest(&l)
	assert.True(t, strings.HasPrefix(h, "0x"))
	assert.Len(t, h, 2+64)
	assert.Equal(t, h, Digest(&l), "digest is deterministic")

	// Sub-millisecond differences are not covered.
	l2 := l
	l2.CreatedAt = l.CreatedAt.Add(300 * time.Microsecond)
	assert.Equal(t, h, Digest(&l2))

	// Fields outside the canonical set are not covered either.
	l2.Notes = "ghi chú"
	assert.Equal(t, h, Digest(&l2))

	l3 := l
	l3.UsedMaterials = []models.UsedMaterial{{Name: "Regent 800WG", Quantity: 0.6, Unit: "kg"}}
	assert.NotEqual(t, h, Digest(&l3))

	l4 := l
	l4.Status = models.StatusSkipped
	assert.NotEqual(t, h, Digest(&l4))
}

func openStore(t *testing.T) *store.SQLite {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "integrity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestStamper_RecordVerifyTrace(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	s := NewStamper(st, func() time.Time { return fixed })

	first := entry()
	require.NoError(t, st.CreateLog(ctx, &first))
	second := entry()
	second.SeasonID = first.SeasonID
	second.TaskName = "Bón thúc"
	second.LogDate = fixed.Add(-24 * time.Hour)
	require.NoError(t, st.CreateLog(ctx, &second))

	v, err := s.Verify(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, v.Recorded)
	assert.False(t, v.Verified)

	_, stamp, err := s.Record(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, Algorithm, stamp.Algorithm)
	assert.Equal(t, int64(1), stamp.Sequence)
	assert.Equal(t, Digest(&first), stamp.Hash)

	_, again, err := s.Record(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, stamp.Hash, again.Hash)
	assert.Equal(t, int64(1), again.Sequence, "stamping twice keeps the first stamp")

	_, stamp2, err := s.Record(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stamp2.Sequence)

	v, err = s.Verify(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, v.Recorded)
	assert.True(t, v.Verified)
	assert.Equal(t, stamp.Hash, v.Computed)

	trace, err := s.Trace(ctx, first.SeasonID)
	require.NoError(t, err)
	require.Len(t, trace, 2)
	assert.Equal(t, "Bón thúc", trace[0].Task)
	assert.Equal(t, "Phun thuốc", trace[1].Task)
}

func TestStamper_VerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	s := NewStamper(st, nil)

	l := entry()
	l.Integrity = &models.IntegrityStamp{
		Hash:      "0x" + strings.Repeat("0", 64),
		Algorithm: Algorithm,
		Sequence:  1,
		StampedAt: fixed,
	}
	require.NoError(t, st.CreateLog(ctx, &l))

	v, err := s.Verify(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, v.Recorded)
	assert.False(t, v.Verified)
}

func TestStamper_RecordKeepsFirstStamp(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	s := NewStamper(st, func() time.Time { return fixed })

	l := entry()
	require.NoError(t, st.CreateLog(ctx, &l))
	_, first, err := s.Record(ctx, l.ID)
	require.NoError(t, err)

	s.now = func() time.Time { return fixed.Add(time.Hour) }
	_, again, err := s.Record(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Hash, again.Hash)
	assert.Equal(t, int64(1), again.Sequence)
	assert.True(t, first.StampedAt.Equal(again.StampedAt))
}

func TestStamper_UnknownLog(t *testing.T) {
	s := NewStamper(openStore(t), nil)
	_, _, err := s.Record(context.Background(), primitive.NewObjectID())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
