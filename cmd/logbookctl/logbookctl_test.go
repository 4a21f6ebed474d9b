package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "ctl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestLoadTemplate_BuiltIn(t *testing.T) {
	tpl, err := loadTemplate("")
	require.NoError(t, err)
	assert.Equal(t, "Quy trình kỹ thuật canh tác vải thiều xuất khẩu", tpl.Name)
	assert.Equal(t, "Vải thiều", tpl.CropType)
	require.NotNil(t, tpl.DurationDays)
	assert.Equal(t, 365, *tpl.DurationDays)
	require.Len(t, tpl.Stages, 5)
	assert.Equal(t, 25, taskCount(tpl))

	last := tpl.Stages[4]
	assert.Equal(t, 365, last.StartDay)
	assert.Equal(t, 365, last.EndDay)

	first := tpl.Stages[0].Tasks[2]
	assert.Equal(t, "Bón phân thúc lộc (NPK)", first.Name)
	require.Len(t, first.SuggestedMaterials, 3)
	assert.Equal(t, "0,75-0,9 kg/cây (50% lượng cả năm)", first.SuggestedMaterials[0].SuggestedQuantityUnit)
	assert.NotNil(t, tpl.Stages[0].Tasks[0].SuggestedMaterials)
}

func TestLoadTemplate_File(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "rice.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
templateName: Quy trình lúa
cropType: Lúa
stages:
  - stageName: Làm đất
    startDay: 1
    endDay: 10
    tasks:
      - taskName: " Cày ải "
`), 0o644))
	tpl, err := loadTemplate(good)
	require.NoError(t, err)
	assert.Equal(t, "Cày ải", tpl.Stages[0].Tasks[0].Name)

	unknown := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("templateName: X\ncropType: Lúa\nstage: []\n"), 0o644))
	_, err = loadTemplate(unknown)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
templateName: X
cropType: Lúa
stages:
  - stageName: Làm đất
    startDay: 10
    endDay: 2
`), 0o644))
	_, err = loadTemplate(bad)
	assert.True(t, errors.Is(err, apperr.ErrInvalid), "got %v", err)

	_, err = loadTemplate(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedTemplate(t *testing.T) {
	ctx := context.Background()
	st := openSQLite(t)
	now := time.Date(2025, time.November, 12, 1, 0, 0, 0, time.UTC)

	tpl, err := loadTemplate("")
	require.NoError(t, err)
	created, err := seedTemplate(ctx, st, tpl, false, now)
	require.NoError(t, err)
	assert.True(t, created)
	id := tpl.ID

	again, err := loadTemplate("")
	require.NoError(t, err)
	created, err = seedTemplate(ctx, st, again, false, now)
	require.NoError(t, err)
	assert.False(t, created)

	again.Stages = again.Stages[:2]
	created, err = seedTemplate(ctx, st, again, true, now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again.ID)

	list, err := st.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Stages, 2)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	st := openSQLite(t)
	now := time.Now()

	u := &models.User{Name: " Nguyễn Văn A ", Email: " Admin@Logbook.com "}
	require.NoError(t, createUser(ctx, st, u, "admin123", now))
	assert.Equal(t, "admin@logbook.com", u.Email)

	got, err := st.UserByEmail(ctx, "admin@logbook.com")
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Văn A", got.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("admin123")))

	err = createUser(ctx, st, &models.User{Name: "B", Email: "admin@logbook.com"}, "x", now)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	err = createUser(ctx, st, &models.User{Name: "B", Email: "b@logbook.com"}, "", now)
	assert.True(t, errors.Is(err, apperr.ErrInvalid))
}

func TestCommands(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("REMINDER_WEBHOOK_URL", "")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.Execute(), "logbookctl %v", args)
		return out.String()
	}

	assert.Contains(t, run("template", "seed"), "25 tasks")
	assert.Contains(t, run("template", "list"), "Vải thiều")
	assert.Contains(t, run("user", "seed"), "created Demo User")
	assert.Contains(t, run("user", "seed"), "skip demo@example.com")
	assert.Contains(t, run("remind"), "seasons 0")
	assert.Contains(t, run("reset", "--force"), "All logbook data deleted.")
	assert.NotContains(t, run("template", "list"), "Vải thiều")
}
