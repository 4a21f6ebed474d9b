package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Thanhdhxd/logbook-app/export"
	"github.com/Thanhdhxd/logbook-app/store"
)

// Data dump endpoints read every record of the system, not just the caller's.

func (a *App) handleDataAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	snap, err := export.Collect(ctx, a.store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "all data retrieved", map[string]any{
		"seasons":    snap.Seasons,
		"logEntries": snap.LogEntries,
		"materials":  snap.Materials,
		"templates":  snap.Templates,
		"stats": map[string]int{
			"totalSeasons":   len(snap.Seasons),
			"totalLogs":      len(snap.LogEntries),
			"totalMaterials": len(snap.Materials),
			"totalTemplates": len(snap.Templates),
		},
	})
}

func (a *App) handleDataSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	seasons, err := a.store.ListSeasons(ctx, store.SeasonFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "seasons retrieved", map[string]any{"count": len(seasons), "seasons": seasons})
}

func (a *App) handleDataLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	logs, err := a.store.FindLogs(ctx, store.LogFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "logs retrieved", map[string]any{"count": len(logs), "logs": logs})
}

func (a *App) handleDataMaterials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	mats, err := a.store.ListMaterials(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "materials retrieved", map[string]any{"count": len(mats), "materials": mats})
}

func (a *App) handleDataTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	tpls, err := a.store.ListTemplates(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "templates retrieved", map[string]any{"count": len(tpls), "templates": tpls})
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	stats, err := a.reports.Stats(ctx, a.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "system statistics", map[string]any{"stats": stats})
}

// handleExport streams a JSON backup of every record as a file download.
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	snap, err := export.Collect(ctx, a.store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := a.now().UTC()
	attachment(w, "application/json", export.FileName(now, "json"))
	if err := export.WriteJSON(w, export.Backup{ExportDate: now, Data: snap}); err != nil {
		a.log.Error("write json backup", "err", err)
	}
}

// handleExportXLSX streams the same records as a spreadsheet.
func (a *App) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	snap, err := export.Collect(ctx, a.store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.FileName(a.now(), "xlsx"))
	if err := export.WriteWorkbook(w, snap, a.cfg.Location); err != nil {
		a.log.Error("write xlsx backup", "err", err)
	}
}
