package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Thanhdhxd/logbook-app/logbook"
)

func (a *App) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	var req logbook.CreateSeasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	season, err := a.logbook.CreateSeason(ctx, mustUserID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "season created", map[string]any{"season": season})
}

// handleListSeasons returns the caller's active seasons.
func (a *App) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	seasons, err := a.logbook.ListSeasons(ctx, mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "data retrieved", map[string]any{"seasons": seasons})
}

// handleDailyView returns today's task list of a season.
func (a *App) handleDailyView(w http.ResponseWriter, r *http.Request) {
	seasonID, err := pathID(r, "seasonId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	v, err := a.daily.View(ctx, mustUserID(r), seasonID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, fmt.Sprintf("tasks for day %d of the season", v.CurrentDay), v)
}

func (a *App) handleHideTask(w http.ResponseWriter, r *http.Request) {
	var req logbook.HideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := a.logbook.Hide(ctx, mustUserID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.AlreadyHidden {
		ok(w, "task was already hidden", res)
		return
	}
	created(w, "task hidden", res)
}

// handleDeleteSeason removes a season with its logs and hidden tasks.
func (a *App) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	seasonID, err := pathID(r, "seasonId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if err := a.logbook.DeleteSeason(ctx, mustUserID(r), seasonID); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "season deleted", map[string]any{"deleted": true})
}
