package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Thanhdhxd/logbook-app/logbook"
)

func (a *App) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req logbook.CreateLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := a.logbook.CreateLog(ctx, mustUserID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, fmt.Sprintf("log saved (%s)", res.Log.Status), res)
}

// handleSeasonLogs lists the non-scheduled logs of a season, newest first.
func (a *App) handleSeasonLogs(w http.ResponseWriter, r *http.Request) {
	seasonID, err := pathID(r, "seasonId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	logs, err := a.logbook.SeasonLogs(ctx, mustUserID(r), seasonID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "data retrieved", map[string]any{"logs": logs})
}
