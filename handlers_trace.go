package main

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// handleTraceability returns the public traceability sheet of a lot.
func (a *App) handleTraceability(w http.ResponseWriter, r *http.Request) {
	seasonID, err := pathID(r, "seasonId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	tr, err := a.reports.Trace(ctx, seasonID.Hex())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "traceability retrieved", map[string]any{"traceability": tr})
}

// handleTraceSearch resolves a lot code (season id or exact season name) and
// redirects to its traceability sheet.
func (a *App) handleTraceSearch(w http.ResponseWriter, r *http.Request) {
	lot := pathParam(r, "lotCode")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	season, err := a.store.FindSeason(ctx, lot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/api/traceability/"+url.PathEscape(season.ID.Hex()), http.StatusFound)
}

// handleIntegrityRecord stamps an existing log entry.
func (a *App) handleIntegrityRecord(w http.ResponseWriter, r *http.Request) {
	var req recordReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	logID, err := primitive.ObjectIDFromHex(req.LogID)
	if err != nil {
		writeError(w, r, apperr.Invalid("logId must be a 24 character hex id"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	l, stamp, err := a.stamps.Record(ctx, logID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "integrity stamp recorded", map[string]any{"logId": l.ID.Hex(), "stamp": stamp})
}

func (a *App) handleIntegrityVerify(w http.ResponseWriter, r *http.Request) {
	logID, err := pathID(r, "logId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := a.stamps.Verify(ctx, logID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "log verified"
	switch {
	case !v.Recorded:
		msg = "log has no integrity stamp"
	case !v.Verified:
		msg = "log content does not match its stamp"
	}
	ok(w, msg, v)
}

func (a *App) handleIntegrityTrace(w http.ResponseWriter, r *http.Request) {
	seasonID, err := pathID(r, "seasonId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	trace, err := a.stamps.Trace(ctx, seasonID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "integrity trace retrieved", map[string]any{
		"seasonId":     seasonID.Hex(),
		"totalRecords": len(trace),
		"trace":        trace,
	})
}
