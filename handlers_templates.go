package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
)

func (a *App) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	tpls, err := a.logbook.ListTemplates(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "templates retrieved", map[string]any{"count": len(tpls), "templates": tpls})
}

func (a *App) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.logbook.CreateTemplate(ctx, mustUserID(r), &t); err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "template created", map[string]any{"template": t})
}

func (a *App) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var t models.Template
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.logbook.UpdateTemplate(ctx, id, &t); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "template updated", map[string]any{"template": t})
}

func (a *App) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := a.logbook.DeleteTemplate(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "template deleted", map[string]any{"template": t})
}
