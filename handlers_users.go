package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
)

// handleFCMToken stores the caller's push token. In anonymous mode the
// default identity gets a user record on first use.
func (a *App) handleFCMToken(w http.ResponseWriter, r *http.Request) {
	var req fcmTokenReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token := strings.TrimSpace(req.FCMToken)
	if token == "" {
		fail(w, http.StatusBadRequest, "fcmToken is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uid := mustUserID(r)
	err := a.store.SetFCMToken(ctx, uid, token)
	if errors.Is(err, apperr.ErrNotFound) && !a.cfg.AuthRequired && uid == a.cfg.DefaultUserID {
		err = a.store.CreateUser(ctx, &models.User{
			ID:        uid,
			Name:      "Demo User",
			Email:     "demo@example.com",
			FCMToken:  token,
			CreatedAt: a.now().UTC(),
		})
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "fcm token saved", map[string]any{"fcmToken": token})
}

func (a *App) handleTrackUsage(w http.ResponseWriter, r *http.Request) {
	var req trackUsageReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	usage, err := a.logbook.TrackUsage(ctx, mustUserID(r), req.MaterialName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "material usage tracked", map[string]any{"materialUsage": usage})
}

// handleFavoriteMaterials returns the caller's top materials by usage counter.
func (a *App) handleFavoriteMaterials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	favs, err := a.logbook.FavoriteMaterials(ctx, mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "favorite materials", map[string]any{"materials": favs})
}
