package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"

	"golang.org/x/crypto/bcrypt"
)

func viewOf(u *models.User) userView {
	return userView{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
}

// handleRegister creates a new user with bcrypt-hashed password.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "name, email, password are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.store.CreateUser(ctx, &u); err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "user registered", map[string]any{"user": viewOf(&u)})
}

// handleLogin verifies credentials and returns a JWT token.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "email and password are required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, apperr.ErrNotFound) {
		fail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		fail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, err := signJWT(a.cfg.JWTSecret, u, a.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "login successful", tokenResp{Token: tok, User: viewOf(u)})
}

// handleVerify checks the Bearer token and returns its user.
func (a *App) handleVerify(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		fail(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	uid, err := parseJWT(a.cfg.JWTSecret, strings.TrimPrefix(authz, "Bearer "), a.now)
	if err != nil {
		fail(w, http.StatusUnauthorized, "token expired or invalid")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.store.GetUser(ctx, uid)
	if errors.Is(err, apperr.ErrNotFound) {
		fail(w, http.StatusUnauthorized, "token expired or invalid")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "token valid", map[string]any{"user": viewOf(u)})
}

// handleMe returns the caller's profile.
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.store.GetUser(ctx, mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "current user", map[string]any{"user": viewOf(u)})
}
