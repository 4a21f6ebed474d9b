package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
)

func (a *App) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	mats, err := a.logbook.ListMaterials(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "data retrieved", map[string]any{"materials": mats})
}

func (a *App) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var m models.Material
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.logbook.CreateMaterial(ctx, &m); err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "material created", map[string]any{"material": m})
}

func (a *App) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var m models.Material
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.logbook.UpdateMaterial(ctx, id, &m); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "material updated", map[string]any{"material": m})
}

func (a *App) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	m, err := a.logbook.DeleteMaterial(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "material deleted", map[string]any{"material": m})
}

// handleMaterialByBarcode looks a material up by its scanned barcode.
func (a *App) handleMaterialByBarcode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	m, err := a.logbook.MaterialByBarcode(ctx, pathParam(r, "barcode"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "material found", map[string]any{"material": barcodeView{
		Name: m.Name, Supplier: m.Supplier, Barcode: m.Barcode, Unit: m.Unit,
	}})
}

func (a *App) handleSuggestedMaterials(w http.ResponseWriter, r *http.Request) {
	seasonID, err := pathID(r, "seasonId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sugg, err := a.logbook.SuggestedMaterials(ctx, mustUserID(r), seasonID, pathParam(r, "taskName"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "suggested materials", map[string]any{"suggestedMaterials": sugg})
}

// handleLoggedFavorites tallies the materials of the caller's logs.
func (a *App) handleLoggedFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	favs, err := a.logbook.LoggedFavorites(ctx, mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "favorite materials", map[string]any{"favorites": favs})
}
