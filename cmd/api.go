package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/tonasket-wiki/directory-cli/internal/dedup"
	"github.com/tonasket-wiki/directory-cli/internal/directory"
	"github.com/tonasket-wiki/directory-cli/internal/enrich"
	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

// newRouter builds the HTTP API. The refresh endpoint runs in the
// background against baseCtx so a client disconnect does not abandon a
// half-finished refresh.
func newRouter(baseCtx context.Context, env *appEnv, defaultLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/businesses", handleSubmit(env))
		r.Get("/businesses/{id}", handleGetBusiness(env))
		r.Get("/enrichment/{zip}", handleGetSnapshot(env, defaultLimit))
		r.Post("/enrichment/{zip}/refresh", handleRefresh(baseCtx, env, defaultLimit))
	})

	return r
}

func handleSubmit(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in directory.Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sub, err := env.Service.Submit(r.Context(), in)
		if err != nil {
			var verr *normalize.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
					"error": verr.Error(),
					"field": verr.Field,
				})
				return
			}
			var derr *dedup.DuplicateError
			if errors.As(err, &derr) {
				writeJSON(w, http.StatusConflict, map[string]string{
					"error":       derr.Error(),
					"rule":        string(derr.Rule),
					"existing_id": derr.ExistingID,
				})
				return
			}
			zap.L().Error("submission failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, sub)
	}
}

// businessResponse adds the national display form of the phone number
// to the stored record.
type businessResponse struct {
	*model.Business
	PhoneDisplay string `json:"phone_display,omitempty"`
}

func handleGetBusiness(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := env.Service.GetBusiness(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("business lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if b == nil {
			writeError(w, http.StatusNotFound, "business not found")
			return
		}

		resp := businessResponse{Business: b}
		if b.Phone != "" {
			resp.PhoneDisplay = normalize.FormatPhone(b.Phone)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetSnapshot(env *appEnv, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := snapshotParams(r, defaultLimit)

		snap, err := env.Store.GetSnapshot(r.Context(), model.SnapshotKey(p.Zip, p.Limit, p.ActiveOnly))
		if err != nil {
			zap.L().Error("snapshot lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if snap == nil {
			writeError(w, http.StatusNotFound, "no snapshot for these parameters")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleRefresh(baseCtx context.Context, env *appEnv, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := snapshotParams(r, defaultLimit)

		go func() {
			snap, err := env.Refresher.Refresh(baseCtx, p)
			if err != nil {
				zap.L().Error("background refresh failed",
					zap.String("zip", p.Zip),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("background refresh complete",
				zap.String("zip", p.Zip),
				zap.Int("enriched", snap.Enriched),
				zap.Int("failed", snap.Failed),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{
			"status": "accepted",
			"zip":    p.Zip,
			"limit":  p.Limit,
		})
	}
}

func snapshotParams(r *http.Request, defaultLimit int) enrich.Params {
	p := enrich.Params{
		Zip:   chi.URLParam(r, "zip"),
		Limit: defaultLimit,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	p.ActiveOnly = r.URL.Query().Get("active_only") == "true"
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
