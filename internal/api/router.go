// Package api exposes the control surface over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Route("/v1", func(r chi.Router) {
		r.Get("/campaigns", handler.listCampaigns)
		r.Post("/campaigns", handler.createCampaign)
		r.Get("/campaigns/{campaign_id}", handler.getCampaign)
		r.Post("/campaigns/{campaign_id}/steps", handler.addStep)
		r.Delete("/campaigns/{campaign_id}/steps/{index}", handler.removeStep)
		r.Put("/campaigns/{campaign_id}/status", handler.setStatus)
		r.Post("/campaigns/{campaign_id}/pause", handler.pause)
		r.Put("/campaigns/{campaign_id}/delivery", handler.setDelivery)
		r.Get("/campaigns/{campaign_id}/history", handler.history)
		r.Post("/campaigns/{campaign_id}/launch", handler.launch)

		r.Get("/selection", handler.current)
		r.Put("/selection", handler.selectCampaign)
		r.Post("/selection/launch", handler.launchCurrent)
		r.Post("/selection/pause", handler.pauseCurrent)

		r.Get("/launches", handler.listLaunches)
		r.Get("/launches/{launch_id}", handler.getLaunch)
		r.Delete("/launches/{launch_id}", handler.cancelLaunch)

		r.Get("/activity", handler.activity)
	})
	return r
}
