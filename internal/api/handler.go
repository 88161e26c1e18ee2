package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"outreach/internal/activity"
	"outreach/internal/campaign"
	"outreach/internal/control"
)

var errInvalidInput = errors.New("invalid input")

type Handler struct {
	surface *control.Surface
	feed    *activity.Feed
}

// NewHandler creates a Handler. feed may be nil, in which case /v1/activity
// reports an empty history.
func NewHandler(surface *control.Surface, feed *activity.Feed) *Handler {
	return &Handler{surface: surface, feed: feed}
}

type deliveryDTO struct {
	Throttle            int    `json:"throttle"`
	SendIntervalSeconds int    `json:"send_interval_seconds"`
	SendWindow          string `json:"send_window"`
}

type campaignDTO struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Status   campaign.Status `json:"status"`
	Contacts int             `json:"contacts"`
	Sent     int             `json:"sent"`
	Opened   int             `json:"opened"`
	Replied  int             `json:"replied"`
	Steps    []campaign.Step `json:"steps"`
	Delivery deliveryDTO     `json:"delivery"`
}

func toCampaignDTO(c campaign.Campaign) campaignDTO {
	steps := c.Steps
	if steps == nil {
		steps = []campaign.Step{}
	}
	return campaignDTO{
		ID: c.ID, Name: c.Name, Status: c.Status,
		Contacts: c.Contacts, Sent: c.Sent, Opened: c.Opened, Replied: c.Replied,
		Steps: steps,
		Delivery: deliveryDTO{
			Throttle:            c.Delivery.Throttle,
			SendIntervalSeconds: int(c.Delivery.SendInterval / time.Second),
			SendWindow:          string(c.Delivery.Window),
		},
	}
}

type createCampaignRequest struct {
	Name     string `json:"name"`
	Contacts int    `json:"contacts"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type launchRequest struct {
	Throttle int `json:"throttle"`
}

type selectRequest struct {
	CampaignID int `json:"campaign_id"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return false
	}
	return true
}

// decodeOptional is decode for endpoints where the body may be absent. A
// chunked request with an empty body counts as absent.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", errInvalidInput, name, raw)
	}
	return v, nil
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	list := h.surface.List()
	resp := make([]campaignDTO, 0, len(list))
	for _, c := range list {
		resp = append(resp, toCampaignDTO(c))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (h *Handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.surface.Create(strings.TrimSpace(req.Name), req.Contacts)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	writeSuccess(w, http.StatusCreated, "", toCampaignDTO(c))
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.surface.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", toCampaignDTO(c))
}

func (h *Handler) addStep(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var step campaign.Step
	if !h.decode(w, r, &step) {
		return
	}
	if err := h.surface.AddStep(id, step); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCampaign(w, r, id, http.StatusCreated)
}

func (h *Handler) removeStep(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	index, err := intParam(r, "index")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.surface.RemoveStep(id, index); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCampaign(w, r, id, http.StatusOK)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	status, err := campaign.ParseStatus(req.Status)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	if err := h.surface.SetStatus(id, status); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCampaign(w, r, id, http.StatusOK)
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.surface.Pause(id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCampaign(w, r, id, http.StatusOK)
}

func (h *Handler) setDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req deliveryDTO
	if !h.decode(w, r, &req) {
		return
	}
	d := campaign.Delivery{
		Throttle:     req.Throttle,
		SendInterval: time.Duration(req.SendIntervalSeconds) * time.Second,
		Window:       campaign.SendWindow(req.SendWindow),
	}
	if err := h.surface.SetDelivery(id, d); err != nil {
		if !errors.Is(err, campaign.ErrCampaignBusy) && !errors.Is(err, campaign.ErrNotFound) {
			err = fmt.Errorf("%w: %v", errInvalidInput, err)
		}
		h.fail(w, r, err)
		return
	}
	h.writeCampaign(w, r, id, http.StatusOK)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.surface.History(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", history)
}

// launch starts a launch. With ?wait=true the request blocks until the
// launch ends and a dropped connection cancels it; otherwise it returns 202
// with the launch snapshot and the launch outlives the request.
func (h *Handler) launch(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "campaign_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req := launchRequest{Throttle: campaign.DefaultThrottle}
	if !h.decodeOptional(w, r, &req) {
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	ctx := context.Background()
	if wait {
		ctx = r.Context()
	}
	handle, err := h.surface.StartLaunch(ctx, id, req.Throttle, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !wait {
		writeSuccess(w, http.StatusAccepted, "launch started", handle.Snapshot())
		return
	}
	if err := handle.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "launched", handle.Snapshot())
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	c, err := h.surface.Current()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", toCampaignDTO(c))
}

func (h *Handler) selectCampaign(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.surface.Select(req.CampaignID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.current(w, r)
}

// launchCurrent launches the selected campaign and blocks until the launch
// ends.
func (h *Handler) launchCurrent(w http.ResponseWriter, r *http.Request) {
	req := launchRequest{Throttle: campaign.DefaultThrottle}
	if !h.decodeOptional(w, r, &req) {
		return
	}
	if err := h.surface.LaunchCurrent(r.Context(), req.Throttle, nil); err != nil {
		h.fail(w, r, err)
		return
	}
	h.current(w, r)
}

func (h *Handler) pauseCurrent(w http.ResponseWriter, r *http.Request) {
	if err := h.surface.PauseCurrent(); err != nil {
		h.fail(w, r, err)
		return
	}
	h.current(w, r)
}

func (h *Handler) listLaunches(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", h.surface.Launches())
}

func (h *Handler) getLaunch(w http.ResponseWriter, r *http.Request) {
	snap, err := h.surface.LaunchStatus(chi.URLParam(r, "launch_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", snap)
}

func (h *Handler) cancelLaunch(w http.ResponseWriter, r *http.Request) {
	launchID := chi.URLParam(r, "launch_id")
	if err := h.surface.CancelLaunch(launchID); err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.surface.LaunchStatus(launchID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "cancel requested", snap)
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	var (
		notices = []any{}
		summary *activity.Summary
	)
	if h.feed != nil {
		for _, n := range h.feed.Notices() {
			notices = append(notices, n)
		}
		summary = h.feed.Summarize()
	} else {
		summary = activity.Summarize(nil, 0)
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"notices":  notices,
		"total":    summary.Total,
		"launched": summary.Launched,
		"failed":   summary.Failed,
		"by_kind":  summary.ByKind,
	})
}

func (h *Handler) writeCampaign(w http.ResponseWriter, r *http.Request, id, status int) {
	c, err := h.surface.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, status, "", toCampaignDTO(c))
}
