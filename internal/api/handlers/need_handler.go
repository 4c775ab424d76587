package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/service"
	"github.com/gin-gonic/gin"
)

type NeedHandler struct {
	needs    *service.NeedService
	live     *service.Recomputer
	defaults replenishment.PlanningConfig
}

// NewNeedHandler creates the handler. live may be nil when the poller is disabled.
func NewNeedHandler(needs *service.NeedService, live *service.Recomputer, defaults replenishment.PlanningConfig) *NeedHandler {
	return &NeedHandler{needs: needs, live: live, defaults: defaults}
}

// GetHierarchy returns the Priority → Category → Product → Store tree.
func (h *NeedHandler) GetHierarchy(c *gin.Context) {
	cfg, err := planningFromQuery(c, h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}
	mode, err := parseViewMode(c.Query("mode"))
	if err != nil {
		respondError(c, err)
		return
	}

	hierarchy, err := h.needs.GetHierarchy(c.Request.Context(), service.NeedRequest{
		Config: cfg,
		Mode:   mode,
		Filter: filterFromQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, hierarchy)
}

// GetStores lists the stores of the latest snapshot.
func (h *NeedHandler) GetStores(c *gin.Context) {
	stores, err := h.needs.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stores)
}

// GetLive returns the latest result of the background recomputation.
func (h *NeedHandler) GetLive(c *gin.Context) {
	if h.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live recomputation is disabled"})
		return
	}

	latest, ok := h.live.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hierarchy not computed yet"})
		return
	}

	c.JSON(http.StatusOK, latest)
}

type liveConfigRequest struct {
	planningBody
	Mode       string   `json:"mode"`
	StoreIDs   []string `json:"store_ids"`
	ProductIDs []string `json:"product_ids"`
	Categories []string `json:"categories"`
}

// UpdateLiveConfig replaces the live parameters. Any computation still
// running for the old parameters is abandoned.
func (h *NeedHandler) UpdateLiveConfig(c *gin.Context) {
	if h.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live recomputation is disabled"})
		return
	}

	var body liveConfigRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	req, err := body.needRequest(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	generation := h.live.SetParams(req)
	c.JSON(http.StatusAccepted, gin.H{
		"generation": generation,
		"request":    req,
	})
}

func (b liveConfigRequest) needRequest(defaults replenishment.PlanningConfig) (service.NeedRequest, error) {
	cfg, err := b.resolve(defaults)
	if err != nil {
		return service.NeedRequest{}, err
	}
	mode, err := parseViewMode(b.Mode)
	if err != nil {
		return service.NeedRequest{}, err
	}

	req := service.NeedRequest{
		Config: cfg,
		Mode:   mode,
		Filter: domain.SnapshotFilter{
			StoreIDs:   trimAll(b.StoreIDs),
			ProductIDs: trimAll(b.ProductIDs),
			Categories: trimAll(b.Categories),
		},
	}
	return req, req.Validate()
}

type orderRequest struct {
	liveConfigRequest
	StockDate  string                   `json:"stock_date"`
	Selections []service.OrderSelection `json:"selections"`
	CreatedBy  string                   `json:"created_by"`
}

// SubmitOrder stores the selected leaves as a replenishment order.
func (h *NeedHandler) SubmitOrder(c *gin.Context) {
	var body orderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	req, err := body.needRequest(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}
	req.Filter.SnapshotDate = strings.TrimSpace(body.StockDate)

	order, err := h.needs.SubmitOrder(c.Request.Context(), service.OrderRequest{
		NeedRequest: req,
		Selections:  body.Selections,
		CreatedBy:   body.CreatedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
