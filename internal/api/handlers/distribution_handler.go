package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/service"
	"github.com/gin-gonic/gin"
)

type DistributionHandler struct {
	service  *service.DistributionService
	defaults replenishment.PlanningConfig
}

func NewDistributionHandler(service *service.DistributionService, defaults replenishment.PlanningConfig) *DistributionHandler {
	return &DistributionHandler{service: service, defaults: defaults}
}

type previewRequest struct {
	planningBody
	ProductID        string   `json:"product_id" binding:"required"`
	ProducedQuantity *int     `json:"produced_quantity" binding:"required"`
	StoreIDs         []string `json:"store_ids"`
	StockDate        string   `json:"stock_date"`
}

// Preview proposes an allocation for a produced batch.
func (h *DistributionHandler) Preview(c *gin.Context) {
	var body previewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	cfg, err := body.resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), service.PreviewRequest{
		ProductID:        strings.TrimSpace(body.ProductID),
		ProducedQuantity: *body.ProducedQuantity,
		StoreIDs:         trimAll(body.StoreIDs),
		SnapshotDate:     strings.TrimSpace(body.StockDate),
		Config:           cfg,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

type commitRequest struct {
	planningBody
	ID               string                        `json:"id"`
	ProductID        string                        `json:"product_id" binding:"required"`
	ProducedQuantity *int                          `json:"produced_quantity" binding:"required"`
	Lines            []domain.AllocationCommitLine `json:"lines"`
	CommittedBy      string                        `json:"committed_by"`
}

// Commit stores the operator-confirmed allocation.
func (h *DistributionHandler) Commit(c *gin.Context) {
	var body commitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	cfg, err := body.resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	commit, err := h.service.Commit(c.Request.Context(), service.CommitRequest{
		ID:               strings.TrimSpace(body.ID),
		ProductID:        strings.TrimSpace(body.ProductID),
		ProducedQuantity: *body.ProducedQuantity,
		Config:           cfg,
		Lines:            body.Lines,
		CommittedBy:      body.CommittedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, commit)
}

// Get returns a committed allocation by id.
func (h *DistributionHandler) Get(c *gin.Context) {
	commit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, commit)
}
