package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type PreviewRequest struct {
	ProductID        string                       `json:"product_id"`
	ProducedQuantity int                          `json:"produced_quantity"`
	StoreIDs         []string                     `json:"store_ids"` // empty means every store carrying the product
	SnapshotDate     string                       `json:"snapshot_date"`
	Config           replenishment.PlanningConfig `json:"config"`
}

// DistributionPreview is a proposed allocation. Nothing is stored until the
// operator commits the (possibly edited) lines.
type DistributionPreview struct {
	ProductID    string                           `json:"product_id"`
	ProductName  string                           `json:"product_name"`
	SnapshotDate string                           `json:"snapshot_date"`
	Config       replenishment.PlanningConfig     `json:"config"`
	Needs        []replenishment.NeedResult       `json:"needs"`
	Result       replenishment.DistributionResult `json:"result"`
}

// CommitRequest carries an operator-confirmed allocation. A non-empty ID must be
// a UUID; committing the same ID twice fails with domain.ErrAlreadyCommitted.
type CommitRequest struct {
	ID               string                        `json:"id"`
	ProductID        string                        `json:"product_id"`
	ProducedQuantity int                           `json:"produced_quantity"`
	Config           replenishment.PlanningConfig  `json:"config"`
	Lines            []domain.AllocationCommitLine `json:"lines"`
	CommittedBy      string                        `json:"committed_by"`
}

type DistributionService struct {
	inventory   repository.InventoryRepository
	allocations repository.AllocationRepository
	now         func() time.Time
}

func NewDistributionService(inventory repository.InventoryRepository, allocations repository.AllocationRepository) *DistributionService {
	return &DistributionService{
		inventory:   inventory,
		allocations: allocations,
		now:         time.Now,
	}
}

// Preview loads the product's stores from the snapshot and runs the distributor.
func (s *DistributionService) Preview(ctx context.Context, req PreviewRequest) (*DistributionPreview, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidConfig)
	}
	if req.ProducedQuantity < 0 {
		return nil, fmt.Errorf("%w: produced quantity must not be negative, got %d", domain.ErrInvalidConfig, req.ProducedQuantity)
	}

	records, err := s.inventory.ListSnapshot(ctx, domain.SnapshotFilter{
		ProductIDs:   []string{req.ProductID},
		StoreIDs:     req.StoreIDs,
		SnapshotDate: req.SnapshotDate,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("product %s: %w", req.ProductID, domain.ErrNotFound)
	}

	needs := replenishment.NeedsByProductStore(records, req.Config)
	if missing := missingStores(req.StoreIDs, needs); len(missing) > 0 {
		return nil, fmt.Errorf("product %s not stocked in stores %s: %w", req.ProductID, strings.Join(missing, ","), domain.ErrNotFound)
	}

	preview := &DistributionPreview{
		ProductID:    req.ProductID,
		ProductName:  records[0].ProductName,
		SnapshotDate: records[0].SnapshotDate.Format("2006-01-02"),
		Config:       req.Config,
		Needs:        needs,
		Result:       replenishment.Distribute(req.ProducedQuantity, replenishment.DistributionStoresFromNeeds(needs)),
	}

	if preview.Result.CriticalShortfall {
		log.Warn().
			Str("product_id", req.ProductID).
			Int("produced", req.ProducedQuantity).
			Int("critical_need", preview.Result.CriticalNeed).
			Msg("produced quantity does not cover critical need")
	}

	return preview, nil
}

// Commit stores operator-confirmed lines exactly as given. The distributor
// is not run again.
func (s *DistributionService) Commit(ctx context.Context, req CommitRequest) (*domain.AllocationCommit, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidConfig)
	}
	if len(req.Lines) == 0 {
		return nil, domain.ErrEmptySelection
	}
	if err := validateLines(req.ProducedQuantity, req.Lines); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: allocation id %q is not a uuid", domain.ErrInvalidConfig, req.ID)
		}
		id = parsed.String()
	}

	commit := &domain.AllocationCommit{
		ID:               id,
		ProductID:        req.ProductID,
		ProducedQuantity: req.ProducedQuantity,
		PlanningDays:     req.Config.PlanningDays,
		BufferDays:       req.Config.BufferDays,
		BufferMode:       string(req.Config.BufferMode),
		CommittedBy:      req.CommittedBy,
		CommittedAt:      s.now().UTC(),
		Lines:            make([]domain.AllocationCommitLine, len(req.Lines)),
	}
	for i, l := range req.Lines {
		l.AllocationID = commit.ID
		commit.Lines[i] = l
	}

	if err := s.allocations.CommitAllocation(ctx, commit); err != nil {
		return nil, err
	}

	log.Info().
		Str("allocation_id", commit.ID).
		Str("product_id", commit.ProductID).
		Int("produced", commit.ProducedQuantity).
		Int("stores", len(commit.Lines)).
		Msg("allocation committed")

	return commit, nil
}

func (s *DistributionService) Get(ctx context.Context, id string) (*domain.AllocationCommit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("allocation %s: %w", id, domain.ErrNotFound)
	}
	return s.allocations.GetAllocation(ctx, id)
}

func validateLines(produced int, lines []domain.AllocationCommitLine) error {
	if produced < 0 {
		return fmt.Errorf("%w: produced quantity must not be negative", domain.ErrAllocationMismatch)
	}
	seen := make(map[string]bool, len(lines))
	total := 0
	for _, l := range lines {
		if l.StoreID == "" {
			return fmt.Errorf("%w: line without store id", domain.ErrAllocationMismatch)
		}
		if seen[l.StoreID] {
			return fmt.Errorf("%w: store %s listed twice", domain.ErrAllocationMismatch, l.StoreID)
		}
		seen[l.StoreID] = true
		if l.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity for store %s", domain.ErrAllocationMismatch, l.StoreID)
		}
		total += l.Quantity
	}
	if total != produced {
		return fmt.Errorf("%w: lines sum to %d, produced %d", domain.ErrAllocationMismatch, total, produced)
	}
	return nil
}

func missingStores(requested []string, needs []replenishment.NeedResult) []string {
	have := make(map[string]bool, len(needs))
	for _, n := range needs {
		have[n.State.StoreID] = true
	}
	var missing []string
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
