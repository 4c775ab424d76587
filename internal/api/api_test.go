package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/service"
	"github.com/gin-gonic/gin"
)

type stubInventory struct {
	records []domain.InventoryRecord
}

func (s *stubInventory) ListSnapshot(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	for _, r := range s.records {
		if len(filter.ProductIDs) > 0 && !in(filter.ProductIDs, r.ProductID) {
			continue
		}
		if len(filter.StoreIDs) > 0 && !in(filter.StoreIDs, r.StoreID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *stubInventory) ListStores(ctx context.Context) ([]domain.Store, error) {
	seen := make(map[string]bool)
	var stores []domain.Store
	for _, r := range s.records {
		if !seen[r.StoreID] {
			seen[r.StoreID] = true
			stores = append(stores, domain.Store{ID: r.StoreID, Name: r.StoreName})
		}
	}
	return stores, nil
}

func (s *stubInventory) LatestSnapshotDate(ctx context.Context) (string, error) {
	return "2024-05-01", nil
}

func in(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

type stubOrders struct{ saved int }

func (s *stubOrders) SaveOrder(ctx context.Context, order *domain.ReplenishmentOrder) error {
	s.saved++
	return nil
}

type stubAllocations struct {
	commits map[string]*domain.AllocationCommit
}

func (s *stubAllocations) CommitAllocation(ctx context.Context, commit *domain.AllocationCommit) error {
	if _, ok := s.commits[commit.ID]; ok {
		return domain.ErrAlreadyCommitted
	}
	s.commits[commit.ID] = commit
	return nil
}

func (s *stubAllocations) GetAllocation(ctx context.Context, id string) (*domain.AllocationCommit, error) {
	c, ok := s.commits[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func row(productID, storeID string, avg, stock, min float64) domain.InventoryRecord {
	return domain.InventoryRecord{
		SnapshotDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ProductID:      productID,
		ProductName:    "Product " + productID,
		Category:       "Bakery",
		StoreID:        storeID,
		StoreName:      "Store " + storeID,
		AvgSalesPerDay: avg,
		CurrentStock:   stock,
		MinStock:       min,
	}
}

type testEnv struct {
	router *gin.Engine
	orders *stubOrders
	allocs *stubAllocations
	live   *service.Recomputer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inv := &stubInventory{records: []domain.InventoryRecord{
		row("P1", "S1", 10, 5, 12),
		row("P1", "S2", 4, 30, 2),
		row("P2", "S1", 2, 9, 0),
	}}
	orders := &stubOrders{}
	allocs := &stubAllocations{commits: make(map[string]*domain.AllocationCommit)}

	planning := replenishment.PlanningConfig{PlanningDays: 3, BufferDays: 2, BufferMode: replenishment.BufferSalesEquivalent}
	distribution := planning
	distribution.BufferMode = replenishment.BufferMinStock

	needs := service.NewNeedService(inv, orders, nil)
	live := service.NewRecomputer(needs.Compute, service.NeedRequest{Config: planning, Mode: replenishment.ViewAllStores})
	t.Cleanup(live.Close)

	router := NewRouter(&Services{
		NeedService:          needs,
		DistributionService:  service.NewDistributionService(inv, allocs),
		Live:                 live,
		PlanningDefaults:     planning,
		DistributionDefaults: distribution,
	}, []string{"*"})

	return &testEnv{router: router, orders: orders, allocs: allocs, live: live}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestGetStores(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/stores", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var list service.StoreList
	decode(t, w, &list)
	if list.SnapshotDate != "2024-05-01" || len(list.Stores) != 2 {
		t.Fatalf("unexpected store list %+v", list)
	}
}

func TestGetHierarchy(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/needs/hierarchy", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var h replenishment.Hierarchy
	decode(t, w, &h)
	if h.Config.PlanningDays != 3 || h.Mode != replenishment.ViewAllStores {
		t.Fatalf("expected defaults to apply, got %+v %q", h.Config, h.Mode)
	}
	critical := h.Group(replenishment.PriorityCritical)
	if critical == nil || critical.Total != 45 {
		t.Fatalf("unexpected critical group: %+v", critical)
	}
}

func TestGetHierarchyQueryParameters(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/needs/hierarchy?planning_days=1&buffer_days=0&mode=single-store&store_ids=S1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var h replenishment.Hierarchy
	decode(t, w, &h)
	if h.Config.PlanningDays != 1 || h.Mode != replenishment.ViewSingleStore {
		t.Fatalf("expected query parameters to apply, got %+v %q", h.Config, h.Mode)
	}
	if h.Group(replenishment.PriorityCritical) != nil {
		t.Fatal("expected no critical group without a buffer")
	}
}

func TestGetHierarchyBadParameters(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{
		"planning_days=abc",
		"planning_days=0",
		"buffer_days=-1",
		"buffer_mode=weekly",
		"mode=grid",
		"mode=single-store",
	} {
		w := env.do(t, http.MethodGet, "/api/v1/needs/hierarchy?"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestSubmitOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"selections": []map[string]string{{"product_id": "P1", "store_id": "S1"}},
		"created_by": "planner",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var order domain.ReplenishmentOrder
	decode(t, w, &order)
	if len(order.Lines) != 1 || order.Lines[0].RecommendedQty != 45 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if env.orders.saved != 1 {
		t.Fatalf("expected one saved order, got %d", env.orders.saved)
	}

	w = env.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{"selections": []interface{}{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty selection, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"selections": []map[string]string{{"product_id": "P1", "store_id": "S2"}},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a leaf without need, got %d", w.Code)
	}
}

func TestDistributionPreviewAndCommit(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/distributions/preview", map[string]interface{}{
		"product_id":        "P1",
		"produced_quantity": 20,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var preview service.DistributionPreview
	decode(t, w, &preview)
	if preview.Config.BufferMode != replenishment.BufferMinStock {
		t.Fatalf("expected distribution default buffer mode, got %q", preview.Config.BufferMode)
	}
	if preview.Result.Allocated() != 20 {
		t.Fatalf("expected 20 units allocated, got %d", preview.Result.Allocated())
	}

	lines := make([]map[string]interface{}, 0, len(preview.Result.Lines))
	for _, l := range preview.Result.Lines {
		lines = append(lines, map[string]interface{}{"store_id": l.StoreID, "store_name": l.StoreName, "quantity": l.Total})
	}

	w = env.do(t, http.MethodPost, "/api/v1/distributions", map[string]interface{}{
		"product_id":        "P1",
		"produced_quantity": 20,
		"lines":             lines,
		"committed_by":      "ops",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var commit domain.AllocationCommit
	decode(t, w, &commit)
	if commit.Total() != 20 {
		t.Fatalf("expected committed total 20, got %d", commit.Total())
	}

	w = env.do(t, http.MethodGet, "/api/v1/distributions/"+commit.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/v1/distributions/00000000-0000-0000-0000-000000000000", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDistributionCommitMismatch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/distributions", map[string]interface{}{
		"product_id":        "P1",
		"produced_quantity": 20,
		"lines":             []map[string]interface{}{{"store_id": "S1", "quantity": 19}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body map[string]string
	decode(t, w, &body)
	if body["error"] == "" || body["details"] == "" {
		t.Fatalf("expected error and details, got %v", body)
	}
	if len(env.allocs.commits) != 0 {
		t.Fatal("expected nothing committed")
	}

	w = env.do(t, http.MethodPost, "/api/v1/distributions", map[string]interface{}{"product_id": "P1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without produced_quantity, got %d", w.Code)
	}
}

func TestDistributionCommitResubmission(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]interface{}{
		"id":                "3d5e9b7a-1c2f-4e8d-a6b0-9f4c8e2d1a57",
		"product_id":        "P1",
		"produced_quantity": 20,
		"lines":             []map[string]interface{}{{"store_id": "S1", "quantity": 20}},
	}

	w := env.do(t, http.MethodPost, "/api/v1/distributions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/v1/distributions", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on resubmission, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.allocs.commits) != 1 {
		t.Fatalf("expected 1 stored commit, got %d", len(env.allocs.commits))
	}

	body["id"] = "not-a-uuid"
	w = env.do(t, http.MethodPost, "/api/v1/distributions", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestLiveHierarchy(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/needs/live", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the first run, got %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/v1/needs/live/config", map[string]interface{}{"planning_days": 5})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var accepted struct {
		Generation uint64 `json:"generation"`
	}
	decode(t, w, &accepted)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := env.live.Wait(ctx, accepted.Generation); err != nil {
		t.Fatalf("wait: %v", err)
	}

	w = env.do(t, http.MethodGet, "/api/v1/needs/live", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var live service.LiveHierarchy
	decode(t, w, &live)
	if live.Request.Config.PlanningDays != 5 || live.Hierarchy == nil {
		t.Fatalf("unexpected live hierarchy: %+v", live)
	}

	w = env.do(t, http.MethodPut, "/api/v1/needs/live/config", map[string]interface{}{"buffer_mode": "weekly"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid live config, got %d", w.Code)
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	parsed, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	if all || len(parsed) != 2 {
		t.Fatalf("unexpected result: %v %v", parsed, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Fatal("expected wildcard to allow all origins")
	}
}
