package replenishment

import (
	"sort"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/domain"
)

// UncategorizedLabel names the category of products without one.
const UncategorizedLabel = "Uncategorized"

// StoreNeed is a leaf of the hierarchy: one product in one store.
type StoreNeed struct {
	StoreID   string      `json:"store_id"`
	StoreName string      `json:"store_name"`
	Priority  PriorityTag `json:"priority"`
	Need      NeedResult  `json:"need"`
	Sources   int         `json:"sources"` // snapshot rows merged into this leaf
}

// ProductNode groups the store needs of one product.
type ProductNode struct {
	ProductID    string      `json:"product_id"`
	ProductName  string      `json:"product_name"`
	Category     string      `json:"category"`
	Total        int         `json:"total"`
	UrgentTotal  int         `json:"urgent_total"`
	PlannedTotal int         `json:"planned_total"`
	Stores       []StoreNeed `json:"stores"`
}

// CategoryNode groups products of one category inside a priority.
type CategoryNode struct {
	Name        string         `json:"name"`
	Total       int            `json:"total"`
	UrgentTotal int            `json:"urgent_total"`
	Products    []*ProductNode `json:"products"`
}

// PriorityGroup is the top level of the hierarchy.
type PriorityGroup struct {
	Priority    PriorityTag     `json:"priority"`
	Total       int             `json:"total"`
	UrgentTotal int             `json:"urgent_total"`
	Categories  []*CategoryNode `json:"categories"`
}

// ProductStock is the whole-network stock position of a product,
// computed over every snapshot row regardless of priority or visibility.
type ProductStock struct {
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	Category         string  `json:"category"`
	TotalStock       float64 `json:"total_stock"`
	StoreCount       int     `json:"store_count"`
	TotalRecommended int     `json:"total_recommended"`
}

// Hierarchy is the Priority → Category → Product → Store view of a snapshot.
type Hierarchy struct {
	Config       PlanningConfig   `json:"config"`
	Mode         ViewMode         `json:"mode"`
	Groups       []*PriorityGroup `json:"groups"`
	NetworkStock []ProductStock   `json:"network_stock"`
}

// Group returns the group for tag, or nil when absent.
func (h *Hierarchy) Group(tag PriorityTag) *PriorityGroup {
	for _, g := range h.Groups {
		if g.Priority == tag {
			return g
		}
	}
	return nil
}

// Lookup finds the leaf for a product in a store among the attention groups.
func (h *Hierarchy) Lookup(productID, storeID string) (*ProductNode, StoreNeed, bool) {
	for _, g := range h.Groups {
		for _, c := range g.Categories {
			for _, p := range c.Products {
				if p.ProductID != productID {
					continue
				}
				for _, s := range p.Stores {
					if s.StoreID == storeID {
						return p, s, true
					}
				}
			}
		}
	}
	return nil, StoreNeed{}, false
}

type leafKey struct {
	product string
	store   string
}

type mergedRow struct {
	record  domain.InventoryRecord
	need    NeedResult
	sources int
}

// Aggregate computes needs for every snapshot row and folds them into a hierarchy.
// Rows for the same product and store are summed, never de-duplicated.
func Aggregate(records []domain.InventoryRecord, cfg PlanningConfig, mode ViewMode) *Hierarchy {
	rows := mergeRows(records, cfg)

	h := &Hierarchy{
		Config:       cfg,
		Mode:         mode,
		NetworkStock: networkStock(rows),
	}

	groups := map[PriorityTag]*PriorityGroup{
		PriorityReserve: {Priority: PriorityReserve, Categories: []*CategoryNode{}},
	}
	categories := make(map[PriorityTag]map[string]*CategoryNode)
	products := make(map[PriorityTag]map[string]*ProductNode)

	for _, row := range rows {
		tag := Classify(row.need)
		if !tag.NeedsAttention() || !Visible(row.need, mode, cfg) {
			continue
		}

		g, ok := groups[tag]
		if !ok {
			g = &PriorityGroup{Priority: tag}
			groups[tag] = g
		}
		if categories[tag] == nil {
			categories[tag] = make(map[string]*CategoryNode)
			products[tag] = make(map[string]*ProductNode)
		}

		catName := categoryName(row.record.Category)
		cat, ok := categories[tag][catName]
		if !ok {
			cat = &CategoryNode{Name: catName}
			categories[tag][catName] = cat
			g.Categories = append(g.Categories, cat)
		}

		prod, ok := products[tag][row.record.ProductID]
		if !ok {
			prod = &ProductNode{
				ProductID:   row.record.ProductID,
				ProductName: row.record.ProductName,
				Category:    catName,
			}
			products[tag][row.record.ProductID] = prod
			cat.Products = append(cat.Products, prod)
		}

		prod.Stores = append(prod.Stores, StoreNeed{
			StoreID:   row.record.StoreID,
			StoreName: row.record.StoreName,
			Priority:  tag,
			Need:      row.need,
			Sources:   row.sources,
		})
		prod.Total += row.need.RecommendedOrder
		prod.UrgentTotal += row.need.UrgentDeficit
		prod.PlannedTotal += row.need.PlannedOrder
	}

	for _, tag := range []PriorityTag{PriorityCritical, PriorityReserve} {
		g, ok := groups[tag]
		if !ok {
			continue
		}
		for _, cat := range g.Categories {
			for _, p := range cat.Products {
				sortStores(p.Stores)
				cat.Total += p.Total
				cat.UrgentTotal += p.UrgentTotal
			}
			sortProducts(cat.Products)
			g.Total += cat.Total
			g.UrgentTotal += cat.UrgentTotal
		}
		sortCategories(g.Categories)
		h.Groups = append(h.Groups, g)
	}

	return h
}

// NeedsByProductStore computes one need per product and store, summing
// duplicate snapshot rows the same way Aggregate does. Order follows the
// first occurrence of each pair.
func NeedsByProductStore(records []domain.InventoryRecord, cfg PlanningConfig) []NeedResult {
	rows := mergeRows(records, cfg)
	needs := make([]NeedResult, len(rows))
	for i, row := range rows {
		needs[i] = row.need
	}
	return needs
}

func mergeRows(records []domain.InventoryRecord, cfg PlanningConfig) []*mergedRow {
	index := make(map[leafKey]*mergedRow, len(records))
	rows := make([]*mergedRow, 0, len(records))

	for _, r := range records {
		need := CalculateNeed(StoreStateFromRecord(r), cfg)
		key := leafKey{product: r.ProductID, store: r.StoreID}

		existing, ok := index[key]
		if !ok {
			row := &mergedRow{record: r, need: need, sources: 1}
			index[key] = row
			rows = append(rows, row)
			continue
		}

		existing.sources++
		existing.need = sumNeeds(existing.need, need)
		if existing.record.Category == "" {
			existing.record.Category = r.Category
		}
		if existing.record.ProductName == "" {
			existing.record.ProductName = r.ProductName
		}
	}

	return rows
}

func sumNeeds(a, b NeedResult) NeedResult {
	a.State.AvgSalesPerDay += b.State.AvgSalesPerDay
	a.State.CurrentStock += b.State.CurrentStock
	a.State.MinStock += b.State.MinStock
	a.Target += b.Target
	a.BufferTarget += b.BufferTarget
	a.UrgentDeficit += b.UrgentDeficit
	a.PlannedOrder += b.PlannedOrder
	a.RecommendedOrder = a.UrgentDeficit + a.PlannedOrder
	return a
}

func networkStock(rows []*mergedRow) []ProductStock {
	index := make(map[string]int)
	var out []ProductStock

	for _, row := range rows {
		i, ok := index[row.record.ProductID]
		if !ok {
			i = len(out)
			index[row.record.ProductID] = i
			out = append(out, ProductStock{
				ProductID:   row.record.ProductID,
				ProductName: row.record.ProductName,
				Category:    categoryName(row.record.Category),
			})
		}
		out[i].TotalStock += row.need.State.CurrentStock
		out[i].StoreCount++
		out[i].TotalRecommended += row.need.RecommendedOrder
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ProductID < out[j].ProductID
	})

	return out
}

func categoryName(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return UncategorizedLabel
	}
	return c
}

func sortCategories(cats []*CategoryNode) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Total != cats[j].Total {
			return cats[i].Total > cats[j].Total
		}
		return cats[i].Name < cats[j].Name
	})
}

func sortProducts(products []*ProductNode) {
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductID < b.ProductID
	})
}

func sortStores(stores []StoreNeed) {
	sort.Slice(stores, func(i, j int) bool {
		a, b := stores[i], stores[j]
		if a.Need.RecommendedOrder != b.Need.RecommendedOrder {
			return a.Need.RecommendedOrder > b.Need.RecommendedOrder
		}
		return a.StoreID < b.StoreID
	})
}
