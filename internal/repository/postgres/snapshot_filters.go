package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/lib/pq"
)

// buildSnapshotFilterClause constructs the WHERE tail for inventory snapshot queries.
// Without a snapshot date the latest ingested date is used.
func buildSnapshotFilterClause(filter domain.SnapshotFilter, alias string, startIndex int) (string, []interface{}) {
	alias = normalizeAlias(alias)

	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if filter.SnapshotDate != "" {
		clauses = append(clauses, fmt.Sprintf("%ssnapshot_date = $%d::date", alias, idx))
		args = append(args, filter.SnapshotDate)
		idx++
	} else {
		clauses = append(clauses, fmt.Sprintf("%ssnapshot_date = (SELECT MAX(snapshot_date) FROM inventory_snapshot)", alias))
	}

	if len(filter.ProductIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("%sproduct_id = ANY($%d::text[])", alias, idx))
		args = append(args, pq.Array(filter.ProductIDs))
		idx++
	}

	if len(filter.StoreIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("%sstore_id = ANY($%d::text[])", alias, idx))
		args = append(args, pq.Array(filter.StoreIDs))
		idx++
	}

	if len(filter.Categories) > 0 {
		clauses = append(clauses, fmt.Sprintf("%scategory = ANY($%d::text[])", alias, idx))
		args = append(args, pq.Array(filter.Categories))
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
