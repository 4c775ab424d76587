package replenishment

import "strings"

var priorityTags = map[string]PriorityTag{
	"critical": PriorityCritical,
	"reserve":  PriorityReserve,
	"planned":  PriorityReserve,
	"normal":   PriorityNormal,
}

// Classify tags a need. Any urgent deficit is critical regardless of size.
// Tags must be recomputed whenever the planning configuration changes.
func Classify(need NeedResult) PriorityTag {
	switch {
	case need.UrgentDeficit > 0:
		return PriorityCritical
	case need.RecommendedOrder > 0:
		return PriorityReserve
	default:
		return PriorityNormal
	}
}

// ParsePriority returns the tag for a label (case-insensitive); "planned" maps to reserve.
func ParsePriority(label string) (PriorityTag, bool) {
	tag, ok := priorityTags[strings.ToLower(strings.TrimSpace(label))]
	return tag, ok
}

// NeedsAttention reports whether the tag belongs in critical/reserve views.
func (t PriorityTag) NeedsAttention() bool {
	return t == PriorityCritical || t == PriorityReserve
}
