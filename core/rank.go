package core

import (
	"sort"

	"github.com/farmsight/farmsight/schema"
)

// rankStatuses sorts statuses by urgency in descending order and returns the
// top 'limit' entries. If limit is greater than the number of statuses, all
// of them are returned in sorted order.
func rankStatuses(statuses []schema.MemberStatus, limit int) []schema.MemberStatus {
	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Urgency() > statuses[j].Urgency()
	})
	if len(statuses) > limit {
		return statuses[:limit]
	}
	return statuses
}
