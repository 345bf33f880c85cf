package similarity

import "sort"

// RelatedMesh links every member of a similarity group to every other member.
// Groups smaller than two produce no links.
func RelatedMesh(memberIDs []string) map[string][]string {
	mesh := make(map[string][]string, len(memberIDs))
	if len(memberIDs) < 2 {
		return mesh
	}

	for _, id := range memberIDs {
		others := make([]string, 0, len(memberIDs)-1)
		for _, other := range memberIDs {
			if other != id {
				others = append(others, other)
			}
		}
		mesh[id] = others
	}
	return mesh
}

// Group is a set of items sharing one fingerprint
type Group[T any] struct {
	Fingerprint string
	Items       []T
}

// GroupBy buckets items by fingerprint, keeping the input order inside each
// bucket and ordering buckets by first appearance.
func GroupBy[T any](items []T, fingerprint func(T) string) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]

	for _, item := range items {
		fp := fingerprint(item)
		i, ok := index[fp]
		if !ok {
			i = len(groups)
			index[fp] = i
			groups = append(groups, Group[T]{Fingerprint: fp})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	// Larger groups first; stable keeps first-appearance order among equals
	sort.SliceStable(groups, func(a, b int) bool {
		return len(groups[a].Items) > len(groups[b].Items)
	})

	return groups
}
