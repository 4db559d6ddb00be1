package model

import "slices"

// DistinctIDs returns a sorted copy of ids with duplicates removed.
// The input slice is not modified.
func DistinctIDs(ids []int) []int {
	if len(ids) == 0 {
		return []int{}
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// CategoriesByID indexes categories by their id.
func CategoriesByID(categories []Category) map[int]*Category {
	index := make(map[int]*Category, len(categories))
	for i := range categories {
		index[categories[i].ID] = &categories[i]
	}
	return index
}
