package accounts

import "sort"

func sortByUsername(vs []View) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Username < vs[j].Username })
}
