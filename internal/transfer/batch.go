package transfer

import (
	"github.com/sentient-soup/reelname/internal/library"
)

// ExpandGroups returns jobIDs followed by every confirmed job of each listed
// group, without duplicates. Returns ErrNothingToTransfer if the result is
// empty.
func ExpandGroups(store *library.Store, groupIDs, jobIDs []int64) ([]int64, error) {
	seen := make(map[int64]bool)
	var out []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range jobIDs {
		add(id)
	}
	for _, gid := range groupIDs {
		jobs, _, err := store.ListJobs(library.JobFilter{
			GroupID:  &gid,
			Statuses: []library.Status{library.StatusConfirmed},
		})
		if err != nil {
			return nil, err
		}
		for _, j := range jobs {
			add(j.ID)
		}
	}
	if len(out) == 0 {
		return nil, ErrNothingToTransfer
	}
	return out, nil
}
