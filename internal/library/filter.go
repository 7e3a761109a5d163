package library

// GroupFilter specifies criteria for listing groups.
type GroupFilter struct {
	Statuses  []Status // any of
	MediaType *MediaType
	Search    *string // substring of folder name or title
	Limit     int     // 0 = no limit
	Offset    int
}

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	GroupID  *int64
	IDs      []int64
	Statuses []Status
	Limit    int
	Offset   int
}
