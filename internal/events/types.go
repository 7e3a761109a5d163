package events

// Entity types
const (
	EntityScan  = "scan"
	EntityGroup = "group"
	EntityJob   = "job"
	EntityBatch = "batch"
)

// Event type constants
const (
	EventScanCompleted      = "scan.completed"
	EventGroupMatched       = "group.matched"
	EventGroupAmbiguous     = "group.ambiguous"
	EventMatchCompleted     = "match.completed"
	EventTransferQueued     = "transfer.queued"
	EventTransferProgressed = "transfer.progressed"
	EventTransferFinished   = "transfer.finished"
)

// Transient events are delivered to subscribers but not written to the log.
type Transient interface {
	Transient() bool
}

// ScanCompleted is emitted after an ingest pass over the scan root.
type ScanCompleted struct {
	BaseEvent
	Root          string `json:"root"`
	GroupsAdded   int    `json:"groups_added"`
	JobsAdded     int    `json:"jobs_added"`
	GroupsSkipped int    `json:"groups_skipped"`
}

// GroupMatched is emitted when a group is auto-matched to a catalog entry.
type GroupMatched struct {
	BaseEvent
	GroupID    int64   `json:"group_id"`
	TMDBID     int64   `json:"tmdb_id"`
	Title      string  `json:"title"`
	MediaType  string  `json:"media_type"`
	Confidence float64 `json:"confidence"`
}

// GroupAmbiguous is emitted when a group needs a human to pick its match.
type GroupAmbiguous struct {
	BaseEvent
	GroupID    int64   `json:"group_id"`
	Candidates int     `json:"candidates"`
	TopScore   float64 `json:"top_score"`
	Reason     string  `json:"reason,omitempty"`
}

// MatchCompleted summarizes a batch match pass.
type MatchCompleted struct {
	BaseEvent
	Matched   int `json:"matched"`
	Ambiguous int `json:"ambiguous"`
}

// TransferQueued is emitted when a batch of jobs is handed to the scheduler.
type TransferQueued struct {
	BaseEvent
	BatchID       string  `json:"batch_id"`
	DestinationID int64   `json:"destination_id"`
	JobIDs        []int64 `json:"job_ids"`
}

// TransferProgressed reports the state of one job in a batch. Status is
// "transferring" while bytes are moving and "completed" or "failed" once.
type TransferProgressed struct {
	BaseEvent
	BatchID          string  `json:"batch_id"`
	JobID            int64   `json:"job_id"`
	BytesTransferred int64   `json:"bytes_transferred"`
	TotalBytes       int64   `json:"total_bytes"`
	Progress         float64 `json:"progress"`
	Status           string  `json:"status"`
	Error            string  `json:"error,omitempty"`
	DestinationPath  string  `json:"destination_path,omitempty"`
}

// Transient keeps in-flight progress out of the event log.
func (e *TransferProgressed) Transient() bool {
	return e.Status == "transferring"
}

// TransferFinished summarizes a batch once every job has settled.
type TransferFinished struct {
	BaseEvent
	BatchID   string `json:"batch_id"`
	Queued    int    `json:"queued"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}
