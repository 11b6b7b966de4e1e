package syncer

import "time"

var nowFunc = time.Now // mockable

// SyncResult is the per-stage outcome of one paginated sync call: how many
// items were upserted plus every non-fatal error encountered on the way.
// Created fresh per call, returned to the caller, never persisted.
type SyncResult struct {
	Success    bool      `json:"success"`
	Synced     int       `json:"synced"`
	Errors     []string  `json:"errors"`
	LastSyncAt time.Time `json:"last_sync_at"`
}

func newResult() SyncResult {
	return SyncResult{Errors: []string{}}
}

func (r *SyncResult) addError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

// finish stamps the result. Success means the stage completed with zero
// errors; a stage that completed but skipped items reports Success=false
// with the skips listed, so callers can tell full from partial success.
func (r *SyncResult) finish() SyncResult {
	r.LastSyncAt = nowFunc().UTC()
	r.Success = len(r.Errors) == 0
	return *r
}

// FullSyncResult aggregates one full run: one result for the course sync,
// one per course for coursework, one per coursework item for submissions.
// Each paginated call is independently fallible, hence a list rather than
// one rolled-up result.
type FullSyncResult struct {
	Courses     SyncResult   `json:"courses"`
	Coursework  []SyncResult `json:"coursework"`
	Submissions []SyncResult `json:"submissions"`
}
