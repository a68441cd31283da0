package service

// ProgressStage names a point in a matching run.
type ProgressStage string

const (
	StageStrategy  ProgressStage = "strategy"
	StageFetched   ProgressStage = "fetched"
	StageScored    ProgressStage = "scored"
	StageEnriching ProgressStage = "enriching"
	StageEnriched  ProgressStage = "enriched"
	StageRanked    ProgressStage = "ranked"
	StageComplete  ProgressStage = "complete"
)

// ProgressEvent describes one step of a run for callers that display progress.
type ProgressEvent struct {
	Stage       ProgressStage `json:"stage"`
	Strategy    string        `json:"strategy,omitempty"`
	CandidateID string        `json:"candidate_id,omitempty"`
	Done        int           `json:"done"`
	Total       int           `json:"total"`
	Score       float64       `json:"score,omitempty"`
	Err         error         `json:"-"`
}

// ProgressFunc receives progress events. It is called from the goroutine
// that owns the run, never concurrently.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) emit(e ProgressEvent) {
	if f != nil {
		f(e)
	}
}
