package rankingservice

import (
	"time"

	"coderanker/api/dto"
	"coderanker/pkg/database/models"
)

// State is a step of a single user refresh.
type State string

const (
	StateIdle                 State = "idle"
	StateFetchingProviderData State = "fetching_provider_data"
	StateScoring              State = "scoring"
	StatePersisted            State = "persisted"
	StateReranking            State = "reranking"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// RefreshRequest asks for a refresh of the given providers of a user.
type RefreshRequest struct {
	UserID           string
	GithubUsername   string
	LeetcodeUsername string
	Type             models.RefreshType

	// Run a full re-rank once the scores are persisted.
	ReRank bool
}

// RefreshResult is the outcome of a refresh, provider failures are reported here and not as errors.
type RefreshResult struct {
	UserID   string
	Type     models.RefreshType
	Status   models.RefreshStatus
	State    State
	States   []State
	Scores   *models.Scores
	Failures []dto.ProviderFailure
	Duration time.Duration

	// Filled by RefreshAndRank.
	PreviousRank int
	Entry        *models.RankEntry
	ReRanked     int
}

func newRefreshResult(req RefreshRequest) *RefreshResult {
	return &RefreshResult{
		UserID: req.UserID,
		Type:   req.Type,
		State:  StateIdle,
		States: []State{StateIdle},
	}
}

func (r *RefreshResult) advance(state State) {
	r.State = state
	r.States = append(r.States, state)
}

// Persisted reports whether new scores were stored by the refresh.
func (r *RefreshResult) Persisted() bool {
	return r.Scores != nil
}

// Response converts the result into the client representation.
func (r *RefreshResult) Response() *dto.RefreshResponse {
	response := &dto.RefreshResponse{
		UserID:     r.UserID,
		Type:       r.Type,
		Status:     r.Status,
		Scores:     r.Scores,
		Failures:   r.Failures,
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Entry != nil {
		response.Rank = r.Entry.Rank
		response.RankChange = r.Entry.RankChange
	}
	return response
}
