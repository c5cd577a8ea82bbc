// internal/models/simulation.go
package models

import "time"

// Decision is a single MP's vote outcome.
type Decision string

const (
	DecisionFor     Decision = "FOR"
	DecisionAgainst Decision = "AGAINST"
	DecisionAbstain Decision = "ABSTAIN"
	DecisionAbsent  Decision = "ABSENT"
)

// JobStatus is the lifecycle state of a simulation job.
// Terminal states (complete, error) never transition again.
type JobStatus string

const (
	StatusPending  JobStatus = "pending"
	StatusRunning  JobStatus = "running"
	StatusComplete JobStatus = "complete"
	StatusError    JobStatus = "error"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// BillInput describes the hypothetical bill a simulation runs against.
// Immutable once submitted.
type BillInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	BillType    string   `json:"billType,omitempty"`
	Initiators  []string `json:"initiators,omitempty"`
}

// FeatureContribution is a named numeric contribution to a prediction.
type FeatureContribution struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PredictionResponse is the oracle's verdict for a single MP.
type PredictionResponse struct {
	Slug         string                `json:"slug"`
	Name         string                `json:"name,omitempty"`
	PartyCode    string                `json:"partyCode,omitempty"`
	Prediction   Decision              `json:"prediction"`
	Confidence   float64               `json:"confidence"`
	Features     []FeatureContribution `json:"features,omitempty"`
	Explanation  string                `json:"explanation,omitempty"`
	ModelVersion string                `json:"modelVersion"`
}

// Summary is the aggregate outcome derived from a job's predictions.
type Summary struct {
	For              int    `json:"for"`
	Against          int    `json:"against"`
	Abstain          int    `json:"abstain"`
	Absent           int    `json:"absent"`
	PredictedOutcome string `json:"predictedOutcome"`
}

// Progress tracks how far a running simulation has gotten.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// SimulationJob is the lifecycle record for one simulation request.
// Predictions and Summary are set together, exactly once, at the
// transition into the complete state.
type SimulationJob struct {
	ID          string               `json:"id"`
	Bill        BillInput            `json:"bill"`
	Status      JobStatus            `json:"status"`
	Progress    *Progress            `json:"progress,omitempty"`
	Predictions []PredictionResponse `json:"predictions,omitempty"`
	Summary     *Summary             `json:"summary,omitempty"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Member is one active member of parliament from the roster.
type Member struct {
	MemberUUID string `json:"memberUuid"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	PartyCode  string `json:"partyCode"`
	Faction    string `json:"faction,omitempty"`
}
