package contract

// Request and response bodies of the HTTP API.

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeCycle             ErrorCode = "CYCLE"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeLocked            ErrorCode = "PROJECT_LOCKED"
	ErrCodeValidation        ErrorCode = "VALIDATION"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return string(e.Code) + ": " + e.Message
}

type SetLineRequest struct {
	Quantity  *float64 `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
}

type SetProgressRequest struct {
	Progress *float64 `json:"progress"`
}

// SetParentRequest attaches a node under Parent; an empty Parent detaches it.
type SetParentRequest struct {
	Parent string `json:"parent"`
}

// SnapshotView maps node ids to their aggregates. Root is empty for a
// whole-forest snapshot.
type SnapshotView struct {
	ProjectID string             `json:"project_id"`
	Root      string             `json:"root,omitempty"`
	Values    map[string]float64 `json:"values"`
}

type BOQItemView struct {
	ID         string  `json:"id"`
	Seq        int     `json:"seq"`
	ParentID   string  `json:"parent_id,omitempty"`
	Code       string  `json:"code,omitempty"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit,omitempty"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

type TaskView struct {
	ID              string  `json:"id"`
	Seq             int     `json:"seq"`
	ParentID        string  `json:"parent_id,omitempty"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	LeafProgress    float64 `json:"leaf_progress"`
	ProgressPercent float64 `json:"progress_percent"`
}
