package api

// CheckResponse is the response for a capability check.
type CheckResponse struct {
	Allowed    bool   `json:"allowed" description:"Whether the capability is held"`
	Decision   string `json:"decision" description:"Decision code (allow, deny)"`
	Reason     string `json:"reason,omitempty" description:"Machine-readable deny reason"`
	Procedure  string `json:"procedure" description:"Decision procedure that ran"`
	EvalTimeNs int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// PurgeDecisionsResponse reports how many entries were removed.
type PurgeDecisionsResponse struct {
	Purged int64 `json:"purged" description:"Number of entries deleted"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
