// Package srpc defines the SuccessRateCalculator gRPC service contract:
// request/response shapes matching the proto definitions, plus the three
// RPCs the remote success-rate aggregator exposes. Messages are marshaled
// with a small JSON codec registered against grpc rather than generated
// descriptors; the aggregator accepts both framings and the JSON codec
// keeps the client free of a protoc build step.
package srpc

// SpecificityLevel is the server-side aggregation granularity.
type SpecificityLevel int32

const (
	SpecificityEntity SpecificityLevel = iota
	SpecificityGlobal
)

// LabelWithScore is one connector's computed success-rate score.
type LabelWithScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LabelWithStatus reports one connector's observed outcome for a window
// update.
type LabelWithStatus struct {
	Label  string `json:"label"`
	Status bool   `json:"status"`
}

// CalSuccessRateConfig is the wire config for FetchSuccessRate.
type CalSuccessRateConfig struct {
	MinAggregatesSize  uint32           `json:"min_aggregates_size"`
	DefaultSuccessRate float64          `json:"default_success_rate"`
	SpecificityLevel   SpecificityLevel `json:"specificity_level"`
}

// CalSuccessRateRequest requests a score per label for the given id/params.
type CalSuccessRateRequest struct {
	ID     string               `json:"id"`
	Params string               `json:"params"`
	Labels []string             `json:"labels"`
	Config CalSuccessRateConfig `json:"config"`
}

// CalSuccessRateResponse is the scored label list.
type CalSuccessRateResponse struct {
	LabelsWithScore []LabelWithScore `json:"labels_with_score"`
}

// CurrentBlockThreshold bounds how many outcomes accumulate in the current
// aggregation block before it rolls over.
type CurrentBlockThreshold struct {
	DurationInMins uint64 `json:"duration_in_mins,omitempty"`
	MaxTotalCount  uint64 `json:"max_total_count"`
}

// UpdateSuccessRateWindowConfig is the wire config for
// UpdateSuccessRateWindow.
type UpdateSuccessRateWindowConfig struct {
	MaxAggregatesSize     uint32                 `json:"max_aggregates_size"`
	CurrentBlockThreshold *CurrentBlockThreshold `json:"current_block_threshold,omitempty"`
}

// UpdateSuccessRateWindowRequest pushes one connector's outcome into the
// aggregator's window.
type UpdateSuccessRateWindowRequest struct {
	ID                     string                        `json:"id"`
	Params                 string                        `json:"params"`
	LabelsWithStatus       []LabelWithStatus             `json:"labels_with_status"`
	GlobalLabelsWithStatus []LabelWithStatus             `json:"global_labels_with_status"`
	Config                 UpdateSuccessRateWindowConfig `json:"config"`
}

// UpdateSuccessRateWindowResponse is an empty acknowledgement.
type UpdateSuccessRateWindowResponse struct{}

// InvalidateWindowsRequest clears the aggregator's server-side state for id.
type InvalidateWindowsRequest struct {
	ID string `json:"id"`
}

// InvalidateWindowsResponse is an empty acknowledgement.
type InvalidateWindowsResponse struct{}
