// Package srclient is the typed façade over the remote success-rate
// service: it translates the harness's SuccessBasedRoutingConfig into the
// two wire configs internal/srpc expects, stringifies the sampled context
// into the aggregator's params format, injects tenant/request headers, and
// exposes Calculate/Update/Invalidate.
package srclient

import (
	"context"
	"fmt"
	"unicode/utf8"

	"google.golang.org/grpc/metadata"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/srpc"
)

// SpecificityLevel is the specificity the harness configures; it is
// translated to srpc.SpecificityLevel at the RPC boundary.
type SpecificityLevel string

const (
	SpecificityMerchant SpecificityLevel = "merchant"
	SpecificityGlobal   SpecificityLevel = "global"
)

// MissingField is returned by config translation when a required field is
// absent from a SuccessBasedRoutingConfig.
type MissingField struct {
	Name string
}

func (e *MissingField) Error() string {
	return fmt.Sprintf("missing required field %q for success-based routing config", e.Name)
}

// CurrentBlockThreshold bounds the current aggregation block.
type CurrentBlockThreshold struct {
	DurationInMins *uint64
	MaxTotalCount  *uint64
}

// SuccessBasedRoutingConfig is the harness-facing config; fields are
// optional pointers so MissingField can be raised precisely.
type SuccessBasedRoutingConfig struct {
	MinAggregatesSize     *uint32
	DefaultSuccessRate    *float64
	MaxAggregatesSize     *uint32
	CurrentBlockThreshold *CurrentBlockThreshold
	SpecificityLevel      SpecificityLevel
}

// Headers are attached to every outbound call as gRPC metadata. Values that
// are not valid UTF-8 are silently dropped rather than failing the call.
type Headers struct {
	TenantID  string
	RequestID string
}

func (h Headers) attach(ctx context.Context) context.Context {
	md := metadata.MD{}
	if utf8.ValidString(h.TenantID) && h.TenantID != "" {
		md.Set("x-tenant-id", h.TenantID)
	}
	if h.RequestID != "" && utf8.ValidString(h.RequestID) {
		md.Set("x-request-id", h.RequestID)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// Client wraps internal/srpc's transport client with the config
// translation and header injection the remote aggregator expects.
type Client struct {
	rpc *srpc.Client
}

// New wraps an srpc.Client for use by the remote-SR routing policy.
func New(rpc *srpc.Client) *Client {
	return &Client{rpc: rpc}
}

// BuildParams stringifies ctx the way the aggregator expects:
// "id:<payment_methods>:<payment_method_type>:<currency>" when the type is
// present, else "id:<payment_methods>:<currency>".
func BuildParams(ctx model.Context) string {
	pm := ctx["payment_methods"]
	currency := ctx["currency"]
	if pmt, ok := ctx["payment_method_type"]; ok {
		return fmt.Sprintf("id:%s:%s:%s", pm, pmt, currency)
	}
	return fmt.Sprintf("id:%s:%s", pm, currency)
}

func toCalculateConfig(cfg SuccessBasedRoutingConfig) (srpc.CalSuccessRateConfig, error) {
	if cfg.MinAggregatesSize == nil {
		return srpc.CalSuccessRateConfig{}, &MissingField{Name: "min_aggregates_size"}
	}
	if cfg.DefaultSuccessRate == nil {
		return srpc.CalSuccessRateConfig{}, &MissingField{Name: "default_success_rate"}
	}

	level := srpc.SpecificityEntity
	if cfg.SpecificityLevel == SpecificityGlobal {
		level = srpc.SpecificityGlobal
	}

	return srpc.CalSuccessRateConfig{
		MinAggregatesSize:  *cfg.MinAggregatesSize,
		DefaultSuccessRate: *cfg.DefaultSuccessRate,
		SpecificityLevel:   level,
	}, nil
}

func toUpdateConfig(cfg SuccessBasedRoutingConfig) (srpc.UpdateSuccessRateWindowConfig, error) {
	if cfg.MaxAggregatesSize == nil {
		return srpc.UpdateSuccessRateWindowConfig{}, &MissingField{Name: "max_aggregates_size"}
	}

	wire := srpc.UpdateSuccessRateWindowConfig{MaxAggregatesSize: *cfg.MaxAggregatesSize}
	if cfg.CurrentBlockThreshold != nil {
		if cfg.CurrentBlockThreshold.MaxTotalCount == nil {
			return srpc.UpdateSuccessRateWindowConfig{}, &MissingField{Name: "max_total_count"}
		}
		threshold := &srpc.CurrentBlockThreshold{MaxTotalCount: *cfg.CurrentBlockThreshold.MaxTotalCount}
		if cfg.CurrentBlockThreshold.DurationInMins != nil {
			threshold.DurationInMins = *cfg.CurrentBlockThreshold.DurationInMins
		}
		wire.CurrentBlockThreshold = threshold
	}
	return wire, nil
}

// Calculate fetches a success-rate score per connector label.
func (c *Client) Calculate(ctx context.Context, id string, cfg SuccessBasedRoutingConfig, params string, connectors []model.Key, headers Headers) (*srpc.CalSuccessRateResponse, error) {
	wireCfg, err := toCalculateConfig(cfg)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(connectors))
	for i, k := range connectors {
		labels[i] = string(k)
	}

	return c.rpc.FetchSuccessRate(headers.attach(ctx), &srpc.CalSuccessRateRequest{
		ID:     id,
		Params: params,
		Labels: labels,
		Config: wireCfg,
	})
}

// Update pushes one connector's observed outcome into the aggregator's
// window.
func (c *Client) Update(ctx context.Context, id string, cfg SuccessBasedRoutingConfig, params string, connector model.Key, outcome model.Outcome, headers Headers) (*srpc.UpdateSuccessRateWindowResponse, error) {
	wireCfg, err := toUpdateConfig(cfg)
	if err != nil {
		return nil, err
	}

	status := []srpc.LabelWithStatus{{Label: string(connector), Status: outcome.IsSuccess()}}
	return c.rpc.UpdateSuccessRateWindow(headers.attach(ctx), &srpc.UpdateSuccessRateWindowRequest{
		ID:                     id,
		Params:                 params,
		LabelsWithStatus:       status,
		GlobalLabelsWithStatus: status,
		Config:                 wireCfg,
	})
}

// Invalidate clears the aggregator's server-side state for id.
func (c *Client) Invalidate(ctx context.Context, id string, headers Headers) error {
	_, err := c.rpc.InvalidateWindows(headers.attach(ctx), &srpc.InvalidateWindowsRequest{ID: id})
	return err
}

// HighestScoreLabel returns the label with the numerically greatest score,
// treating NaN as equal and breaking ties by first-in-iteration.
func HighestScoreLabel(scores []srpc.LabelWithScore) (string, bool) {
	if len(scores) == 0 {
		return "", false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Label, true
}
