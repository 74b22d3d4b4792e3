package srpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName          = "success_rate.SuccessRateCalculator"
	methodFetch          = "/" + serviceName + "/FetchSuccessRate"
	methodUpdateWindow   = "/" + serviceName + "/UpdateSuccessRateWindow"
	methodInvalidateWins = "/" + serviceName + "/InvalidateWindows"
)

// Client is a thin wrapper over a grpc.ClientConn exposing the three
// SuccessRateCalculator RPCs. Headers are expected to already be attached
// to ctx (via grpc/metadata) by the caller; see internal/srclient.
type Client struct {
	cc *grpc.ClientConn
}

// NewClient wraps an established connection to the SR service.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

func callOpts() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(codecName)}
}

// FetchSuccessRate invokes FetchSuccessRate and returns the scored labels.
func (c *Client) FetchSuccessRate(ctx context.Context, req *CalSuccessRateRequest) (*CalSuccessRateResponse, error) {
	resp := &CalSuccessRateResponse{}
	if err := c.cc.Invoke(ctx, methodFetch, req, resp, callOpts()...); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateSuccessRateWindow pushes one outcome into the aggregator's window.
func (c *Client) UpdateSuccessRateWindow(ctx context.Context, req *UpdateSuccessRateWindowRequest) (*UpdateSuccessRateWindowResponse, error) {
	resp := &UpdateSuccessRateWindowResponse{}
	if err := c.cc.Invoke(ctx, methodUpdateWindow, req, resp, callOpts()...); err != nil {
		return nil, err
	}
	return resp, nil
}

// InvalidateWindows clears the aggregator's server-side state for id.
func (c *Client) InvalidateWindows(ctx context.Context, req *InvalidateWindowsRequest) (*InvalidateWindowsResponse, error) {
	resp := &InvalidateWindowsResponse{}
	if err := c.cc.Invoke(ctx, methodInvalidateWins, req, resp, callOpts()...); err != nil {
		return nil, err
	}
	return resp, nil
}
