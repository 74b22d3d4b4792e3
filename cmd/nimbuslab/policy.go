package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nimbuslab/routing-lab/internal/config"
	"github.com/nimbuslab/routing-lab/internal/healthprobe"
	"github.com/nimbuslab/routing-lab/internal/routing"
	"github.com/nimbuslab/routing-lab/internal/srclient"
	"github.com/nimbuslab/routing-lab/internal/srpc"
)

// srConn is returned alongside a remote-SR policy so the caller can close
// the underlying connection when the run ends.
type srConn struct {
	cc *grpc.ClientConn
}

func (s *srConn) Close() error {
	if s == nil || s.cc == nil {
		return nil
	}
	return s.cc.Close()
}

// resolveSRAddress locates the remote success-rate service from flags,
// falling back to SR_HOST/SR_PORT env vars and finally the package
// defaults.
func resolveSRAddress() string {
	host := srHost
	if host == "" {
		host = os.Getenv("SR_HOST")
	}
	if host == "" {
		host = config.DefaultSRHost
	}
	port := srPort
	if port == "" {
		port = os.Getenv("SR_PORT")
	}
	if port == "" {
		port = config.DefaultSRPort
	}
	return fmt.Sprintf("%s:%s", host, port)
}

// newRNG builds the process-wide random source. seed == 0 picks a
// time-based seed so default runs aren't deterministic; an explicit
// non-zero seed makes the whole harness reproducible.
func newRNG() *rand.Rand {
	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(s))
}

// buildPolicy constructs the named routing policy. For "remote-sr" it also
// dials the remote success-rate service, probes its health, and returns
// the connection so the caller can close it at shutdown; for the other
// three policies srConn is nil.
func buildPolicy(ctx context.Context, name string, rng *rand.Rand) (routing.Policy, *srConn, error) {
	switch name {
	case "straight":
		return routing.NewStraightThrough(rng), nil, nil
	case "ucb":
		d := config.DefaultUCB()
		return routing.NewSlidingWindowUCB(d.WindowSize, d.Exploration), nil, nil
	case "thompson":
		d := config.DefaultThompson()
		return routing.NewThompsonSampling(d.Gamma, rng), nil, nil
	case "remote-sr":
		return buildRemoteSR(ctx, rng)
	default:
		return nil, nil, fmt.Errorf("unknown policy %q: want one of thompson, ucb, straight, remote-sr", name)
	}
}

func buildRemoteSR(ctx context.Context, rng *rand.Rand) (routing.Policy, *srConn, error) {
	addr := resolveSRAddress()
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dialing success-rate service at %s: %w", addr, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, config.DefaultHealthCheckTimeout)
	defer cancel()
	if err := healthprobe.Probe(probeCtx, cc, "success_rate.SuccessRateCalculator", config.DefaultHealthCheckTimeout); err != nil {
		_ = cc.Close()
		return nil, nil, fmt.Errorf("success-rate service health check failed: %w", err)
	}

	d := config.DefaultRemoteSR()
	minAgg, maxAgg, defaultRate := d.MinAggregatesSize, d.MaxAggregatesSize, d.DefaultSuccessRate
	cfg := srclient.SuccessBasedRoutingConfig{
		MinAggregatesSize:  &minAgg,
		MaxAggregatesSize:  &maxAgg,
		DefaultSuccessRate: &defaultRate,
		SpecificityLevel:   srclient.SpecificityMerchant,
	}
	headers := srclient.Headers{TenantID: tenantID, RequestID: requestID}

	client := srclient.New(srpc.NewClient(cc))
	fallback := routing.NewStraightThrough(rng)
	policy := routing.NewRemoteSR(client, cfg, headers, fallback, rootLogger())

	return policy, &srConn{cc: cc}, nil
}
