// Package healthprobe checks that the remote success-rate service is
// SERVING before the harness starts sending it traffic, using the grpc.health.v1
// protocol's pre-compiled client stubs rather than a hand-written health RPC.
package healthprobe

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Unhealthy is returned when the service responds but is not SERVING, or
// fails to respond within the given timeout.
type Unhealthy struct {
	Service string
	Status  grpc_health_v1.HealthCheckResponse_ServingStatus
	Cause   error
}

func (e *Unhealthy) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("health check for %q failed: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("health check for %q reports status %s, want SERVING", e.Service, e.Status)
}

func (e *Unhealthy) Unwrap() error { return e.Cause }

// Probe calls grpc.health.v1.Health/Check for service over cc and requires
// a SERVING response within timeout.
func Probe(ctx context.Context, cc *grpc.ClientConn, service string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := grpc_health_v1.NewHealthClient(cc)
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return &Unhealthy{Service: service, Cause: err}
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return &Unhealthy{Service: service, Status: resp.Status}
	}
	return nil
}
