// Package common holds container fixtures shared by storage integration tests.
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	surrealImage = "surrealdb/surrealdb:v3.0.0"
	surrealPort  = "8000/tcp"
)

// SurrealDBContainer is a running SurrealDB reachable from the test process.
type SurrealDBContainer struct {
	container testcontainers.Container
	address   string
}

// fixture is the process-wide container, started at most once.
type fixture struct {
	once sync.Once
	sc   *SurrealDBContainer
	err  error
}

var shared fixture

// get starts the container with launch on first use and caches the outcome.
// A panic from the Docker provider (no socket, rootless lookup failure) is
// kept as an error so every caller can skip.
func (f *fixture) get(launch func(context.Context) (*SurrealDBContainer, error)) (*SurrealDBContainer, error) {
	f.once.Do(func() {
		f.sc, f.err = recoverLaunch(launch)
	})
	return f.sc, f.err
}

func recoverLaunch(launch func(context.Context) (*SurrealDBContainer, error)) (sc *SurrealDBContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			sc, err = nil, fmt.Errorf("docker provider: %v", r)
		}
	}()
	return launch(context.Background())
}

// StartSurrealDB returns the shared SurrealDB container, skipping the test
// when Docker cannot run it.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()

	sc, err := shared.get(launchSurrealDB)
	if err != nil {
		t.Skipf("SurrealDB container unavailable: %v", err)
	}
	return sc
}

func launchSurrealDB(ctx context.Context) (*SurrealDBContainer, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        surrealImage,
			ExposedPorts: []string{surrealPort},
			Cmd:          []string{"start", "--user", "root", "--pass", "root"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(surrealPort),
				wait.ForLog("Started web server"),
			).WithDeadline(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", surrealImage, err)
	}

	endpoint, err := c.PortEndpoint(ctx, surrealPort, "ws")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("resolve %s endpoint: %w", surrealPort, err)
	}
	return &SurrealDBContainer{container: c, address: endpoint + "/rpc"}, nil
}

// Address returns the WebSocket RPC address.
func (c *SurrealDBContainer) Address() string {
	return c.address
}

// Cleanup terminates the container.
func (c *SurrealDBContainer) Cleanup() {
	if c != nil && c.container != nil {
		_ = c.container.Terminate(context.Background())
	}
}
