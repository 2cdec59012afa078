package bus

import (
	"fmt"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer runs an in-process NATS server. main starts one to back the
// wake-up bus when NATS_URL is unset, and tests use one so the wake-up path
// can be exercised without an external broker.
type EmbeddedServer struct {
	server *server.Server
	url    string
}

// StartEmbeddedServer starts an embedded NATS server on a random port.
func StartEmbeddedServer() (*EmbeddedServer, error) {
	opts := &server.Options{
		Host: "127.0.0.1",
		Port: -1,
	}
	s, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded nats server: %w", err)
	}
	go s.Start()
	if !s.ReadyForConnections(5e9) {
		return nil, fmt.Errorf("embedded nats server not ready")
	}
	return &EmbeddedServer{server: s, url: s.ClientURL()}, nil
}

// URL returns the connection URL for the embedded server.
func (e *EmbeddedServer) URL() string { return e.url }

// Shutdown stops the embedded server and waits for it to exit.
func (e *EmbeddedServer) Shutdown() {
	e.server.Shutdown()
	e.server.WaitForShutdown()
}
