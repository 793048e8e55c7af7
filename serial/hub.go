package serial

import (
	"context"
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// Hub is a registry of HDLC clients for multi-drop setups, where many
// meters sit behind one head-end and are addressed individually. Clients
// are keyed by a caller-chosen name, typically the meter identifier.
//
// Hub is safe for concurrent use. It does not serialize the clients
// themselves; each Client handles its own locking.
type Hub struct {
	clients *xsync.MapOf[string, *Client]
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: xsync.NewMapOf[string, *Client]()}
}

// Register adds an existing client under the given name. It returns
// ErrClientExists when the name is already taken.
func (h *Hub) Register(name string, client *Client) error {
	if _, loaded := h.clients.LoadOrStore(name, client); loaded {
		return fmt.Errorf("%w: %q", ErrClientExists, name)
	}

	return nil
}

// Dial creates a client from the configuration, connects it, and registers
// it under the given name. The name is reserved before dialing so two
// concurrent Dial calls for the same name cannot both connect.
func (h *Hub) Dial(ctx context.Context, name string, cfg *ConnectionConfig) (*Client, error) {
	client := NewClient(cfg)

	if err := h.Register(name, client); err != nil {
		return nil, err
	}

	if err := client.Connect(ctx); err != nil {
		h.clients.Delete(name)

		return nil, err
	}

	return client, nil
}

// Get returns the client registered under the given name.
func (h *Hub) Get(name string) (*Client, bool) {
	return h.clients.Load(name)
}

// Remove unregisters and returns the client under the given name. The
// client is not disconnected; that is left to the caller.
func (h *Hub) Remove(name string) (*Client, bool) {
	return h.clients.LoadAndDelete(name)
}

// Range calls fn for each registered client until fn returns false.
func (h *Hub) Range(fn func(name string, client *Client) bool) {
	h.clients.Range(fn)
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	return h.clients.Size()
}

// CloseAll disconnects and unregisters every client. Connected clients get
// the DISC/UA exchange; disconnected ones are just dropped. It returns the
// joined errors of all failed disconnects.
func (h *Hub) CloseAll(ctx context.Context) error {
	var errs []error

	h.clients.Range(func(name string, client *Client) bool {
		h.clients.Delete(name)

		if !client.IsConnected() {
			return true
		}

		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}

		return true
	})

	return errors.Join(errs...)
}
