package serial

import "errors"

var (
	// ErrNotConnected indicates an operation that requires an established
	// connection was attempted without one.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected indicates Connect was called on a client that is
	// already connected.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrUnexpectedFrame indicates the server answered with a frame the
	// client did not expect at that point of the exchange.
	ErrUnexpectedFrame = errors.New("unexpected frame")
	// ErrClientExists indicates a client is already registered in the hub
	// under the given name.
	ErrClientExists = errors.New("client already exists")
)
