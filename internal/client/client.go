// Package client implements the ignitekv wire protocol from the caller's
// side: connect, write one request, read one response, close.
package client

import (
	stdErrors "errors"
	"net"

	"github.com/ignitekv/ignitekv/internal/protocol"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
)

// ErrKeyNotFound is returned by Get when the server reports the key is
// absent. It is not a protocol failure — the server answers a miss with
// a plain Success carrying no value — so callers distinguish it from
// every other Get error with errors.Is rather than inspecting a message.
var ErrKeyNotFound = stdErrors.New("client: key not found")

// Get connects to addr, asks for key, and returns its value. It returns
// ErrKeyNotFound, not a wrapped protocol error, when the server has no
// value for key.
func Get(addr, key string) (string, error) {
	resp, err := roundTrip(addr, protocol.NewGetRequest(key))
	if err != nil {
		return "", err
	}
	if !resp.IsOK() {
		return "", ignerrors.NewStorageError(nil, ignerrors.ErrorCodeIO, resp.Message())
	}
	if !resp.Found() {
		return "", ErrKeyNotFound
	}
	return resp.Value(), nil
}

// Set connects to addr and stores value under key.
func Set(addr, key, value string) error {
	resp, err := roundTrip(addr, protocol.NewSetRequest(key, value))
	if err != nil {
		return err
	}
	if !resp.IsOK() {
		return ignerrors.NewStorageError(nil, ignerrors.ErrorCodeIO, resp.Message())
	}
	return nil
}

// Remove connects to addr and deletes key.
func Remove(addr, key string) error {
	resp, err := roundTrip(addr, protocol.NewRemoveRequest(key))
	if err != nil {
		return err
	}
	if !resp.IsOK() {
		return ignerrors.NewIndexError(nil, ignerrors.ErrorCodeIndexKeyNotFound, resp.Message()).WithKey(key)
	}
	return nil
}

func roundTrip(addr string, req protocol.Request) (protocol.Response, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return protocol.Response{}, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to connect to server").WithPath(addr)
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, req); err != nil {
		return protocol.Response{}, ignerrors.NewCodecError(err, ignerrors.ErrorCodeEncodeFailure, "failed to write request")
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return protocol.Response{}, ignerrors.NewCodecError(err, ignerrors.ErrorCodeDecodeFailure, "failed to read response")
	}
	return resp, nil
}
