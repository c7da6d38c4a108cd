package server

import (
	"net"
	"testing"

	"github.com/ignitekv/ignitekv/internal/protocol"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/logger"
)

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Get(key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", ignerrors.NewKeyNotFoundError(key)
	}
	return v, nil
}

func (m *memStore) Remove(key string) error {
	if _, ok := m.data[key]; !ok {
		return ignerrors.NewKeyNotFoundError(key)
	}
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func startTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	srv, err := New(&Config{Addr: "127.0.0.1:0", Store: newMemStore(), Logger: logger.New("test")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	return srv, func() {
		srv.Close()
		<-done
	}
}

func roundTrip(t *testing.T, addr string, req protocol.Request) protocol.Response {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	return resp
}

func TestServeHandlesSetGetRemoveSequentially(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	if resp := roundTrip(t, srv.Addr(), protocol.NewSetRequest("k", "v")); !resp.IsOK() {
		t.Fatalf("Set failed: %+v", resp)
	}

	resp := roundTrip(t, srv.Addr(), protocol.NewGetRequest("k"))
	if !resp.IsOK() || resp.Value() != "v" {
		t.Fatalf("Get got %+v, want success value %q", resp, "v")
	}

	if resp := roundTrip(t, srv.Addr(), protocol.NewRemoveRequest("k")); !resp.IsOK() {
		t.Fatalf("Remove failed: %+v", resp)
	}

	resp = roundTrip(t, srv.Addr(), protocol.NewGetRequest("k"))
	if !resp.IsOK() || resp.Found() {
		t.Fatalf("expected a valueless success after Remove, got %+v", resp)
	}
}

func TestServeGetMissIsSuccessNotFailure(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	resp := roundTrip(t, srv.Addr(), protocol.NewGetRequest("never-set"))
	if !resp.IsOK() || resp.Found() {
		t.Fatalf("expected valueless success for a missing key, got %+v", resp)
	}
}

func TestServeGetHitWithEmptyValueIsDistinctFromMiss(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	if resp := roundTrip(t, srv.Addr(), protocol.NewSetRequest("empty", "")); !resp.IsOK() {
		t.Fatalf("Set failed: %+v", resp)
	}

	resp := roundTrip(t, srv.Addr(), protocol.NewGetRequest("empty"))
	if !resp.IsOK() || !resp.Found() || resp.Value() != "" {
		t.Fatalf("expected a found empty-string value, got %+v", resp)
	}
}

func TestServeOneRequestPerConnection(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, protocol.NewSetRequest("a", "1")); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if _, err := protocol.ReadResponse(conn); err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}

	// The server closes the connection after one request; a second write
	// on the same connection must not be answered.
	if err := protocol.WriteRequest(conn, protocol.NewGetRequest("a")); err == nil {
		if _, err := protocol.ReadResponse(conn); err == nil {
			t.Fatalf("expected connection to be closed after the first request")
		}
	}
}

func TestServeClosesCleanlyOnClose(t *testing.T) {
	srv, err := New(&Config{Addr: "127.0.0.1:0", Store: newMemStore(), Logger: logger.New("test")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve returned error after Close: %v", err)
	}
}
