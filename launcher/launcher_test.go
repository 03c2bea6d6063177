package launcher

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProbe_Unreachable(t *testing.T) {
	port := freePort(t)
	if Probe(context.Background(), port, 200*time.Millisecond) {
		t.Fatal("expected Probe to return false on an unused port")
	}
}

func TestProbe_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json/version" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u, err := net.ResolveTCPAddr("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !Probe(context.Background(), u.Port, 500*time.Millisecond) {
		t.Fatal("expected Probe to return true against the test server")
	}
}

func TestLaunch_PortInUseFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := net.ResolveTCPAddr("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, err = Launch(context.Background(), Options{
		Port:         u.Port,
		ProbeTimeout: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected Launch to fail when the port is already serving /json/version")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}
