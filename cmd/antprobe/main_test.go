package main

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"antprobe/internal/cache"
	"antprobe/internal/config"
	"antprobe/internal/metric"
	"antprobe/internal/miner"
)

// serveOnce accepts one connection, sends raw and closes, the way a
// miner terminates its reply.
func serveOnce(t *testing.T, raw string) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		_, _ = conn.Write([]byte(raw))
	}()

	return "127.0.0.1", ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a local port nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestRun_ExitPaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		metric    metric.Metric
		raw       string // empty means no listener: connection refused
		wantValue string
		wantCode  int
	}{
		{
			name:      "success prints the value",
			metric:    metric.Speed,
			raw:       `{"SUMMARY":[{"GHS 5s":"123.45"}]}` + "\x00",
			wantValue: "123.45",
			wantCode:  0,
		},
		{
			name:      "network failure prints the default and fails",
			metric:    metric.Speed,
			wantValue: metric.DefaultValue,
			wantCode:  1,
		},
		{
			name:      "unparseable reply prints the default and fails",
			metric:    metric.Speed,
			raw:       "not json at all",
			wantValue: metric.DefaultValue,
			wantCode:  1,
		},
		{
			name:      "aggregation failure is absorbed",
			metric:    metric.ChipTemp,
			raw:       `{"STATS":[{},{}]}` + "\x00",
			wantValue: metric.DefaultValue,
			wantCode:  0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			desc, err := metric.Lookup(tc.metric)
			if err != nil {
				t.Fatalf("lookup %q: %v", tc.metric, err)
			}

			host, port := "127.0.0.1", closedPort(t)
			if tc.raw != "" {
				host, port = serveOnce(t, tc.raw)
			}
			client := &miner.Client{Host: host, Port: port, Timeout: 2 * time.Second}

			value, code := run(context.Background(), client, tc.metric, desc)
			if value != tc.wantValue || code != tc.wantCode {
				t.Fatalf("run=%q/%d, want %q/%d", value, code, tc.wantValue, tc.wantCode)
			}
		})
	}
}

func TestOpenStore_Disabled(t *testing.T) {
	t.Parallel()

	dial := func(ctx context.Context, addr string, db int) (cache.Store, error) {
		t.Fatalf("dial must not be called when caching is disabled")
		return nil, nil
	}
	store := openStore(context.Background(), config.CacheConfig{Enabled: false}, dial)
	if _, ok := store.(cache.Noop); !ok {
		t.Fatalf("store=%T", store)
	}
}

func TestOpenStore_UnreachableDegradesToNoop(t *testing.T) {
	t.Parallel()

	dial := func(ctx context.Context, addr string, db int) (cache.Store, error) {
		return nil, errors.New("connection refused")
	}
	cc := config.CacheConfig{Enabled: true, Addr: "127.0.0.1:6379"}
	store := openStore(context.Background(), cc, dial)
	if _, ok := store.(cache.Noop); !ok {
		t.Fatalf("store=%T", store)
	}
	if _, err := store.Get(context.Background(), "k"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("degraded store must miss, err=%v", err)
	}
}

func TestOpenStore_Connected(t *testing.T) {
	t.Parallel()

	want := cache.Noop{}
	dial := func(ctx context.Context, addr string, db int) (cache.Store, error) {
		if addr != "10.0.0.5:6379" || db != 2 {
			t.Fatalf("dial addr=%q db=%d", addr, db)
		}
		return want, nil
	}
	cc := config.CacheConfig{Enabled: true, Addr: "10.0.0.5:6379", DB: 2}
	if store := openStore(context.Background(), cc, dial); store != want {
		t.Fatalf("store=%T", store)
	}
}
