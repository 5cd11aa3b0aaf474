// Package miner speaks the Antminer status API: plaintext TCP, one
// request/response exchange per connection, reply terminated by the peer
// closing the socket.
package miner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/golang/glog"

	"antprobe/internal/cache"
)

// ErrNetwork is returned when the device cannot be reached or the
// exchange fails before a complete reply is read.
var ErrNetwork = errors.New("miner unreachable")

// Client queries one miner's status port. The zero value is not usable;
// fill in at least Host and Port. Cache may be nil to disable caching.
type Client struct {
	Host    string
	Port    int
	Timeout time.Duration

	Cache       cache.Store
	CachePrefix string
	CacheTTL    time.Duration
}

type request struct {
	Command string `json:"command"`
}

// Query issues one API command and returns the decoded response. The
// cache, when configured, is consulted first; cached bytes flow through
// the same repair/parse path as a live reply. Cache failures are soft:
// they are logged and the query proceeds against the device.
func (c *Client) Query(ctx context.Context, command string) (Response, error) {
	key := cache.Key(c.CachePrefix, c.Host, command)

	if c.Cache != nil {
		raw, err := c.Cache.Get(ctx, key)
		if err == nil {
			glog.V(1).Infof("cache hit for %s", key)
			return RepairAndParse(raw)
		}
		if !errors.Is(err, cache.ErrMiss) {
			glog.Warningf("cache read for %s failed, querying live: %v", key, err)
		}
	}

	raw, err := c.queryLive(command)
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		if err := c.Cache.SetEx(ctx, key, raw, c.CacheTTL); err != nil {
			glog.Warningf("cache write for %s failed: %v", key, err)
		}
	}
	return RepairAndParse(raw)
}

// queryLive performs the single TCP exchange: connect, send the command
// object, read until the miner closes the connection.
func (c *Client) queryLive(command string) ([]byte, error) {
	payload, err := json.Marshal(request{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal command %q: %w", command, err)
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	conn, err := net.DialTimeout("tcp", addr, c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrNetwork, addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return nil, fmt.Errorf("%w: set deadline on %s: %v", ErrNetwork, addr, err)
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: send to %s: %v", ErrNetwork, addr, err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: read from %s: %v", ErrNetwork, addr, err)
	}
	return raw, nil
}
