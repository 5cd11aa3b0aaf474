// antprobe queries a Bitmain Antminer's status API and prints one
// Zabbix-compatible value on stdout. It is meant to run as an external
// check: once per metric per scheduler tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"antprobe/internal/cache"
	"antprobe/internal/config"
	"antprobe/internal/metric"
	"antprobe/internal/miner"
	"antprobe/internal/ping"
)

const usage = `antprobe - query a Bitmain Antminer and print a Zabbix-compatible value

Usage:
  antprobe [flags] <type> <ip> <metric>

On query failure the metric's default value ("0") is printed and the
exit status is 1, so the monitoring consumer always receives a number.
Verbose diagnostics go to stderr with -v=1 -logtostderr.

Flags:
`

var (
	configPath  = flag.String("config", "", "optional YAML config file; flags override file values")
	pingFlag    = flag.Bool("ping", false, "ping the miner before querying")
	portFlag    = flag.Int("port", config.DefaultPort, "miner API port")
	timeoutFlag = flag.Int("timeout", config.DefaultTimeoutSec, "connect/read timeout in seconds")

	cacheFlag   = flag.Bool("cache", false, "cache raw replies in Redis")
	cacheAddr   = flag.String("cache-addr", config.DefaultCacheAddr, "Redis address")
	cacheDB     = flag.Int("cache-db", 0, "Redis database index")
	cachePrefix = flag.String("cache-prefix", config.DefaultCachePrefix, "cache key prefix")
	cacheTTL    = flag.Int("cache-ttl", config.DefaultCacheTTLSec, "cache TTL in seconds")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nTypes:   %s\nMetrics: %s\n",
			strings.Join(metric.Types(), ", "), strings.Join(metric.Metrics(), ", "))
	}
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) != 3 {
		flag.Usage()
		exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(2)
	}

	minerType, err := metric.ParseType(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(2)
	}
	host := args[1]
	if err := config.ValidateHost(host); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(2)
	}
	m, err := metric.ParseMetric(args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(2)
	}
	desc, err := metric.Lookup(m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(2)
	}

	glog.V(1).Infof("type=%s host=%s metric=%s command=%s config=%+v",
		minerType, host, m, desc.Command, cfg)

	if cfg.Ping && !ping.New(nil).Ping(host) {
		fmt.Printf("Antminer %q failed to respond to ping.\n", host)
		exit(1)
	}

	ctx := context.Background()
	store := openStore(ctx, cfg.Cache, dialRedis)
	defer store.Close()

	client := &miner.Client{
		Host:        host,
		Port:        cfg.Port,
		Timeout:     cfg.Timeout(),
		Cache:       store,
		CachePrefix: cfg.Cache.Prefix,
		CacheTTL:    cfg.Cache.CacheTTL(),
	}

	value, code := run(ctx, client, m, desc)
	fmt.Println(value)
	if code != 0 {
		store.Close()
		exit(code)
	}
}

// run queries the miner and aggregates the reply. It returns the line to
// print and the process exit code: a failed query yields the metric's
// default value and a non-zero status so the monitoring consumer still
// sees a number, while aggregation failures are fully absorbed.
func run(ctx context.Context, client *miner.Client, m metric.Metric, desc metric.Descriptor) (string, int) {
	resp, err := client.Query(ctx, string(desc.Command))
	if err != nil {
		glog.Errorf("query %s on %s failed: %v", desc.Command, client.Host, err)
		return metric.DefaultValue, 1
	}

	value, err := metric.Aggregate(resp, desc)
	if err != nil {
		glog.V(1).Infof("aggregation of %s failed, reporting default: %v", m, err)
		return metric.DefaultValue, 0
	}
	return value, 0
}

// loadConfig merges the optional config file with explicitly set flags;
// flags win.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config %s: %w", *configPath, err)
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ping":
			cfg.Ping = *pingFlag
		case "port":
			cfg.Port = *portFlag
		case "timeout":
			cfg.TimeoutSec = *timeoutFlag
		case "cache":
			cfg.Cache.Enabled = *cacheFlag
		case "cache-addr":
			cfg.Cache.Addr = *cacheAddr
		case "cache-db":
			cfg.Cache.DB = *cacheDB
		case "cache-prefix":
			cfg.Cache.Prefix = *cachePrefix
		case "cache-ttl":
			cfg.Cache.TTLSec = *cacheTTL
		}
	})

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// storeDialer connects a cache backend; injected so tests can fake the
// backend being down.
type storeDialer func(ctx context.Context, addr string, db int) (cache.Store, error)

func dialRedis(ctx context.Context, addr string, db int) (cache.Store, error) {
	return cache.NewRedis(ctx, addr, db)
}

// openStore connects the result cache. An unreachable backend degrades
// to the no-op store so the probe still answers from the device.
func openStore(ctx context.Context, cc config.CacheConfig, dial storeDialer) cache.Store {
	if !cc.Enabled {
		return cache.Noop{}
	}
	store, err := dial(ctx, cc.Addr, cc.DB)
	if err != nil {
		glog.Warningf("cache at %s unavailable, querying live: %v", cc.Addr, err)
		return cache.Noop{}
	}
	return store
}

func exit(code int) {
	glog.Flush()
	os.Exit(code)
}
