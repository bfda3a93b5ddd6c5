package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/ps2emu/internal/storage"
)

type storageOptions struct {
	backend           string
	dir               string
	redisHost         string
	redisPort         int
	redisPassword     string
	redisDB           int
	redisCluster      bool
	redisClusterNodes []string
	redisTTL          time.Duration
}

func (o *storageOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.backend, "store", storage.BackendFile, "log store backend (file, redis)")
	cmd.Flags().StringVar(&o.dir, "store-dir", "", "directory of the file log store (default $XDG_DATA_HOME/ps2emu/logs)")
	cmd.Flags().StringVar(&o.redisHost, "redis-host", "localhost", "redis host (or host:port)")
	cmd.Flags().IntVar(&o.redisPort, "redis-port", 6379, "redis port")
	cmd.Flags().StringVar(&o.redisPassword, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&o.redisDB, "redis-db", 0, "redis database index")
	cmd.Flags().BoolVar(&o.redisCluster, "redis-cluster", false, "enable redis cluster mode")
	cmd.Flags().StringSliceVar(&o.redisClusterNodes, "redis-cluster-nodes", nil, "redis cluster nodes host:port list")
	cmd.Flags().DurationVar(&o.redisTTL, "redis-ttl", 0, "expire stored recordings after this long (0 = never)")
}

// resolve overlays explicitly set flags on the configured store.
func (o *storageOptions) resolve(cmd *cobra.Command, cfg storage.Config) (storage.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Backend = o.backend
	}
	if flags.Changed("store-dir") {
		cfg.Dir = o.dir
	}
	if flags.Changed("redis-host") {
		cfg.Redis.Host = o.redisHost
	}
	if flags.Changed("redis-port") {
		cfg.Redis.Port = o.redisPort
	}
	if flags.Changed("redis-password") {
		cfg.Redis.Password = o.redisPassword
	}
	if flags.Changed("redis-db") {
		cfg.Redis.DB = o.redisDB
	}
	if flags.Changed("redis-cluster") {
		cfg.Redis.Cluster = o.redisCluster
	}
	if flags.Changed("redis-cluster-nodes") {
		cfg.Redis.ClusterNodes = append([]string(nil), o.redisClusterNodes...)
	}
	if flags.Changed("redis-ttl") {
		cfg.Redis.TTL = o.redisTTL
	}

	if cfg.Backend == storage.BackendRedis && !cfg.Redis.Cluster {
		host, port, err := normalizeRedisHostPort(cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			return cfg, err
		}
		cfg.Redis.Host = host
		cfg.Redis.Port = port
	}
	return cfg, nil
}

// resolveDurable is resolve for commands that read back what another
// command stored.
func (o *storageOptions) resolveDurable(cmd *cobra.Command, cfg storage.Config) (storage.Config, error) {
	cfg, err := o.resolve(cmd, cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, storage.RequireDurable(cfg)
}

func normalizeRedisHostPort(host string, port int) (string, int, error) {
	if strings.Contains(host, ":") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", 0, fmt.Errorf("invalid --redis-host value %q: %w", host, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid redis port in --redis-host %q: %w", host, err)
		}
		host = h
		port = n
	}

	if host == "" {
		return "", 0, fmt.Errorf("redis host cannot be empty")
	}
	if port <= 0 {
		return "", 0, fmt.Errorf("redis port must be positive, got %d", port)
	}

	return host, port, nil
}
