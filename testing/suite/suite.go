// Package suite runs repository tests against a real Redis started with dockertest.
package suite

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	containerTTL = 10 * time.Minute
	startTimeout = 2 * time.Minute
	testTimeout  = 30 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "7-alpine"
)

// redisAddr is set by Run for the lifetime of the test binary.
var redisAddr string

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
}

// Run starts one Redis container for the package, runs its tests and removes
// the container. Call it from TestMain. In -short mode no container is started.
func Run(m *testing.M) int {
	flag.Parse()

	if testing.Short() {
		return m.Run()
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to docker: %v\n", err)
		return 1
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Cmd:        []string{"redis-server", "--save", "", "--appendonly", "no"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start redis: %v\n", err)
		return 1
	}

	defer func() {
		if err = pool.Purge(resource); err != nil {
			fmt.Fprintf(os.Stderr, "could not purge redis: %v\n", err)
		}
	}()

	// kills the container even if the test binary dies before Purge
	_ = resource.Expire(uint(containerTTL.Seconds()))

	addr := resource.GetHostPort(redisPort)

	pool.MaxWait = startTimeout
	if err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()

		return client.Ping(context.Background()).Err()
	}); err != nil {
		fmt.Fprintf(os.Stderr, "redis did not become ready: %v\n", err)
		return 1
	}

	redisAddr = addr

	return m.Run()
}

// New connects to the package's Redis and empties it. Tests using it are
// skipped in -short mode.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	if redisAddr == "" {
		t.Fatal("redis is not running: call suite.Run from TestMain")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() {
		_ = client.Close()
	})

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	return ctx, &Suite{
		T:       t,
		Logger:  slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Storage: client,
	}
}
