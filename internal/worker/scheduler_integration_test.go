package worker_test

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
	"github.com/mohammad-safakhou/stockscout/internal/queue/streams"
	"github.com/mohammad-safakhou/stockscout/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type blockingResearcher struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingResearcher) Run(ctx context.Context, req core.Request) core.Report {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return core.Report{Topic: req.Topic}
}

func TestRunOnceLockPreventsOverlap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	defer rdb.Close()

	logger := log.New(io.Discard, "", 0)
	slow := &blockingResearcher{started: make(chan struct{}), release: make(chan struct{})}
	first, err := worker.NewScheduler("@hourly", core.Request{Topic: "IBM"}, slow, io.Discard, worker.Options{Redis: rdb, Logger: logger, LockTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	pub := streams.NewPublisher(rdb, "test:reports", 100)
	second, err := worker.NewScheduler("@hourly", core.Request{Topic: "IBM"}, slow, io.Discard, worker.Options{Redis: rdb, Logger: logger, LockTTL: time.Minute, Publisher: pub})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := first.RunOnce(ctx)
		done <- err
	}()
	<-slow.started

	if _, err := second.RunOnce(ctx); !errors.Is(err, worker.ErrLocked) {
		t.Fatalf("expected ErrLocked while first run holds the lock, got %v", err)
	}
	close(slow.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if n, err := rdb.Exists(ctx, "watch:lock:IBM").Result(); err != nil || n != 0 {
		t.Fatalf("lock should be released, exists=%d err=%v", n, err)
	}

	// with the lock free the second scheduler runs and publishes
	if _, err := second.RunOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	entries, err := rdb.XRange(ctx, "test:reports", "-", "+").Result()
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one stream entry, got %d err=%v", len(entries), err)
	}
	raw, _ := entries[0].Values["envelope"].(string)
	env, err := streams.DecodeEnvelope([]byte(raw))
	if err != nil || env.EventType != streams.EventResearchReport {
		t.Fatalf("bad envelope %+v err=%v", env, err)
	}
}
