package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
	"github.com/mohammad-safakhou/stockscout/internal/queue/streams"
	"github.com/redis/go-redis/v9"
)

// Researcher runs one research request.
type Researcher interface {
	Run(ctx context.Context, req core.Request) core.Report
}

// Publisher forwards reports to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType, version string, payload any) (string, error)
}

// ErrLocked is returned by RunOnce when another process holds the run lock.
var ErrLocked = errors.New("watch run already in progress")

const defaultLockTTL = 30 * time.Minute

// releaseLock deletes the key only when it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Scheduler repeats one research request on a cron schedule and writes each
// report as a JSON line.
type Scheduler struct {
	expr    *cronexpr.Expression
	spec    string
	req     core.Request
	res     Researcher
	rdb     *redis.Client
	pub     Publisher
	lockTTL time.Duration
	logger  *log.Logger

	mu  sync.Mutex
	out *json.Encoder
	now func() time.Time
}

type Options struct {
	Redis     *redis.Client // nil disables cross-process locking
	Publisher Publisher     // optional; receives every report
	LockTTL   time.Duration
	Logger    *log.Logger
}

// NewScheduler parses spec (five-field cron or @hourly/@daily style).
func NewScheduler(spec string, req core.Request, res Researcher, out io.Writer, opts Options) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[WATCH] ", log.LstdFlags)
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &Scheduler{
		expr:    expr,
		spec:    spec,
		req:     req,
		res:     res,
		rdb:     opts.Redis,
		pub:     opts.Publisher,
		lockTTL: opts.LockTTL,
		logger:  opts.Logger,
		out:     json.NewEncoder(out),
		now:     time.Now,
	}, nil
}

// Next returns the first scheduled time strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time { return s.expr.Next(t) }

// Start blocks, running the request at every scheduled time until ctx ends.
// With immediate set the first run happens right away.
func (s *Scheduler) Start(ctx context.Context, immediate bool) error {
	s.logger.Printf("watching %q on schedule %s", s.req.Topic, s.spec)
	if immediate {
		s.runLogged(ctx)
	}
	for {
		next := s.Next(s.now())
		if next.IsZero() {
			return fmt.Errorf("schedule %s has no future runs", s.spec)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrLocked) {
			s.logger.Printf("skipping %q: %v", s.req.Topic, err)
			return
		}
		s.logger.Printf("run for %q failed: %v", s.req.Topic, err)
	}
}

// RunOnce takes the lock, runs the request and writes the report.
func (s *Scheduler) RunOnce(ctx context.Context) (core.Report, error) {
	if s.rdb != nil {
		key := "watch:lock:" + s.req.Topic
		token := uuid.NewString()
		ok, err := s.rdb.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return core.Report{}, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return core.Report{}, ErrLocked
		}
		defer func() {
			if err := releaseLock.Run(context.WithoutCancel(ctx), s.rdb, []string{key}, token).Err(); err != nil {
				s.logger.Printf("release lock %s: %v", key, err)
			}
		}()
	}

	report := s.res.Run(ctx, s.req)
	if s.pub != nil {
		if id, err := s.pub.Publish(ctx, streams.EventResearchReport, "v1", report); err != nil {
			s.logger.Printf("publish report %s: %v", report.RunID, err)
		} else {
			s.logger.Printf("published report %s as %s", report.RunID, id)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.out.Encode(report); err != nil {
		return report, fmt.Errorf("write report: %w", err)
	}
	return report, nil
}
