// Package worker implements a Redis-backed job worker: jobs are pushed onto
// a queue list as JSON payloads, fetched with BLPOP, executed by registered
// job functions with bounded concurrency, and their results stored with a
// TTL. A worker can run blocking (Run) or cooperatively in the background
// (Start), and shuts down gracefully on termination signals.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Worker is one running (or stopped) worker instance bound to a resolved
// Settings. A Worker is never reused after Close.
type Worker struct {
	settings *Settings
	funcs    map[string]Func
	rdb      *redis.Client
	id       string
	log      *slog.Logger

	mu      sync.Mutex
	onStop  func(os.Signal)
	cancel  context.CancelFunc
	started bool

	sigCh  chan os.Signal
	done   chan struct{}
	runErr error

	jobs      sync.WaitGroup
	sem       chan struct{}
	inflight  atomic.Int64
	complete  atomic.Int64
	failed    atomic.Int64
	startedAt time.Time

	closeOnce sync.Once
	closeErr  error
}

// New creates a worker from resolved settings. The Redis connection is not
// established until Start or Run.
func New(settings *Settings) (*Worker, error) {
	s := settings.withDefaults()
	funcs, err := s.resolveFunctions()
	if err != nil {
		return nil, err
	}
	if len(funcs) == 0 {
		return nil, errors.New("no job functions registered")
	}

	id := uuid.NewString()
	w := &Worker{
		settings: s,
		funcs:    funcs,
		rdb: redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		}),
		id:    id,
		log:   slog.Default().With("worker_id", id),
		sigCh: make(chan os.Signal, 2),
		done:  make(chan struct{}),
		sem:   make(chan struct{}, s.MaxJobs),
	}
	return w, nil
}

// SetOnStop installs the stop hook, invoked with the triggering signal
// before the worker begins its graceful stop. A supervisor uses this to
// tell a reload-driven stop apart from a real shutdown.
func (w *Worker) SetOnStop(fn func(os.Signal)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onStop = fn
}

// Start begins the cooperative run: it connects to Redis, subscribes to
// termination signals, and launches the fetch loop and heartbeat in the
// background. Use Close to stop the worker and wait for in-flight jobs.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", w.settings.RedisAddr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.started = true
	w.mu.Unlock()
	w.startedAt = time.Now()

	signal.Notify(w.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range w.sigCh {
			w.HandleSignal(sig)
		}
	}()

	go w.heartbeat(runCtx)

	w.log.Info("worker started",
		"queue", w.settings.QueueName,
		"burst", w.settings.Burst,
		"max_jobs", w.settings.MaxJobs)

	go func() {
		w.runErr = w.run(runCtx)
		close(w.done)
	}()
	return nil
}

// Run starts the worker and blocks until it stops, either because the
// queue drained in burst mode, a termination signal arrived, or the
// context was cancelled. It always closes the worker before returning.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	select {
	case <-w.done:
	case <-ctx.Done():
	}
	return w.Close()
}

// RunSettings is the blocking entry point used by the CLI: it applies the
// overrides, creates a worker, and runs it to completion.
func RunSettings(ctx context.Context, settings *Settings, ov Overrides) error {
	w, err := New(settings.apply(ov))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// HandleSignal begins a graceful stop: the stop hook is invoked first with
// the signal, then the fetch loop is cancelled. In-flight jobs keep running
// until Close waits for them.
func (w *Worker) HandleSignal(sig os.Signal) {
	w.log.Info("shutdown requested", "signal", sig.String())

	w.mu.Lock()
	fn := w.onStop
	cancel := w.cancel
	w.mu.Unlock()

	if fn != nil {
		fn(sig)
	}
	if cancel != nil {
		cancel()
	}
}

// Close stops fetching, waits for the run loop and in-flight jobs, and
// releases the Redis client. It is idempotent; every call returns the same
// error, which is the run loop's error if it failed.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		cancel := w.cancel
		started := w.started
		w.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if started {
			<-w.done
			w.jobs.Wait()
		}
		signal.Stop(w.sigCh)
		close(w.sigCh)

		w.closeErr = w.runErr
		if err := w.rdb.Close(); err != nil && w.closeErr == nil {
			w.closeErr = fmt.Errorf("close redis client: %w", err)
		}
		w.log.Info("worker stopped",
			"jobs_complete", w.complete.Load(),
			"jobs_failed", w.failed.Load())
	})
	return w.closeErr
}

func (w *Worker) run(ctx context.Context) error {
	queue := w.settings.queueKey()
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := w.rdb.BLPop(ctx, w.settings.PollInterval, queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if w.settings.Burst && w.inflight.Load() == 0 {
				w.log.Info("queue drained, exiting burst mode", "queue", w.settings.QueueName)
				return nil
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch job from %s: %w", queue, err)
		}

		raw := res[1]
		job, err := decodeJob([]byte(raw))
		if err != nil {
			w.failed.Add(1)
			w.log.Error("discarding undecodable job payload", "error", err)
			continue
		}

		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			// Put the fetched job back so it survives the shutdown.
			if err := w.rdb.LPush(context.Background(), queue, raw).Err(); err != nil {
				w.log.Error("failed to requeue job during shutdown", "job_id", job.ID, "error", err)
			}
			return nil
		}
		w.inflight.Add(1)
		w.jobs.Add(1)
		go w.runJob(job)
	}
}

func (w *Worker) runJob(job *Job) {
	defer func() {
		<-w.sem
		w.inflight.Add(-1)
		w.jobs.Done()
	}()

	fn, ok := w.funcs[job.Function]
	if !ok {
		w.failed.Add(1)
		w.log.Error("no handler for job function", "function", job.Function, "job_id", job.ID)
		w.storeResult(job, nil, fmt.Errorf("unknown job function %q", job.Function))
		return
	}

	// Jobs get their own context so a graceful worker stop lets them finish
	// within the job timeout instead of cancelling them mid-run.
	jobCtx, cancel := context.WithTimeout(context.Background(), w.settings.JobTimeout)
	defer cancel()

	start := time.Now()
	out, err := fn(jobCtx, job.Args)
	if err != nil {
		w.failed.Add(1)
		w.log.Error("job failed", "function", job.Function, "job_id", job.ID, "error", err)
	} else {
		w.complete.Add(1)
		w.log.Debug("job complete", "function", job.Function, "job_id", job.ID, "elapsed", time.Since(start))
	}
	w.storeResult(job, out, err)
}

func (w *Worker) storeResult(job *Job, out any, jobErr error) {
	result := Result{
		JobID:      job.ID,
		Ok:         jobErr == nil,
		FinishedAt: time.Now().UTC(),
	}
	if jobErr != nil {
		result.Error = jobErr.Error()
	} else if out != nil {
		raw, err := json.Marshal(out)
		if err != nil {
			w.log.Error("failed to encode job result", "job_id", job.ID, "error", err)
		} else {
			result.Result = raw
		}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		w.log.Error("failed to encode job result", "job_id", job.ID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.rdb.Set(ctx, resultKey(job.ID), payload, w.settings.ResultTTL).Err(); err != nil {
		w.log.Error("failed to store job result", "job_id", job.ID, "error", err)
	}
}

// heartbeat keeps the health key fresh so `foreman --check` can report on
// this queue. The key expires shortly after the worker stops renewing it.
func (w *Worker) heartbeat(ctx context.Context) {
	interval := w.settings.HealthCheckInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.setHealth(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.setHealth(ctx)
		}
	}
}

func (w *Worker) setHealth(ctx context.Context) {
	queued, err := w.rdb.LLen(ctx, w.settings.queueKey()).Result()
	if err != nil && ctx.Err() == nil {
		w.log.Error("failed to read queue length for heartbeat", "error", err)
	}
	data := fmt.Sprintf("%s j_complete=%d j_failed=%d j_inflight=%d queued=%d",
		time.Now().Format("Jan-02 15:04:05"),
		w.complete.Load(), w.failed.Load(), w.inflight.Load(), queued)

	ttl := w.settings.HealthCheckInterval + 5*time.Second
	if err := w.rdb.Set(ctx, w.settings.healthKey(), data, ttl).Err(); err != nil && ctx.Err() == nil {
		w.log.Error("failed to write health check key", "error", err)
	}
}
