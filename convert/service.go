package convert

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
)

// Service bounds the number of workbook conversions running at once. Each
// conversion is still a single synchronous pipeline; the service only queues
// requests onto a fixed worker pool so a hosting caller can cap resource
// usage and cancel waiting requests through their context.
type Service struct {
	converter     *Converter
	logger        *zerolog.Logger
	maxConcurrent int

	mu        sync.Mutex
	started   bool
	taskQueue chan *conversionTask
	senders   sync.WaitGroup
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

type conversionTask struct {
	ctx    context.Context
	data   []byte
	opts   Options
	result chan *taskOutcome
}

type taskOutcome struct {
	result *Result
	res    *util.Result
}

func NewService(cfg Config, maxConcurrent int) *Service {
	cfg.SetDefaults()
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		converter:     NewConverter(cfg),
		logger:        cfg.Logger,
		maxConcurrent: maxConcurrent,
	}
}

// StartUp launches the worker pool.
func (s *Service) StartUp(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.logger.Warn().Msg("conversion service already started")
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.taskQueue = make(chan *conversionTask, s.maxConcurrent*2)
	s.started = true

	for i := 0; i < s.maxConcurrent; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info().Int("workers", s.maxConcurrent).Msg("conversion service started")
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	workerLogger := s.logger.With().Int("worker", id).Logger()
	workerLogger.Debug().Msg("worker started")

	for {
		select {
		case <-s.ctx.Done():
			workerLogger.Debug().Msg("worker shutting down")
			return

		case task, ok := <-s.taskQueue:
			if !ok {
				workerLogger.Debug().Msg("task queue closed, worker exiting")
				return
			}

			result, res := s.converter.Convert(task.data, task.opts)

			select {
			case task.result <- &taskOutcome{result: result, res: res}:
			case <-task.ctx.Done():
				// caller gave up, don't block the worker
			}
		}
	}
}

// Convert queues one conversion and waits for its outcome. The caller's
// context bounds both the queue wait and the wait for the result; a
// cancelled in-flight conversion's partial buffer is discarded with the
// abandoned task.
func (s *Service) Convert(ctx context.Context, data []byte, opts Options) (*Result, *util.Result) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, util.MsgError("Convert", "conversion service not started - call StartUp() first")
	}
	// registered under the lock so Shutdown can wait for in-flight requests
	// before it closes the queue
	s.senders.Add(1)
	s.mu.Unlock()
	defer s.senders.Done()

	task := &conversionTask{
		ctx:    ctx,
		data:   data,
		opts:   opts,
		result: make(chan *taskOutcome, 1),
	}

	select {
	case s.taskQueue <- task:
	case <-ctx.Done():
		return nil, util.Error("Convert", ctx.Err())
	case <-s.ctx.Done():
		return nil, util.MsgError("Convert", "conversion service is shutting down")
	}

	select {
	case outcome := <-task.result:
		return outcome.result, outcome.res
	case <-ctx.Done():
		return nil, util.Error("Convert", ctx.Err())
	case <-s.ctx.Done():
		return nil, util.MsgError("Convert", "conversion service was shut down")
	}
}

// Shutdown stops intake, waits for in-flight requests to finish enqueueing,
// drains queued tasks, then stops the workers. The context bounds how long it
// waits before cancelling whatever is still running.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.logger.Warn().Msg("conversion service not started, nothing to shutdown")
		return
	}
	// new Convert calls are rejected from here on; the queue is only closed
	// once every already-admitted request is done with it
	s.started = false
	s.mu.Unlock()

	s.logger.Info().Msg("shutting down conversion service")

	s.senders.Wait()
	close(s.taskQueue)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("all workers finished gracefully")
	case <-ctx.Done():
		s.logger.Warn().Msg("shutdown timeout - cancelling remaining tasks")
		s.cancel()
		<-done
	}

	s.cancel()

	s.logger.Info().Msg("conversion service shutdown complete")
}
