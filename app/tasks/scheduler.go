package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler executes queued tasks on a fixed number of workers.
// With a single worker tasks run strictly one after another.
type Scheduler struct {
	workerCount int
	logger      *zap.Logger
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(workerCount int, logger *zap.Logger) *Scheduler {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Scheduler{
		workerCount: workerCount,
		logger:      logger,
		taskQueue:   make(chan TaskInterface),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
}

// Stop closes the queue and waits for workers to drain it
func (s *Scheduler) Stop() {
	close(s.taskQueue)
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(ctx context.Context, task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for task := range s.taskQueue {
		s.executeTask(ctx, id, task)
	}
}

func (s *Scheduler) executeTask(ctx context.Context, workerID int, task TaskInterface) {
	task.Start()

	err := s.runTask(ctx, task)
	task.SetError(err)
	if err != nil {
		s.logger.Debug("Worker task execution failed",
			zap.Int("worker_id", workerID),
			zap.String("type", string(task.GetType())),
			zap.String("id", task.GetID()),
			zap.String("feed", task.GetFeedID()),
			zap.Duration("duration", task.GetDuration()),
			zap.Error(err))
	}
}

// runTask turns a panicking task into an error so one feed cannot take down the run
func (s *Scheduler) runTask(ctx context.Context, task TaskInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Task panicked",
				zap.String("type", string(task.GetType())),
				zap.String("feed", task.GetFeedID()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task.Execute(ctx)
}
