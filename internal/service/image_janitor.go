package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
)

type cleanupJob struct {
	key   string
	enqAt time.Time
}

// ImageJanitor 异步删除被替换掉的帖子图片，队列满时丢弃并告警
type ImageJanitor struct {
	store   storage.Storage
	ch      chan cleanupJob
	done    chan string
	wg      sync.WaitGroup
	stopped chan struct{}
	once    sync.Once
}

func NewImageJanitor(store storage.Storage, queueSize int) *ImageJanitor {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &ImageJanitor{
		store:   store,
		ch:      make(chan cleanupJob, queueSize),
		done:    make(chan string, queueSize),
		stopped: make(chan struct{}),
	}
}

// Start 启动 workers 个 goroutine；返回的函数停止它们，并在 ctx 到期前排空队列
func (j *ImageJanitor) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		j.wg.Add(1)
		go j.loop()
	}
	return func(ctx context.Context) error {
		j.once.Do(func() { close(j.stopped) })
		finished := make(chan struct{})
		go func() {
			j.wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *ImageJanitor) loop() {
	defer j.wg.Done()
	for {
		select {
		case job := <-j.ch:
			j.handle(job)
		case <-j.stopped:
			// 退出前处理完剩余任务
			for {
				select {
				case job := <-j.ch:
					j.handle(job)
				default:
					return
				}
			}
		}
	}
}

func (j *ImageJanitor) handle(job cleanupJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := j.store.Delete(ctx, job.key); err != nil {
		logger.Warn("image cleanup failed", zap.String("key", job.key), zap.Error(err))
		return
	}
	logger.Debug("image removed", zap.String("key", job.key), zap.Duration("queued", time.Since(job.enqAt)))
	select {
	case j.done <- job.key:
	default:
	}
}

// Enqueue 非阻塞入队
func (j *ImageJanitor) Enqueue(key string) {
	select {
	case j.ch <- cleanupJob{key: key, enqAt: time.Now()}:
	default:
		logger.Warn("image janitor queue full, drop", zap.String("key", key))
	}
}

// Done 每删除成功一个 key 发送一次（满了就不发），测试用
func (j *ImageJanitor) Done() <-chan string { return j.done }

// QueueLen 当前队列长度（采样值）
func (j *ImageJanitor) QueueLen() int { return len(j.ch) }
