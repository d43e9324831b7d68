package usage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/pool"
	"todoapi/backend/internal/storage"
)

// Accountant 异步记录成功请求的用量
//
// Record 对调用方是 fire-and-forget：不阻塞、不失败请求。
// 事件先入内存缓冲，达到批量阈值或定时间隔（先到者触发）时
// 整批写入事件接收端。写入失败只记日志，进程异常退出时丢失
// 缓冲中的事件是可接受的（用量是参考数据，不用于计费）。
type Accountant struct {
	sink      storage.EventSink
	clock     clock.Clock
	batchSize int
	interval  time.Duration
	workers   *pool.WorkerPool
	log       *zap.Logger

	mu  sync.Mutex
	buf []domain.UsageEvent
}

// NewAccountant 创建用量记录器
func NewAccountant(sink storage.EventSink, clk clock.Clock, batchSize int, interval time.Duration, workers *pool.WorkerPool, log *zap.Logger) *Accountant {
	return &Accountant{
		sink:      sink,
		clock:     clk,
		batchSize: batchSize,
		interval:  interval,
		workers:   workers,
		log:       log,
		buf:       make([]domain.UsageEvent, 0, batchSize),
	}
}

// Record 记录一次成功的授权请求
//
// 只做一次加锁追加，满批时把缓冲整体换出并异步刷盘，
// 请求路径上不等待任何 I/O
func (a *Accountant) Record(endpoint, userID string) {
	event := domain.UsageEvent{
		Endpoint:   endpoint,
		UserID:     userID,
		OccurredAt: a.clock.Now(),
	}

	a.mu.Lock()
	a.buf = append(a.buf, event)
	var batch []domain.UsageEvent
	if len(a.buf) >= a.batchSize {
		batch = a.buf
		a.buf = make([]domain.UsageEvent, 0, a.batchSize)
	}
	a.mu.Unlock()

	if batch != nil {
		a.dispatch(batch)
	}
}

// Start 启动定时刷盘循环，阻塞直到 ctx 取消
//
// ctx 取消时做最后一次刷盘，尽量少丢事件
func (a *Accountant) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Flush()
			return
		case <-ticker.C:
			a.Flush()
		}
	}
}

// Flush 立即刷出当前缓冲的全部事件
func (a *Accountant) Flush() {
	a.mu.Lock()
	if len(a.buf) == 0 {
		a.mu.Unlock()
		return
	}
	batch := a.buf
	a.buf = make([]domain.UsageEvent, 0, a.batchSize)
	a.mu.Unlock()

	a.flush(batch)
}

// dispatch 把批量写入交给协程池，池满时退化为独立协程
func (a *Accountant) dispatch(batch []domain.UsageEvent) {
	if a.workers == nil || !a.workers.TrySubmit(func() { a.flush(batch) }) {
		go a.flush(batch)
	}
}

// flush 执行一次批量写入，失败只记日志
func (a *Accountant) flush(batch []domain.UsageEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.sink.AppendBatch(ctx, batch); err != nil {
		a.log.Error("failed to flush usage events",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return
	}

	a.log.Debug("flushed usage events", zap.Int("count", len(batch)))
}
