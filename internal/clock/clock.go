package clock

import (
	"sync"
	"time"
)

// Clock 提供当前时间
//
// 令牌过期、密钥宽限期和限流窗口的判断都通过它取时间，
// 测试中注入 Mock 可以让边界条件变得确定。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System 返回使用系统时间的时钟
func System() Clock { return systemClock{} }

// Mock 可手动控制的时钟，仅用于测试
type Mock struct {
	mu sync.Mutex
	t  time.Time
}

// NewMock 创建固定在 t 的模拟时钟
func NewMock(t time.Time) *Mock {
	return &Mock{t: t}
}

// Now 返回当前设定的时间
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// Set 设置当前时间
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
}

// Advance 将时间向前拨动 d
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
}
