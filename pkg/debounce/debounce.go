// Package debounce 按 key 合并短时间内的多次调用：每次 Trigger 替换待执行的函数并重新计时，
// 只有静默 wait 之后才执行最后一次提交的函数。
package debounce

import (
	"sync"
	"time"
)

type pending struct {
	timer *time.Timer
	fn    func()
	seq   uint64
}

type Debouncer struct {
	wait    time.Duration
	mu      sync.Mutex
	seq     uint64
	pending map[string]*pending
}

func New(wait time.Duration) *Debouncer {
	return &Debouncer{
		wait:    wait,
		pending: make(map[string]*pending),
	}
}

// Trigger 为 key 安排 fn，覆盖尚未执行的旧函数
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.pending[key] = &pending{
		fn:    fn,
		seq:   seq,
		timer: time.AfterFunc(d.wait, func() { d.fire(key, seq) }),
	}
}

func (d *Debouncer) fire(key string, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	// 已被新的 Trigger 或 Cancel 取代
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	p.fn()
}

// Cancel 丢弃 key 上尚未执行的函数，返回是否确实丢弃了
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending 报告 key 是否有待执行的函数
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Flush 立即执行所有待执行的函数，用于退出前落盘
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		fns = append(fns, p.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
