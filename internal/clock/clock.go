package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock はプロセス全体で共有するナノ秒精度の時刻源
type Clock interface {
	// Nanos は現在時刻をナノ秒で返す（単調非減少）
	Nanos() uint64
}

// SystemClock は壁時計をもとにした単調な時刻源
type SystemClock struct {
	last atomic.Uint64
}

// NewSystemClock は新しいSystemClockを作成する
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Nanos は前回の値より小さくならない現在時刻を返す
func (c *SystemClock) Nanos() uint64 {
	for {
		last := c.last.Load()
		now := uint64(time.Now().UnixNano())
		if now <= last {
			now = last + 1
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// Timestamp はナノ秒をミリ秒に切り捨ててから時刻へ変換する
// 既存の永続データと互換性を保つため、ミリ秒未満は常に切り捨てる
func Timestamp(nanos uint64) time.Time {
	return time.UnixMilli(int64(nanos / 1_000_000)).UTC()
}

// Now は時刻源の現在時刻をタイムスタンプとして返す
func Now(c Clock) time.Time {
	return Timestamp(c.Nanos())
}

// ManualClock は呼び出しごとに一定量進むテスト用の時刻源
type ManualClock struct {
	mu   sync.Mutex
	now  uint64
	step uint64
}

// NewManualClock は開始時刻と増分を指定してManualClockを作成する
func NewManualClock(start time.Time, step time.Duration) *ManualClock {
	return &ManualClock{now: uint64(start.UnixNano()), step: uint64(step)}
}

// Nanos は現在値を返してから時刻を進める
func (c *ManualClock) Nanos() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now += c.step
	return now
}
