package bot

import (
	"sync"
	"time"
)

// cooldown 限制每个用户在窗口内只能使用一次命令
type cooldown struct {
	mu   sync.Mutex
	per  time.Duration
	last map[string]time.Time
}

func newCooldown(per time.Duration) *cooldown {
	return &cooldown{per: per, last: make(map[string]time.Time)}
}

// allow 在允许时记录本次使用；否则返回剩余等待时间。
func (c *cooldown) allow(key string, now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.last[key]; ok {
		if wait := c.per - now.Sub(prev); wait > 0 {
			return wait, false
		}
	}
	c.last[key] = now

	if len(c.last) > 1024 {
		for k, t := range c.last {
			if now.Sub(t) >= c.per {
				delete(c.last, k)
			}
		}
	}
	return 0, true
}
