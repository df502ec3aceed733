package translation

import (
	"context"

	"github.com/benbjohnson/clock"
)

// Result is the outcome of a debounced interim translation.
// OK is false when the request was superseded, canceled, disabled or failed.
type Result struct {
	Text string
	OK   bool
}

// pendingTask is the single scheduled interim translation
type pendingTask struct {
	timer *clock.Timer
	out   chan Result
}

// ScheduleInterim registers text as the pending interim translation, replacing
// any earlier pending one. The replaced request resolves with OK=false. The
// returned channel receives exactly one Result once the quiet period elapses
// without a newer request.
func (c *Client) ScheduleInterim(ctx context.Context, text, sourceLocale string) <-chan Result {
	task := &pendingTask{out: make(chan Result, 1)}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	c.supersedeLocked()

	task.timer = c.clock.AfterFunc(c.debounce, func() {
		go c.runInterim(ctx, task, text, sourceLocale)
	})
	c.pending = task

	return task.out
}

// CancelPending drops the pending interim translation, if any
func (c *Client) CancelPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.supersedeLocked()
}

// supersedeLocked stops the pending task. A task whose timer already fired
// delivers its own result.
func (c *Client) supersedeLocked() {
	if c.pending == nil {
		return
	}
	if c.pending.timer.Stop() {
		c.pending.out <- Result{}
	}
	c.pending = nil
}

func (c *Client) runInterim(ctx context.Context, task *pendingTask, text, sourceLocale string) {
	c.pendingMu.Lock()
	if c.pending == task {
		c.pending = nil
	}
	c.pendingMu.Unlock()

	translated, ok, err := c.TranslateText(ctx, text, sourceLocale)
	if err != nil {
		c.logger.Warn("Interim translation failed", Error(err))
		task.out <- Result{}
		return
	}
	task.out <- Result{Text: translated, OK: ok}
}

// TranslateWithDebounce translates final text immediately. Interim text goes
// through the single pending slot; a call replaced by a newer one returns
// ok=false with no error, as does a failed interim translation.
func (c *Client) TranslateWithDebounce(ctx context.Context, text, sourceLocale string, interim bool) (string, bool, error) {
	if !interim {
		return c.TranslateText(ctx, text, sourceLocale)
	}

	select {
	case r := <-c.ScheduleInterim(ctx, text, sourceLocale):
		return r.Text, r.OK, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}
