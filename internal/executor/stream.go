package executor

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	backoff "gopkg.in/cenkalti/backoff.v1"

	"taskline/internal/event"
)

// streamBuffer bounds how many events may pile up between the transport
// and a slow consumer.
const streamBuffer = 64

// Stream subscribes to a task's live event stream. Decoded events arrive
// in log order on the returned channel, which closes when ctx is cancelled
// or the subscription ends. Dropped connections are retried with
// exponential backoff; malformed frames are logged and skipped so one bad
// event never kills the watch.
func (c *Client) Stream(ctx context.Context, taskID string) (<-chan event.TaskEvent, error) {
	streamURL := c.endpoint(fmt.Sprintf("/api/v1/tasks/%s/events/stream", url.PathEscape(taskID)))
	client := sse.NewClient(streamURL)
	client.Headers = map[string]string{
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
	}
	if c.token != "" {
		client.Headers["Authorization"] = "Bearer " + c.token
	}

	log := c.log.With(zap.String("task", taskID))
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 0 // retry until the context is cancelled
	client.ReconnectStrategy = backoff.WithContext(expBackoff, ctx)
	client.ReconnectNotify = func(err error, delay time.Duration) {
		log.Warn("event stream dropped", zap.Error(err), zap.Duration("retry_in", delay))
	}

	frames := make(chan *sse.Event, streamBuffer)
	if err := client.SubscribeChanWithContext(ctx, "", frames); err != nil {
		return nil, fmt.Errorf("subscribe to event stream: %w", err)
	}

	out := make(chan event.TaskEvent, streamBuffer)
	go func() {
		defer close(out)
		defer client.Unsubscribe(frames)
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if frame == nil || len(frame.Data) == 0 {
					continue
				}
				ev, err := event.Decode(frame.Data)
				if err != nil {
					log.Warn("skipping malformed stream event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
