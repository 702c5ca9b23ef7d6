// Package jobs schedules and runs feed exports on asynq.
package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/diffsolutions/samba-exporters/internal/export"
)

// TypeFeedExport is the asynq task type of an export pass.
const TypeFeedExport = "feed:export"

// ExportPayload is the JSON body of a feed:export task.
type ExportPayload struct {
	Feeds []string `json:"feeds,omitempty"`
}

// NewExportTask builds a feed:export task. An empty feed list exports every feed.
func NewExportTask(feeds []export.Feed, opts ...asynq.Option) (*asynq.Task, error) {
	payload := ExportPayload{}
	for _, f := range feeds {
		payload.Feeds = append(payload.Feeds, string(f))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode payload: %w", err)
	}
	return asynq.NewTask(TypeFeedExport, raw, opts...), nil
}

// TaskOptions returns the options applied to every export task on queue.
func TaskOptions(queue string, timeout time.Duration) []asynq.Option {
	opts := []asynq.Option{asynq.MaxRetry(3)}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return opts
}

func decodePayload(raw []byte) ([]export.Feed, error) {
	var payload ExportPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("jobs: decode payload: %w", err)
		}
	}
	return export.ParseFeeds(strings.Join(payload.Feeds, ","))
}
