package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// TopicImageCleanup carries storage keys whose inline delete failed.
const TopicImageCleanup = "newsletter_image_cleanup"

type CleanupJob struct {
	Key string `json:"key"`
}

// BlobDeleter is the part of the object store the cleanup subscriber needs.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) bool
}

func EnqueueImageCleanup(ctx context.Context, q Queue, key string) error {
	body, err := json.Marshal(CleanupJob{Key: key})
	if err != nil {
		return err
	}
	return q.Publish(ctx, TopicImageCleanup, body)
}

// HandleImageCleanup deletes the blob named in body. Malformed jobs are
// dropped; a failed delete returns an error so the queue retries.
func HandleImageCleanup(ctx context.Context, store BlobDeleter, body []byte) error {
	var job CleanupJob
	if err := json.Unmarshal(body, &job); err != nil || job.Key == "" {
		slog.Warn("dropping malformed cleanup job", "body", string(body))
		return nil
	}
	if !store.Delete(ctx, job.Key) {
		return fmt.Errorf("delete %s failed", job.Key)
	}
	slog.Info("orphaned image removed", "key", job.Key)
	return nil
}

func StartImageCleanupSubscriber(q Queue, store BlobDeleter) error {
	return q.Subscribe(TopicImageCleanup, func(body []byte) error {
		return HandleImageCleanup(context.Background(), store, body)
	})
}
