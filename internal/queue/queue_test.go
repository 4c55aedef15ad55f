package queue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/newsletter-backend/internal/storage"
)

func fastQueue() *InMemoryQueue {
	q := NewInMemoryQueue()
	q.Backoff = time.Millisecond
	return q
}

func TestPublishWithoutSubscribers(t *testing.T) {
	q := fastQueue()
	err := q.Publish(context.Background(), "nobody", []byte(`{}`))
	assert.Error(t, err)
}

func TestInMemoryQueueRetries(t *testing.T) {
	q := fastQueue()
	var calls atomic.Int32
	require.NoError(t, q.Subscribe("jobs", func(body []byte) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "jobs", []byte(`{}`)))
	q.Wait()
	assert.Equal(t, int32(3), calls.Load())
}

func TestInMemoryQueueGivesUp(t *testing.T) {
	q := fastQueue()
	var calls atomic.Int32
	require.NoError(t, q.Subscribe("jobs", func(body []byte) error {
		calls.Add(1)
		return errors.New("permanent")
	}))

	require.NoError(t, q.Publish(context.Background(), "jobs", []byte(`{}`)))
	q.Wait()
	assert.Equal(t, int32(DefaultMaxRetries+1), calls.Load())
}

func TestImageCleanupSubscriber(t *testing.T) {
	q := fastQueue()
	store := storage.NewMemoryStore("")
	ctx := context.Background()

	_, ok := store.Upload(ctx, strings.NewReader("img"), "newsletter_1.jpg", "image/jpeg")
	require.True(t, ok)

	require.NoError(t, StartImageCleanupSubscriber(q, store))
	require.NoError(t, EnqueueImageCleanup(ctx, q, "newsletter_1.jpg"))
	q.Wait()

	assert.False(t, store.Has("newsletter_1.jpg"))
}

func TestHandleImageCleanup(t *testing.T) {
	store := storage.NewMemoryStore("")
	ctx := context.Background()

	assert.NoError(t, HandleImageCleanup(ctx, store, []byte(`not json`)))
	assert.NoError(t, HandleImageCleanup(ctx, store, []byte(`{"key":""}`)))

	store.FailDeletes(true)
	assert.Error(t, HandleImageCleanup(ctx, store, []byte(`{"key":"k.png"}`)))
	store.FailDeletes(false)
	assert.NoError(t, HandleImageCleanup(ctx, store, []byte(`{"key":"k.png"}`)))
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, retryCount(nil))
	assert.Equal(t, 2, retryCount(amqp.Table{retryHeader: int32(2)}))
	assert.Equal(t, 3, retryCount(amqp.Table{retryHeader: int64(3)}))
	assert.Equal(t, 0, retryCount(amqp.Table{retryHeader: "x"}))
}
