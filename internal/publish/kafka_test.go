package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestSerializeSnapshot(t *testing.T) {
	scraped := time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC)

	msg, err := serializeSnapshot(conditions.Snapshot{
		Mountains:    []conditions.Record{{Name: conditions.Stowe, Status: conditions.StatusOpen}},
		ScrapedAt:    scraped,
		SuccessCount: 0,
		TotalCount:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("2026-01-15T07:00:00Z"), msg.Key)
	assert.Contains(t, string(msg.Value), `"name":"STOWE"`)
	assert.Contains(t, string(msg.Value), `"base":null`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "success_count", msg.Headers[0].Key)
	assert.Equal(t, []byte("0"), msg.Headers[0].Value)
	assert.Equal(t, "total_count", msg.Headers[1].Key)
	assert.Equal(t, []byte("1"), msg.Headers[1].Value)
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), conditions.Snapshot{TotalCount: 3}))
	require.Len(t, w.msgs, 1)

	w.err = errors.New("leader not available")
	err := p.Publish(context.Background(), conditions.Snapshot{})
	assert.ErrorContains(t, err, "leader not available")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
