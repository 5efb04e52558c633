package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub, err := New(nil, "lesson.notifications", zap.New(core))
	require.NoError(t, err)
	_, ok := pub.(*LogPublisher)
	require.True(t, ok)

	require.NoError(t, pub.Publish(context.Background(), Message{ID: "1", Type: "lesson.cancelled", Key: "teacher-1", Payload: []byte(`{}`)}))
	assert.Equal(t, 1, logs.FilterMessage("notification").Len())
	assert.NoError(t, pub.Close())
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "topic")
	assert.Error(t, err)
	_, err = NewKafkaPublisher([]string{"localhost:9092"}, " ")
	assert.Error(t, err)

	pub, err := New([]string{"localhost:9092"}, "lesson.notifications", nil)
	require.NoError(t, err)
	_, ok := pub.(*KafkaPublisher)
	assert.True(t, ok)
	assert.NoError(t, pub.Close())
}
