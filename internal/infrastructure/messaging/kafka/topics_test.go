package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
)

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func TestEventEnvelope_RoundTrip(t *testing.T) {
	payload := ResolvedPayload{Query: "VITAMIN C", Substance: "ASCORBIC ACID", Method: "search", Confidence: "High", Similarity: 0.91}
	env, err := NewEventEnvelope(EventTypeResolved, "additivelens", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	msg, err := env.ToMessage(TopicAdditiveResolved, payload.Substance)
	require.NoError(t, err)
	assert.Equal(t, "ASCORBIC ACID", string(msg.Key))
	assert.Equal(t, env.EventID, msg.Headers["event_id"])

	decoded, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	var got ResolvedPayload
	require.NoError(t, decoded.DecodePayload(&got))
	assert.Equal(t, payload, got)
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte("{"))
	assert.Error(t, err)
}

func TestCreateTopic_Success(t *testing.T) {
	var created []kafka.TopicConfig
	m := &TopicManager{
		conn: &mockKafkaConn{createFunc: func(topics ...kafka.TopicConfig) error {
			created = append(created, topics...)
			return nil
		}},
		logger: logging.NewNopLogger(),
	}

	require.NoError(t, m.EnsureTopics(context.Background(), DefaultTopics(0)))
	require.Len(t, created, 2)
	assert.Equal(t, TopicAdditiveResolved, created[0].Topic)
	assert.Equal(t, 1, created[0].ReplicationFactor)
	assert.Equal(t, "retention.ms", created[0].ConfigEntries[0].ConfigName)
}

func TestCreateTopic_AlreadyExists(t *testing.T) {
	m := &TopicManager{
		conn: &mockKafkaConn{
			createFunc: func(...kafka.TopicConfig) error { return errors.New("exists") },
			readFunc: func(...string) ([]kafka.Partition, error) {
				return []kafka.Partition{{Topic: TopicAdditiveResolved}}, nil
			},
		},
		logger: logging.NewNopLogger(),
	}
	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: TopicAdditiveResolved, NumPartitions: 1, ReplicationFactor: 1}))
}

func TestCreateTopic_Validation(t *testing.T) {
	m := &TopicManager{conn: &mockKafkaConn{}, logger: logging.NewNopLogger()}
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "x"}))
}
