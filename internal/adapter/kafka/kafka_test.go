package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/radar-composite/internal/job"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRaw(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("job-1"),
		Value:     []byte(`{"id":"job-1","inputs":["a.rcf"]}`),
		Topic:     "composite-jobs",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "requested_by", Value: []byte("scheduler")},
		},
	}

	raw := mapMessageToRaw(msg)

	assert.Equal(t, []byte("job-1"), raw.Key)
	assert.JSONEq(t, `{"id":"job-1","inputs":["a.rcf"]}`, string(raw.Value))
	assert.Equal(t, "composite-jobs", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "scheduler", raw.Headers["requested_by"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 3, 0, 0, time.UTC)
	c := job.Completion{
		JobID:        "job-1",
		Path:         "/data/out/job-1.rcf",
		Product:      "PCAPPI",
		Area:         "swegmaps_2000",
		Nodes:        "'sekkr','seang'",
		Contributors: 2,
		ProcessedAt:  now,
	}

	msg, err := serializeToMessage(c)
	require.NoError(t, err)

	assert.Equal(t, []byte("job-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"path":"/data/out/job-1.rcf"`)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "product", msg.Headers[0].Key)
	assert.Equal(t, []byte("PCAPPI"), msg.Headers[0].Value)
	assert.Equal(t, "area", msg.Headers[1].Key)
	assert.Equal(t, []byte("2"), msg.Headers[2].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[3].Value)

	var back job.Completion
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, c, back)
}
