package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/jobs"
)

type recordingClient struct {
	tasks  []*asynq.Task
	closed bool
}

func (c *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{ID: "t-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (c *recordingClient) Close() error {
	c.closed = true
	return nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }
func (s stubInspector) Close() error                                  { return nil }

func TestTriggerOverdueSweep(t *testing.T) {
	client := &recordingClient{}
	c := &JobsCLI{client: client}

	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	info, err := c.Trigger(context.Background(), jobs.TaskInvoicesOverdueSweep, asOf)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskInvoicesOverdueSweep, info.Type)

	require.Len(t, client.tasks, 1)
	var payload jobs.OverdueSweepPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.True(t, asOf.Equal(payload.AsOf))

	_, err = c.Trigger(context.Background(), jobs.TaskInventoryStockSnapshot, time.Time{})
	require.NoError(t, err)
	assert.Len(t, client.tasks, 2)

	_, err = c.Trigger(context.Background(), "mail:send", time.Time{})
	require.Error(t, err)

	require.NoError(t, c.Close())
	assert.True(t, client.closed)
}

func TestInspectQueue(t *testing.T) {
	c := &JobsCLI{inspector: stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 3, Retry: 1}}}
	stats, err := c.InspectQueue()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 1, stats.Retry)

	var out bytes.Buffer
	require.NoError(t, renderStats(&out, stats, false))
	assert.Equal(t, "queue=default pending=3 active=0 scheduled=0 retry=1 archived=0\n", out.String())

	out.Reset()
	require.NoError(t, renderStats(&out, stats, true))
	var decoded QueueStats
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, stats, decoded)

	failing := &JobsCLI{inspector: stubInspector{err: errors.New("dial tcp: refused")}}
	_, err = failing.InspectQueue()
	require.Error(t, err)
}

func TestParseAsOf(t *testing.T) {
	at, err := parseAsOf("")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	at, err = parseAsOf("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), at)

	_, err = parseAsOf("29/02/2024")
	require.Error(t, err)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"jobs", "trigger"}, {"jobs", "stats"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
