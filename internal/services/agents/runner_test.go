package agents

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerInvoke(t *testing.T) {
	api := newFakeAPI()
	api.runMessages = []openai.Message{textMessage("msg_1", "ok")}
	svc, agent := newTestAgent(t, api)
	runner := NewRunner(svc, agent)
	ctx := context.Background()

	threadID, items, err := runner.Invoke(ctx, "", "first", nil)
	require.NoError(t, err)
	require.NotEmpty(t, threadID)
	assert.Len(t, items, 1)

	again, _, err := runner.Invoke(ctx, threadID, "second", nil)
	require.NoError(t, err)
	assert.Equal(t, threadID, again)
	assert.Equal(t, []string{"first", "second"}, api.posted[threadID])

	require.NoError(t, runner.DeleteThread(ctx, threadID))
	require.NoError(t, runner.DeleteThread(ctx, threadID))
	assert.Empty(t, api.threads)
}

func TestRunnerInvokeUnknownThread(t *testing.T) {
	api := newFakeAPI()
	svc, agent := newTestAgent(t, api)

	threadID, _, err := NewRunner(svc, agent).Invoke(context.Background(), "thread_unknown", "hi", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "thread_unknown", threadID)
}
