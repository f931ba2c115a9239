package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCloser struct {
	name  string
	order *[]string
	err   error
}

func (c *recordingCloser) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestCleanupRun(t *testing.T) {
	api := newFakeAPI()
	svc, agent := newTestAgent(t, api)
	ctx := context.Background()

	thread := svc.NewThread()
	_, err := agent.Invoke(ctx, thread, "hello")
	require.NoError(t, err)

	var order []string
	cleanup := &Cleanup{
		Thread:     thread,
		Agent:      agent,
		Client:     &recordingCloser{name: "client", order: &order},
		Credential: &recordingCloser{name: "credential", order: &order},
	}

	require.NoError(t, cleanup.Run(ctx))
	assert.Empty(t, thread.ID())
	assert.Empty(t, agent.ID())
	assert.Empty(t, api.threads)
	assert.Empty(t, api.assistants)
	assert.Equal(t, []string{"client", "credential"}, order)

	require.NoError(t, cleanup.Run(ctx), "second run is harmless")
	assert.Equal(t, 1, api.deleteThreadCalls)
	assert.Equal(t, 1, api.deleteAssistantCalls)
}

func TestCleanupRunNothingCreated(t *testing.T) {
	api := newFakeAPI()
	svc, _ := newTestService(api)

	cleanup := &Cleanup{Thread: svc.NewThread(), Agent: NewAgent(svc, nil)}
	require.NoError(t, cleanup.Run(context.Background()))
	require.NoError(t, (&Cleanup{}).Run(context.Background()))

	assert.Equal(t, 0, api.deleteThreadCalls)
	assert.Equal(t, 0, api.deleteAssistantCalls)
}

func TestCleanupRunContinuesPastFailures(t *testing.T) {
	api := newFakeAPI()
	svc, agent := newTestAgent(t, api)
	ctx := context.Background()

	thread := svc.AttachThread("thread_7")
	api.failDeletes = errors.New("service unavailable")

	var order []string
	credErr := errors.New("credential busy")
	err := (&Cleanup{
		Thread:     thread,
		Agent:      agent,
		Client:     &recordingCloser{name: "client", order: &order},
		Credential: &recordingCloser{name: "credential", order: &order, err: credErr},
	}).Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, credErr)
	assert.Contains(t, err.Error(), "cleanup thread")
	assert.Contains(t, err.Error(), "cleanup agent")
	assert.Equal(t, []string{"client", "credential"}, order, "later steps still run")
	assert.Equal(t, "thread_7", thread.ID())
	assert.NotEmpty(t, agent.ID())
}

func TestSweep(t *testing.T) {
	api := newFakeAPI()
	store := ledger.NewMemoryStore()
	ctx := context.Background()

	previous, previousLedger := newTestServiceOn(api, store)
	def, err := previous.CreateAgent(ctx, config.DefaultAgentDefinition())
	require.NoError(t, err)
	agent := NewAgent(previous, def)

	_, err = agent.Invoke(ctx, previous.NewThread(), "one")
	require.NoError(t, err)
	_, err = agent.Invoke(ctx, previous.NewThread(), "two")
	require.NoError(t, err)
	require.NoError(t, previousLedger.Record(ctx, ledger.KindThread, "thread_stale"))
	require.NoError(t, previousLedger.Close(ctx))

	sweeper, _ := newTestServiceOn(api, store)
	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Empty(t, api.threads)
	assert.Empty(t, api.assistants)

	for _, kind := range []ledger.Kind{ledger.KindThread, ledger.KindAgent} {
		left, err := previousLedger.List(ctx, kind)
		require.NoError(t, err)
		assert.Empty(t, left)
	}

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "emptied session is pruned")
}

func TestSweepLeavesRunningSessionsAlone(t *testing.T) {
	api := newFakeAPI()
	store := ledger.NewMemoryStore()
	ctx := context.Background()

	serving, servingLedger := newTestServiceOn(api, store)
	created, err := serving.CreateAgent(ctx, config.DefaultAgentDefinition())
	require.NoError(t, err)

	sweeper, _ := newTestServiceOn(api, store)
	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Contains(t, api.assistants, created.ID)

	require.NoError(t, servingLedger.Close(ctx))

	removed, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, api.assistants, created.ID)
}

func TestSweepSkipsOwnSession(t *testing.T) {
	api := newFakeAPI()
	svc, _ := newTestService(api)

	_, err := svc.CreateAgent(context.Background(), config.DefaultAgentDefinition())
	require.NoError(t, err)

	removed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Len(t, api.assistants, 1)
}
