package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAgent struct {
	mock.Mock
}

func (m *mockAgent) Respond(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newTestDriver(t *testing.T, agent Agent) (*Driver, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	t.Cleanup(store.Stop)
	return NewDriver(store, agent), store
}

func TestDriver_Send(t *testing.T) {
	ctx := context.Background()
	agent := &mockAgent{}
	agent.On("Respond", mock.Anything, "user: Book lunch").Return("What day?", nil).Once()
	agent.On("Respond", mock.Anything, "user: Book lunch\nassistant: What day?\nuser: Tomorrow").Return("Booked.", nil).Once()
	d, _ := newTestDriver(t, agent)

	reply, err := d.Send(ctx, "s1", "Book lunch")
	require.NoError(t, err)
	assert.Equal(t, "What day?", reply)

	reply, err = d.Send(ctx, "s1", "Tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "Booked.", reply)

	tr, err := d.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, tr, 4)
	agent.AssertExpectations(t)
}

func TestDriver_SendEmpty(t *testing.T) {
	agent := &mockAgent{}
	d, store := newTestDriver(t, agent)

	_, err := d.Send(context.Background(), "s1", "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, store.Len())
	agent.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything)
}

func TestDriver_AgentFailureKeepsUserTurn(t *testing.T) {
	ctx := context.Background()
	agent := &mockAgent{}
	agent.On("Respond", mock.Anything, mock.Anything).Return("", errors.New("model unreachable"))
	d, _ := newTestDriver(t, agent)

	_, err := d.Send(ctx, "s1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unreachable")

	tr, err := d.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Transcript{{Role: RoleUser, Content: "hello"}}, tr)
}

func TestDriver_ClearThenSend(t *testing.T) {
	ctx := context.Background()
	agent := &mockAgent{}
	d, store := newTestDriver(t, agent)

	agent.On("Respond", mock.Anything, "user: first").Return("one", nil).Once()
	_, err := d.Send(ctx, "s1", "first")
	require.NoError(t, err)

	require.NoError(t, d.Clear(ctx, "s1"))
	assert.Equal(t, 0, store.Len(), "clear deletes the stored transcript")
	tr, err := d.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, tr)

	// After a clear the agent only sees the new message.
	agent.On("Respond", mock.Anything, "user: second").Return("two", nil).Once()
	_, err = d.Send(ctx, "s1", "second")
	require.NoError(t, err)
	agent.AssertExpectations(t)
}

func TestDriver_Ensure(t *testing.T) {
	ctx := context.Background()
	d, store := newTestDriver(t, &mockAgent{})

	require.NoError(t, d.Ensure(ctx, "s1"))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Save(ctx, "s1", Transcript{}.Append(RoleUser, "kept")))
	require.NoError(t, d.Ensure(ctx, "s1"))
	tr, err := d.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, tr, 1)
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, string) (Transcript, error) { return nil, f.err }
func (f failingStore) Save(context.Context, string, Transcript) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error             { return f.err }

func TestDriver_StoreFailure(t *testing.T) {
	agent := &mockAgent{}
	d := NewDriver(failingStore{err: errors.New("valkey down")}, agent)

	_, err := d.Send(context.Background(), "s1", "hello")
	assert.ErrorContains(t, err, "valkey down")
	assert.Error(t, d.Clear(context.Background(), "s1"))
	agent.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything)
}
