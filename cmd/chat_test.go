package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	sent    []string
	clears  int
	replies []string
	err     error
}

func (f *fakeSession) Send(_ context.Context, _ string, message string) (string, error) {
	f.sent = append(f.sent, message)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeSession) Clear(context.Context, string) error {
	f.clears++
	return nil
}

func TestRunREPL(t *testing.T) {
	in := strings.NewReader("Book lunch tomorrow\n\n   \nAt noon please\nQUIT\nnever sent\n")
	var out bytes.Buffer
	session := &fakeSession{replies: []string{"What time?", "Done, lunch is booked."}}

	require.NoError(t, runREPL(context.Background(), in, &out, session, "s1"))

	assert.Equal(t, []string{"Book lunch tomorrow", "At noon please"}, session.sent)
	assert.Contains(t, out.String(), "Agent: What time?\n")
	assert.Contains(t, out.String(), "Agent: Done, lunch is booked.\n")
	assert.True(t, strings.HasPrefix(out.String(), "User: "))
}

func TestRunREPL_Clear(t *testing.T) {
	in := strings.NewReader("hello\nclear\nexit\n")
	var out bytes.Buffer
	session := &fakeSession{}

	require.NoError(t, runREPL(context.Background(), in, &out, session, "s1"))

	assert.Equal(t, 1, session.clears)
	assert.Equal(t, []string{"hello"}, session.sent)
	assert.Contains(t, out.String(), "Conversation cleared.")
}

func TestRunREPL_ErrorContinues(t *testing.T) {
	in := strings.NewReader("first\nsecond\n")
	var out bytes.Buffer
	session := &fakeSession{err: errors.New("model unreachable")}

	require.NoError(t, runREPL(context.Background(), in, &out, session, "s1"))

	assert.Len(t, session.sent, 2)
	assert.Equal(t, 2, strings.Count(out.String(), "Agent error: model unreachable\n"))
}

func TestRunREPL_EOF(t *testing.T) {
	var out bytes.Buffer
	session := &fakeSession{}

	require.NoError(t, runREPL(context.Background(), strings.NewReader(""), &out, session, "s1"))
	assert.Empty(t, session.sent)
	assert.Equal(t, "User: \n", out.String())
}

func TestRunREPL_LongLine(t *testing.T) {
	long := strings.Repeat("a", 100*1024)
	in := strings.NewReader(long + "\nexit\n")
	var out bytes.Buffer
	session := &fakeSession{}

	require.NoError(t, runREPL(context.Background(), in, &out, session, "s1"))
	require.Len(t, session.sent, 1)
	assert.Len(t, session.sent[0], len(long))
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	session := &fakeSession{}

	require.NoError(t, runREPL(context.Background(), strings.NewReader("hello\nbye for now"), &out, session, "s1"))
	assert.Equal(t, []string{"hello", "bye for now"}, session.sent)
	assert.True(t, strings.HasSuffix(out.String(), "User: \n"))
}
