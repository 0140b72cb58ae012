package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript_Flatten(t *testing.T) {
	var tr Transcript
	tr = tr.Append(RoleUser, "Book lunch with Sam")
	tr = tr.Append(RoleAssistant, "What day?")
	tr = tr.Append(RoleUser, "Tomorrow at noon")
	tr = tr.Append(RoleAssistant, "Done.")

	flat := tr.Flatten()
	lines := strings.Split(flat, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, []string{
		"user: Book lunch with Sam",
		"assistant: What day?",
		"user: Tomorrow at noon",
		"assistant: Done.",
	}, lines)
}

func TestTranscript_FlattenEmpty(t *testing.T) {
	assert.Equal(t, "", Transcript{}.Flatten())
	assert.Equal(t, "", Transcript(nil).Flatten())
}

func TestTranscript_CloneIsIndependent(t *testing.T) {
	orig := Transcript{{Role: RoleUser, Content: "a"}}
	c := orig.clone()
	c[0].Content = "b"
	assert.Equal(t, "a", orig[0].Content)

	assert.NotNil(t, Transcript(nil).clone())
}
