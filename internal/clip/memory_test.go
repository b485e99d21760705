package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory("")
	assert.Equal(t, "memory", m.Name())

	text, err := m.ReadText()
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, m.WriteText("hello"))
	text, err = m.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 1, m.Writes())

	m.Set("external")
	text, _ = m.ReadText()
	assert.Equal(t, "external", text)
	assert.Equal(t, 1, m.Writes(), "Set is not a WriteText")
}

func TestMemoryInjectedFailures(t *testing.T) {
	m := NewMemory("fake")
	m.Set("kept")

	m.FailReads(true)
	_, err := m.ReadText()
	assert.ErrorIs(t, err, ErrUnavailable)
	m.FailReads(false)

	m.FailWrites(true)
	assert.ErrorIs(t, m.WriteText("lost"), ErrUnavailable)
	m.FailWrites(false)

	text, err := m.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "kept", text)
}

var _ Backend = (*Memory)(nil)
