package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttachmentsRoundTrip(t *testing.T) {
	m := NewMemoryAttachments()
	sum, err := m.Put("doc.pdf", []byte("payload"))
	require.NoError(t, err)
	assert.NotEmpty(t, sum)
	assert.True(t, m.Exists("doc.pdf"))

	data, err := m.Get("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestMemoryAttachmentsMissing(t *testing.T) {
	m := NewMemoryAttachments()
	_, err := m.Get("nope")
	require.Error(t, err)
	assert.False(t, m.Exists("nope"))
}

func TestStorePutGetAttachmentDelegates(t *testing.T) {
	s := New(nil, nil, nil)
	_, err := s.PutAttachment("a", []byte("bytes"))
	require.NoError(t, err)

	data, err := s.GetAttachment("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)
}
