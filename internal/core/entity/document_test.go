package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carworkshop/internal/core/apperror"
)

func TestDocument_Lifecycle(t *testing.T) {
	doc := NewDocument("Workshop Ltd")
	require.NoError(t, doc.Validate(context.Background()))
	assert.True(t, doc.IsDraft())
	assert.NoError(t, doc.CanModify())

	require.NoError(t, doc.MarkSubmitted())
	assert.Equal(t, StatusSubmitted, doc.Status)
	assert.Equal(t, 2, doc.Version)
	assert.True(t, apperror.IsDocumentFrozen(doc.CanModify()))

	// Submitting twice is rejected.
	assert.Error(t, doc.MarkSubmitted())

	require.NoError(t, doc.MarkCancelled())
	assert.Equal(t, StatusCancelled, doc.Status)
	assert.True(t, apperror.IsDocumentFrozen(doc.CanModify()))
}

func TestDocument_CancelDraftRejected(t *testing.T) {
	doc := NewDocument("Workshop Ltd")
	err := doc.MarkCancelled()
	require.Error(t, err)
	assert.True(t, doc.IsDraft())
}
