package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vocabulary() []TicketStatus {
	return []TicketStatus{
		{ID: 1, Name: StatusReserved},
		{ID: 2, Name: StatusPaid},
		{ID: 3, Name: StatusCancelled},
		{ID: 4, Name: StatusRefunded},
	}
}

func TestNewStatusSet(t *testing.T) {
	s, err := NewStatusSet(vocabulary())
	require.NoError(t, err)

	assert.Equal(t, uint8(1), s.IDOf(StatusReserved))
	assert.Equal(t, StatusPaid, s.NameOf(2))
	assert.Empty(t, s.NameOf(99))

	assert.False(t, s.IsTerminal(s.IDOf(StatusReserved)))
	assert.False(t, s.IsTerminal(s.IDOf(StatusPaid)))
	assert.True(t, s.IsTerminal(s.IDOf(StatusCancelled)))
	assert.True(t, s.IsTerminal(s.IDOf(StatusRefunded)))
}

func TestNewStatusSetMissingStatus(t *testing.T) {
	rows := vocabulary()[:3] // drop REFUNDED
	_, err := NewStatusSet(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), StatusRefunded)
}

func TestIDOfUnknownPanics(t *testing.T) {
	s, err := NewStatusSet(vocabulary())
	require.NoError(t, err)
	assert.Panics(t, func() { s.IDOf("PENDING") })
}
