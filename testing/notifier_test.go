package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/tailwind-mail/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDispatchNotifier(t *testing.T) {
	ctx := context.Background()
	mock := NewMockDispatchNotifier()
	var _ services.DispatchNotifier = mock

	require.NoError(t, mock.NotifyBroadcast(ctx, services.BroadcastEvent{BroadcastID: 1, Slug: "launch", Messages: 3}))
	events := mock.GetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "launch", events[0].Slug)

	mock.Err = errors.New("broker down")
	assert.Error(t, mock.NotifyBroadcast(ctx, services.BroadcastEvent{BroadcastID: 2}))
	assert.Len(t, mock.GetEvents(), 1)
}
