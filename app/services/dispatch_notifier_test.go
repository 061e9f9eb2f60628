package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopDispatchNotifier(t *testing.T) {
	n := NewNoopDispatchNotifier()
	assert.NoError(t, n.NotifyBroadcast(context.Background(), BroadcastEvent{BroadcastID: 1}))
	assert.NoError(t, n.Close())
}
