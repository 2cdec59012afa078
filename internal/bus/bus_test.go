package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishWakesSubscriber(t *testing.T) {
	srv, err := StartEmbeddedServer()
	require.NoError(t, err)
	defer srv.Shutdown()

	b, err := Connect(srv.URL())
	require.NoError(t, err)
	defer b.Close()

	woke := make(chan struct{}, 1)
	sub, err := b.Subscribe(func() {
		select {
		case woke <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, b.Publish(context.Background()))

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}
}

func TestNoopNeverBlocksOrErrors(t *testing.T) {
	var n Noop
	require.NoError(t, n.Publish(context.Background()))
	sub, err := n.Subscribe(func() {})
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, n.Close())
}
