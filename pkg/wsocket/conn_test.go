package wsocket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamshare/streamshare/pkg/wsocket"
)

// dialTestConn spins up a websocket endpoint, hands the server side of
// each connection to fn, and returns a connected client.
func dialTestConn(t *testing.T, fn func(*wsocket.Conn)) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		fn(wsocket.New(ws))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConn_SendFrames(t *testing.T) {
	t.Parallel()

	client := dialTestConn(t, func(c *wsocket.Conn) {
		require.NoError(t, c.SendText([]byte(`{"type":"headers","status":200}`)))
		require.NoError(t, c.SendBinary([]byte{0x01, 0x02, 0x03}))
		require.NoError(t, c.Close(websocket.CloseNormalClosure, "transfer complete"))
	})

	msgType, payload, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"type":"headers","status":200}`, string(payload))

	msgType, payload, err = client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, payload)

	_, _, err = client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"close frame must carry the normal closure code, got: %v", err)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	client := dialTestConn(t, func(c *wsocket.Conn) {
		require.NoError(t, c.Close(websocket.CloseNormalClosure, "done"))
		assert.NoError(t, c.Close(websocket.CloseInternalServerErr, "ignored"))
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server side never finished closing")
	}

	_, _, err := client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestConn_OnDisconnect(t *testing.T) {
	t.Parallel()

	t.Run("fires when the client goes away", func(t *testing.T) {
		t.Parallel()

		disconnected := make(chan struct{})
		client := dialTestConn(t, func(c *wsocket.Conn) {
			c.OnDisconnect(func() { close(disconnected) })
		})

		require.NoError(t, client.Close())

		select {
		case <-disconnected:
		case <-time.After(2 * time.Second):
			t.Fatal("disconnect callback never fired")
		}
	})

	t.Run("registration after disconnect fires immediately", func(t *testing.T) {
		t.Parallel()

		connCh := make(chan *wsocket.Conn, 1)
		first := make(chan struct{})
		client := dialTestConn(t, func(c *wsocket.Conn) {
			c.OnDisconnect(func() { close(first) })
			connCh <- c
		})

		c := <-connCh
		require.NoError(t, client.Close())

		select {
		case <-first:
		case <-time.After(2 * time.Second):
			t.Fatal("disconnect callback never fired")
		}

		late := make(chan struct{})
		c.OnDisconnect(func() { close(late) })
		select {
		case <-late:
		default:
			t.Fatal("late registration must run immediately")
		}
	})
}

func TestConn_SendAfterClientGone(t *testing.T) {
	t.Parallel()

	disconnected := make(chan struct{})
	connCh := make(chan *wsocket.Conn, 1)
	client := dialTestConn(t, func(c *wsocket.Conn) {
		c.OnDisconnect(func() { close(disconnected) })
		connCh <- c
	})

	c := <-connCh
	require.NoError(t, client.Close())
	<-disconnected

	// Delivery to a dead peer must fail, not hang: this is what lets the
	// broker prune broken subscribers.
	assert.Eventually(t, func() bool {
		return c.SendBinary([]byte("chunk")) != nil
	}, 2*time.Second, 10*time.Millisecond)
}
