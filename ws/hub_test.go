package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub mở một ws client vào hub cho userID, trả về conn phía client
// và conn phía server (để test gọi Unregister như handler thật).
func dialHub(t *testing.T, userID string) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		H.Register(userID, conn)
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	var server *websocket.Conn
	select {
	case server = <-serverConns:
	case <-time.After(2 * time.Second):
		t.Fatal("server không nhận được kết nối ws")
	}
	return client, server
}

func registeredConns(userID string) int {
	H.Mutex.RLock()
	defer H.Mutex.RUnlock()
	return len(H.Clients[userID])
}

func TestSendLiveLinesReachesRegisteredClient(t *testing.T) {
	client, server := dialHub(t, "ws-user-1")
	defer H.Unregister("ws-user-1", server)

	require.Equal(t, 1, registeredConns("ws-user-1"))

	SendLiveLines("ws-user-1", []string{"dòng một", "dòng hai"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)

	var update LiveTranscriptUpdate
	require.NoError(t, json.Unmarshal(msg, &update))
	assert.Equal(t, "live_transcript", update.Type)
	assert.Equal(t, []string{"dòng một", "dòng hai"}, update.Lines)
}

func TestBroadcastOnlyTargetsOwnUser(t *testing.T) {
	clientA, serverA := dialHub(t, "ws-user-a")
	clientB, serverB := dialHub(t, "ws-user-b")
	defer H.Unregister("ws-user-a", serverA)
	defer H.Unregister("ws-user-b", serverB)

	SendLiveLines("ws-user-a", []string{"chỉ cho A"})

	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := clientA.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "chỉ cho A")

	// B không nhận gì: read phải timeout
	require.NoError(t, clientB.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = clientB.ReadMessage()
	assert.Error(t, err)
}

func TestUnregisterClosesConnectionAndCleansUp(t *testing.T) {
	client, server := dialHub(t, "ws-user-2")

	H.Unregister("ws-user-2", server)
	assert.Equal(t, 0, registeredConns("ws-user-2"))

	// writePump thoát và đóng conn: client đọc ra lỗi close
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)

	// Gửi sau khi unregister không panic, chỉ rơi vào khoảng không
	SendLiveLines("ws-user-2", []string{"không ai nhận"})
}
