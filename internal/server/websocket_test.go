package server

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/rpc"
	"github.com/VladGeana/radar/internal/warning"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// frame is the union of requests, notifications and responses as seen by
// a test client.
type frame struct {
	Id        string           `json:"id,omitempty"`
	RequestId string           `json:"requestId,omitempty"`
	Method    string           `json:"method,omitempty"`
	Params    *json.RawMessage `json:"params,omitempty"`
	Result    *json.RawMessage `json:"result,omitempty"`
	Error     *json.RawMessage `json:"error,omitempty"`
}

func newWebSocketTestServer(t *testing.T, stack *testStack) *httptest.Server {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	upgrader := &websocket.Upgrader{}

	wsServer := NewWebSocketServer(logger, upgrader, stack.registry, stack.broker, stack.reporter, stack.router)

	mainRouter := mux.NewRouter()
	wsServer.Register(mainRouter)

	server := httptest.NewServer(mainRouter)
	t.Cleanup(server.Close)

	return server
}

func wsURL(t *testing.T, server *httptest.Server, query string) string {
	t.Helper()

	u, err := url.Parse(server.URL)
	assert.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/socket"
	u.RawQuery = query

	return u.String()
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	err := conn.ReadJSON(&f)
	assert.NoError(t, err)

	return f
}

func waitForMethod(t *testing.T, conn *websocket.Conn, method string) frame {
	t.Helper()

	for i := 0; i < 10; i++ {
		f := readFrame(t, conn)
		if f.Method == method {
			return f
		}
	}

	t.Fatalf("did not receive %q notification", method)
	return frame{}
}

func waitForReply(t *testing.T, conn *websocket.Conn, requestId string) frame {
	t.Helper()

	for i := 0; i < 10; i++ {
		f := readFrame(t, conn)
		if f.RequestId == requestId {
			return f
		}
	}

	t.Fatalf("did not receive reply to request %q", requestId)
	return frame{}
}

func TestWebSocketServer(t *testing.T) {
	t.Run("pending warning flushes on reconnect", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		outcome := stack.broker.Notify("V1", warning.New("V1", []string{"2020-05-02"}, "R1", ""))
		assert.Equal(t, broker.OutcomeQueued, outcome)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "visitor=V1&id=s2"), nil)
		assert.NoError(t, err)
		defer conn.Close()

		alert := waitForMethod(t, conn, broker.EventExposureAlert)

		var delivery warning.Delivery
		assert.NoError(t, json.Unmarshal(*alert.Params, &delivery))
		assert.Equal(t, warning.Delivery{
			Visitor:       "V1",
			ExposureDates: []string{"2020-05-02"},
			Room:          "",
		}, delivery)

		// The queue is consumed by the flush.
		assert.Empty(t, stack.broker.QueryPending(presence.KindVisitor, "V1"))

		// Connecting also republishes the group's occupancy.
		occupancy := waitForMethod(t, conn, broker.EventUpdatedOccupancy)

		var update broker.OccupancyUpdate
		assert.NoError(t, json.Unmarshal(*occupancy.Params, &update))
		assert.Equal(t, broker.OccupancyUpdate{Room: "V1", Occupancy: 1}, update)
	})

	t.Run("warning to online room arrives as notifyRoom", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R1&id=s1"), nil)
		assert.NoError(t, err)
		defer conn.Close()

		waitForMethod(t, conn, broker.EventUpdatedOccupancy)

		submit := `{"id":"2","method":"submitWarning","params":{"recipient":"R1","exposureDates":["2020-05-01"],"room":"R1","visitor":"V2"}}`
		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(submit)))

		notice := waitForMethod(t, conn, broker.EventNotifyRoom)

		var delivery warning.Delivery
		assert.NoError(t, json.Unmarshal(*notice.Params, &delivery))
		assert.Equal(t, warning.Delivery{
			Visitor:       "V2",
			ExposureDates: []string{"2020-05-01"},
			Room:          "R1",
		}, delivery)

		reply := waitForReply(t, conn, "2")
		assert.Nil(t, reply.Error)

		var submitResponse struct {
			Outcome broker.Outcome `json:"outcome"`
		}
		assert.NoError(t, json.Unmarshal(*reply.Result, &submitResponse))
		assert.Equal(t, broker.OutcomeDelivered, submitResponse.Outcome)
	})

	t.Run("heartbeat", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R9&id=s9"), nil)
		assert.NoError(t, err)
		defer conn.Close()

		request := `{"id":"1","method":"heartbeat"}`
		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(request)))

		reply := waitForReply(t, conn, "1")
		assert.Nil(t, reply.Error)
		assert.NotNil(t, reply.Result)
	})

	t.Run("enterRoom raises occupancy for everyone", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		roomConn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R2&id=s1"), nil)
		assert.NoError(t, err)
		defer roomConn.Close()

		waitForMethod(t, roomConn, broker.EventUpdatedOccupancy)

		visitorConn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "visitor=V1&id=s2"), nil)
		assert.NoError(t, err)
		defer visitorConn.Close()

		enter := `{"id":"3","method":"enterRoom","params":{"room":"R2"}}`
		assert.NoError(t, visitorConn.WriteMessage(websocket.TextMessage, []byte(enter)))

		reply := waitForReply(t, visitorConn, "3")
		assert.Nil(t, reply.Error)

		var enterResponse struct {
			Room      string `json:"room"`
			Occupancy int    `json:"occupancy"`
		}
		assert.NoError(t, json.Unmarshal(*reply.Result, &enterResponse))
		assert.Equal(t, "R2", enterResponse.Room)
		assert.Equal(t, 2, enterResponse.Occupancy)

		// The room connection sees the same count via the broadcast.
		for i := 0; i < 10; i++ {
			occupancy := waitForMethod(t, roomConn, broker.EventUpdatedOccupancy)

			var update broker.OccupancyUpdate
			assert.NoError(t, json.Unmarshal(*occupancy.Params, &update))
			if update.Room == "R2" && update.Occupancy == 2 {
				return
			}
		}
		t.Fatal("room connection never observed occupancy 2 for R2")
	})

	t.Run("ambiguous identity rejected before upgrade", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R1&visitor=V1"), nil)

		assert.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("missing identity rejected", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(t, server, "id=s1"), nil)

		assert.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("duplicate connection id closed with an error", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		first, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R1&id=s1"), nil)
		assert.NoError(t, err)
		defer first.Close()

		second, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "visitor=V1&id=s1"), nil)
		assert.NoError(t, err)
		defer second.Close()

		f := readFrame(t, second)
		assert.NotNil(t, f.Error)

		// The first registration is untouched.
		assert.True(t, stack.registry.IsOnline("R1"))
		assert.False(t, stack.registry.IsOnline("V1"))
	})

	t.Run("malformed frame closes the connection", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R1&id=s1"), nil)
		assert.NoError(t, err)
		defer conn.Close()

		waitForMethod(t, conn, broker.EventUpdatedOccupancy)

		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not-json")))

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		// The registry eventually forgets the connection.
		deadline := time.Now().Add(2 * time.Second)
		for stack.registry.IsOnline("R1") && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		assert.False(t, stack.registry.IsOnline("R1"))
	})

	t.Run("unknown method returns NotFound", func(t *testing.T) {
		stack := newTestStack(t)
		server := newWebSocketTestServer(t, stack)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "room=R1&id=s1"), nil)
		assert.NoError(t, err)
		defer conn.Close()

		request := `{"id":"4","method":"teleport"}`
		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(request)))

		reply := waitForReply(t, conn, "4")
		assert.NotNil(t, reply.Error)

		var rpcError struct {
			Code string `json:"code"`
		}
		assert.NoError(t, json.Unmarshal(*reply.Error, &rpcError))
		assert.Equal(t, "NotFound", rpcError.Code)
	})
}

// Guards against response frames sneaking past the writer goroutine: every
// reply must be marshallable as an rpc.Response.
func TestResponseWireShape(t *testing.T) {
	payload := json.RawMessage(`{"status":"ok"}`)
	response := rpc.Request{Id: "7", Method: "heartbeat"}.Reply(&payload)

	encoded, err := json.Marshal(response)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"requestId":"7","result":{"status":"ok"}}`, string(encoded))
}
