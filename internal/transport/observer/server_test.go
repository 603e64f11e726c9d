package observer

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"antmania.dev/internal/protocol"
)

func newTestServer(t *testing.T, h *Hub) string {
	t.Helper()
	srv := httptest.NewServer(NewServer(h, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialObserver(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readRecord(t *testing.T, conn *websocket.Conn) protocol.Record {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	rec, err := protocol.DecodeRecord(b)
	if err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return rec
}

func readHello(t *testing.T, conn *websocket.Conn) protocol.HelloMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var hello protocol.HelloMsg
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != protocol.TypeHello {
		t.Fatalf("first message type = %q, want HELLO", hello.Type)
	}
	return hello
}

func wantClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, code) {
		t.Fatalf("err = %v, want close %d", err, code)
	}
}

func TestSubscribeReplaysBacklogThenCloses(t *testing.T) {
	h := NewHub(64, 4)
	h.Append(startRec("r-obs"))
	h.Append(destroyedRec(1, 2, "Kel"))
	url := newTestServer(t, h)

	conn := dialObserver(t, url)
	if err := conn.WriteJSON(subMsg(0, false)); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hello := readHello(t, conn)
	if hello.RunID != "r-obs" || hello.LastSeq != 1 {
		t.Fatalf("hello = %+v", hello)
	}
	if _, ok := readRecord(t, conn).(*protocol.RunStart); !ok {
		t.Fatal("first record is not RUN_START")
	}
	d, ok := readRecord(t, conn).(*protocol.Destroyed)
	if !ok || d.SiteName != "Kel" {
		t.Fatalf("second record = %#v", d)
	}
	wantClose(t, conn, websocket.CloseNormalClosure)
}

func TestFirstMessageMustBeSubscribe(t *testing.T) {
	url := newTestServer(t, NewHub(8, 2))

	conn := dialObserver(t, url)
	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version}); err != nil {
		t.Fatalf("write: %v", err)
	}
	wantClose(t, conn, websocket.ClosePolicyViolation)
}

func TestSubscribeVersionChecked(t *testing.T) {
	url := newTestServer(t, NewHub(8, 2))

	conn := dialObserver(t, url)
	bad := subMsg(0, false)
	bad.ProtocolVersion = "0.9"
	if err := conn.WriteJSON(bad); err != nil {
		t.Fatalf("write: %v", err)
	}
	wantClose(t, conn, websocket.ClosePolicyViolation)
}

func TestFollowerStreamsLiveRecords(t *testing.T) {
	h := NewHub(64, 4)
	h.Append(startRec("r-live"))
	url := newTestServer(t, h)

	conn := dialObserver(t, url)
	if err := conn.WriteJSON(subMsg(0, true)); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	readHello(t, conn)
	if _, ok := readRecord(t, conn).(*protocol.RunStart); !ok {
		t.Fatal("backlog record is not RUN_START")
	}

	// Wait for the hub to register the follower before appending.
	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("clients = %d, want 1", h.ClientCount())
	}

	h.Append(destroyedRec(1, 4, "Vex"))
	d, ok := readRecord(t, conn).(*protocol.Destroyed)
	if !ok || d.SiteName != "Vex" {
		t.Fatalf("live record = %#v", d)
	}

	h.Append(&protocol.RunEnd{Type: protocol.TypeRunEnd, Seq: 2, Ticks: 4})
	if _, ok := readRecord(t, conn).(*protocol.RunEnd); !ok {
		t.Fatal("want RUN_END")
	}
	wantClose(t, conn, websocket.CloseNormalClosure)
	if h.ClientCount() != 0 {
		t.Fatalf("clients = %d, want 0", h.ClientCount())
	}
}

func TestFollowOnFinishedRunGetsRunOver(t *testing.T) {
	h := NewHub(8, 2)
	h.Append(startRec("r-done"))
	h.Append(&protocol.RunEnd{Type: protocol.TypeRunEnd, Seq: 1})
	url := newTestServer(t, h)

	conn := dialObserver(t, url)
	if err := conn.WriteJSON(subMsg(0, true)); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	readHello(t, conn)
	readRecord(t, conn) // RUN_START
	readRecord(t, conn) // RUN_END

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var errMsg protocol.ErrorMsg
	if err := conn.ReadJSON(&errMsg); err != nil {
		t.Fatalf("read error msg: %v", err)
	}
	if errMsg.Type != protocol.TypeError || errMsg.Code != protocol.ErrRunOver {
		t.Fatalf("error = %+v", errMsg)
	}
	wantClose(t, conn, websocket.CloseNormalClosure)
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:5000", true},
		{"[::1]:5000", true},
		{"10.0.0.5:1", false},
		{"203.0.113.9:80", false},
		{"not-an-ip:80", false},
	}
	for _, c := range cases {
		if got := isLoopbackRemote(c.addr); got != c.want {
			t.Fatalf("isLoopbackRemote(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}
