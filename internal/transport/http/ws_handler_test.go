package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketOnePassFlow(t *testing.T) {
	router := newTestRouter()
	testID := seedSampleTest(t, router)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialWS(t, server, "testId="+strconv.FormatInt(testID, 10))
	defer conn.Close()

	_, payload := readNext(conn, t, "questions")
	questions, ok := payload["questions"].([]any)
	if !ok || len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %+v", payload["questions"])
	}
	first := questions[0].(map[string]any)
	if _, leaked := first["correctKey"]; leaked {
		t.Fatalf("correct key must not be sent to respondents")
	}
	firstID := strconv.FormatFloat(first["id"].(float64), 'f', 0, 64)

	// Only the first question answered: 2 of 5 points.
	if err := conn.WriteJSON(map[string]any{
		"type":    "submit",
		"payload": map[string]any{"answers": map[string]any{firstID: "x"}},
	}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	_, graded := readNext(conn, t, "graded")
	if graded["totalScore"].(float64) != 2 || graded["maxScore"].(float64) != 5 {
		t.Fatalf("unexpected result %+v", graded)
	}

	if err := conn.WriteJSON(map[string]any{"type": "submit", "payload": map[string]any{"answers": map[string]any{}}}); err != nil {
		t.Fatalf("write second submit: %v", err)
	}
	_, errPayload := readNext(conn, t, "error")
	if errPayload["code"] != "session_conflict" {
		t.Fatalf("expected conflict, got %+v", errPayload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "save", "payload": map[string]any{"respondent": "Bob"}}); err != nil {
		t.Fatalf("write save: %v", err)
	}
	_, saved := readNext(conn, t, "saved")
	if saved["respondent"] != "Bob" || saved["totalScore"].(float64) != 2 {
		t.Fatalf("unexpected saved payload %+v", saved)
	}
}

func TestWebSocketDiscard(t *testing.T) {
	router := newTestRouter()
	testID := seedSampleTest(t, router)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialWS(t, server, "testId="+strconv.FormatInt(testID, 10))
	defer conn.Close()

	_, payload := readNext(conn, t, "questions")
	sessionID, _ := payload["sessionId"].(string)
	if err := conn.WriteJSON(map[string]any{"type": "discard"}); err != nil {
		t.Fatalf("write discard: %v", err)
	}
	readNext(conn, t, "discarded")

	resp, err := http.Get(server.URL + "/sessions/" + sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected discarded session to be gone, got %d", resp.StatusCode)
	}
}

func TestWebSocketRejectsMissingSelection(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestWebSocketUnknownTest(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	conn := dialWS(t, server, "testId=404")
	defer conn.Close()
	_, payload := readNext(conn, t, "error")
	if payload["code"] != "not_found" {
		t.Fatalf("expected not_found, got %+v", payload)
	}
}

func wsURL(server *httptest.Server, query string) string {
	return "ws" + server.URL[len("http"):] + "/ws?" + query
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, query), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%+v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func TestOutboxSendStopsOnceWriterIsGone(t *testing.T) {
	out := newOutbox(1)
	if !out.send(outboundMessage[any]{Type: "questions"}) {
		t.Fatalf("expected first message to be queued")
	}
	close(out.done)

	result := make(chan bool, 1)
	go func() { result <- out.send(outboundMessage[any]{Type: "graded"}) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected send to report the stopped writer")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("send blocked on a full queue after the writer stopped")
	}
}
