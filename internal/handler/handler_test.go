package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomotachi/backend/internal/database/memory"
	"tomotachi/backend/internal/events"
	"tomotachi/backend/internal/hub"
	"tomotachi/backend/internal/social"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testServer struct {
	router *gin.Engine
	hub    *hub.Hub
	events *recordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := social.New(memory.NewStore(), nil, social.Options{StoreTimeout: time.Second})
	h := hub.New(nil)
	rec := &recordingPublisher{}
	handler := New(engine, h, events.Fanout{h, rec}, nil)

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))
	return &testServer{router: r, hub: h, events: rec}
}

func (s *testServer) post(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1"+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w.Code, decoded
}

func (s *testServer) register(t *testing.T, emails ...string) {
	t.Helper()
	for _, e := range emails {
		code, _ := s.post(t, "/identities", gin.H{"email": e})
		require.Contains(t, []int{http.StatusOK, http.StatusCreated}, code)
	}
}

func TestRegisterIdentity(t *testing.T) {
	s := newTestServer(t)

	code, body := s.post(t, "/identities", gin.H{"email": "andy@example.com"})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["created"])

	code, body = s.post(t, "/identities", gin.H{"email": "andy@example.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["created"])
}

func TestConnectAndFriendList(t *testing.T) {
	s := newTestServer(t)

	code, body := s.post(t, "/connect", gin.H{"friends": []string{"andy@example.com", "john@example.com"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["changed"])

	code, body = s.post(t, "/connect", gin.H{"friends": []string{"john@example.com", "andy@example.com"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["changed"])

	code, body = s.post(t, "/getFriendList", gin.H{"email": "andy@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"john@example.com"}, body["friends"])
	assert.EqualValues(t, 1, body["count"])

	assert.Equal(t, []events.Type{events.TypeConnected}, s.events.types())
}

func TestConnect_BindingErrors(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]any{
		"empty list":   gin.H{"friends": []string{}},
		"one friend":   gin.H{"friends": []string{"andy@example.com"}},
		"three":        gin.H{"friends": []string{"a@example.com", "b@example.com", "c@example.com"}},
		"not an email": gin.H{"friends": []string{"andy", "john@example.com"}},
		"missing":      gin.H{},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			code, resp := s.post(t, "/connect", body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, "error", resp["type"])
			assert.EqualValues(t, 400, resp["code"])
			assert.NotEmpty(t, resp["errors"])
		})
	}
}

func TestConnect_SelfIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	code, body := s.post(t, "/connect", gin.H{"friends": []string{"andy@example.com", "andy@example.com"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "cannot befriend oneself", body["message"])
}

func TestConnect_BlockedIsConflict(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "andy@example.com", "john@example.com")

	code, _ := s.post(t, "/block", gin.H{"requestor": "andy@example.com", "target": "john@example.com"})
	require.Equal(t, http.StatusOK, code)

	code, body := s.post(t, "/connect", gin.H{"friends": []string{"andy@example.com", "john@example.com"}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
}

func TestGetFriendList_UnknownIdentity(t *testing.T) {
	s := newTestServer(t)
	code, body := s.post(t, "/getFriendList", gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "ghost@example.com")
}

func TestGetCommonFriendList(t *testing.T) {
	s := newTestServer(t)
	for _, pair := range [][]string{
		{"andy@example.com", "common@example.com"},
		{"john@example.com", "common@example.com"},
		{"andy@example.com", "lisa@example.com"},
	} {
		code, _ := s.post(t, "/connect", gin.H{"friends": pair})
		require.Equal(t, http.StatusOK, code)
	}

	code, body := s.post(t, "/getCommonFriendList", gin.H{"friends": []string{"andy@example.com", "john@example.com"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"common@example.com"}, body["friends"])
	assert.EqualValues(t, 1, body["count"])
}

func TestSubscribe(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.post(t, "/subscribe", gin.H{"requestor": "lisa@example.com", "target": "john@example.com"})
	assert.Equal(t, http.StatusBadRequest, code, "unregistered identities")

	s.register(t, "lisa@example.com", "john@example.com")
	code, body := s.post(t, "/subscribe", gin.H{"requestor": "lisa@example.com", "target": "john@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["changed"])

	code, _ = s.post(t, "/subscribe", gin.H{"requestor": "lisa@example.com", "target": "lisa@example.com"})
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, []events.Type{events.TypeSubscribed}, s.events.types())
}

func TestGetUpdateRecipients(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "john@example.com", "lisa@example.com", "kate@example.com")

	code, _ := s.post(t, "/subscribe", gin.H{"requestor": "lisa@example.com", "target": "john@example.com"})
	require.Equal(t, http.StatusOK, code)

	code, body := s.post(t, "/getUpdateRecipients", gin.H{
		"sender": "john@example.com",
		"text":   "Hello World! kate@example.com nobody@example.com",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"kate@example.com", "lisa@example.com"}, body["recipients"])

	code, _ = s.post(t, "/getUpdateRecipients", gin.H{"sender": "ghost@example.com", "text": "hi"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPostUpdate_PublishesToRecipients(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "john@example.com", "lisa@example.com")
	code, _ := s.post(t, "/subscribe", gin.H{"requestor": "lisa@example.com", "target": "john@example.com"})
	require.Equal(t, http.StatusOK, code)

	stream := s.hub.Subscribe("lisa@example.com")
	defer s.hub.Unsubscribe("lisa@example.com", stream)

	code, body := s.post(t, "/updates", gin.H{"sender": "john@example.com", "text": "hi"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"lisa@example.com"}, body["recipients"])

	select {
	case msg := <-stream:
		assert.Contains(t, string(msg), `"sender":"john@example.com"`)
	default:
		t.Fatal("recipient stream received nothing")
	}
}

// closeNotifyingRecorder adds the CloseNotifier that gin's Stream expects.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestStreamUpdates(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/updates/stream?email=lisa@example.com", nil).WithContext(ctx)
	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Connected("lisa@example.com") == 1 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, s.hub.Publish(context.Background(), events.Update("john@example.com", "hi", []string{"lisa@example.com"})))

	// Give the stream a moment to write before hanging up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Equal(t, sse.ContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(body, "event:message"), body)
	assert.Contains(t, body, `"type":"update"`)
	assert.Equal(t, 0, s.hub.Connected("lisa@example.com"))
}

func TestStreamUpdates_EndsWhenHubCloses(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/updates/stream?email=lisa@example.com", nil).WithContext(ctx)
	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Connected("lisa@example.com") == 1 },
		time.Second, 5*time.Millisecond)
	s.hub.CloseAll()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream kept running after the hub closed")
	}
	assert.NoError(t, req.Context().Err())
}

func TestStreamUpdates_RequiresEmail(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/updates/stream", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(social.ErrStoreUnavailable))
	assert.Equal(t, http.StatusConflict, statusFor(social.ErrBlockedRelationship))
	assert.Equal(t, http.StatusBadRequest, statusFor(social.ErrSenderNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
