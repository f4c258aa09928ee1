package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	app_service "crypto-bubble-map-explorer/internal/application/service"
	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/service"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	mu    sync.Mutex
	metas map[string]*entity.WalletMetadata
	errs  map[string]error
	gate  chan struct{}
}

func (s *stubResolver) ResolveWallet(ctx context.Context, address string) (*entity.WalletMetadata, error) {
	s.mu.Lock()
	meta, err, gate := s.metas[address], s.errs[address], s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if meta == nil {
		meta = &entity.WalletMetadata{}
	}
	return meta, nil
}

type fixture struct {
	t        *testing.T
	resolver *stubResolver
	views    *app_service.ViewManager
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	resolver := &stubResolver{
		metas: map[string]*entity.WalletMetadata{},
		errs:  map[string]error{},
	}
	cfg := app_service.DefaultGraphViewConfig()
	cfg.Render.Loop = service.RenderLoopConfig{}
	cfg.Seed = 7

	views := app_service.NewViewManager(cfg, resolver, nil, 4, logger.NewNopLogger())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	srv := NewServer(ServerConfig{PingInterval: time.Hour}, views, metrics, nil, logger.NewNopLogger())
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		views.CloseAll()
	})
	return &fixture{t: t, resolver: resolver, views: views, server: ts}
}

func (f *fixture) do(method, path string, body any) (int, []byte) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(f.t, err)
	return resp.StatusCode, buf.Bytes()
}

func (f *fixture) createView() string {
	f.t.Helper()
	status, body := f.do(http.MethodPost, "/views", nil)
	require.Equal(f.t, http.StatusCreated, status)
	var resp viewResponse
	require.NoError(f.t, json.Unmarshal(body, &resp))
	return resp.ID
}

func (f *fixture) addNode(viewID, address string) entity.WalletNode {
	f.t.Helper()
	status, body := f.do(http.MethodPost, "/views/"+viewID+"/nodes", addNodeRequest{Address: address})
	require.Equal(f.t, http.StatusOK, status, string(body))
	var node entity.WalletNode
	require.NoError(f.t, json.Unmarshal(body, &node))
	return node
}

func TestServer_HealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"ok"`)

	status, body = f.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "metrics", string(body))
}

func TestServer_ViewLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.createView()

	status, body := f.do(http.MethodGet, "/views", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), id)

	status, _ = f.do(http.MethodDelete, "/views/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = f.do(http.MethodGet, "/views/"+id+"/frame", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"view not found"}`, string(body))
}

func decodeNodes(t *testing.T, body []byte) nodesResponse {
	t.Helper()
	var resp nodesResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestServer_NodeOperations(t *testing.T) {
	f := newFixture(t)
	f.resolver.metas["A"] = &entity.WalletMetadata{Balance: 1.5, Connections: []string{"B"}}
	id := f.createView()

	node := f.addNode(id, "A")
	assert.Equal(t, 1.5, node.Balance)
	assert.Equal(t, entity.NodeTypeMain, node.Type)

	again := f.addNode(id, "A")
	assert.Equal(t, node.ID, again.ID)

	status, body := f.do(http.MethodPost, "/views/"+id+"/nodes/"+node.ID+"/lock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"node_id":"`+node.ID+`","locked":true}`, string(body))

	status, body = f.do(http.MethodPut, "/views/"+id+"/nodes/"+node.ID+"/position", entity.V3(1, 2, 3))
	require.Equal(t, http.StatusOK, status)
	var moved entity.WalletNode
	require.NoError(t, json.Unmarshal(body, &moved))
	assert.Equal(t, entity.V3(1, 2, 3), moved.Position)

	status, body = f.do(http.MethodPost, "/views/"+id+"/nodes/"+node.ID+"/expand", nil)
	require.Equal(t, http.StatusOK, status)
	var expanded map[string][]entity.WalletNode
	require.NoError(t, json.Unmarshal(body, &expanded))
	require.Len(t, expanded["nodes"], 1)
	assert.Equal(t, entity.NodeTypeConnected, expanded["nodes"][0].Type)

	status, body = f.do(http.MethodPost, "/views/"+id+"/reorganize", nil)
	require.Equal(t, http.StatusOK, status)
	snap := decodeNodes(t, body)
	require.Len(t, snap.Nodes, 2)
	for _, n := range snap.Nodes {
		assert.False(t, n.IsLocked)
	}

	status, body = f.do(http.MethodPost, "/views/"+id+"/select", map[string]string{"node_id": node.ID})
	require.Equal(t, http.StatusOK, status)
	snap = decodeNodes(t, body)
	require.NotNil(t, snap.SelectedID)
	assert.Equal(t, node.ID, *snap.SelectedID)

	status, _ = f.do(http.MethodDelete, "/views/"+id+"/nodes/"+node.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = f.do(http.MethodGet, "/views/"+id+"/nodes", nil)
	require.Equal(t, http.StatusOK, status)
	snap = decodeNodes(t, body)
	assert.Len(t, snap.Nodes, 1)
	assert.Nil(t, snap.SelectedID)
	assert.Contains(t, string(body), `"selected_id":null`)

	status, _ = f.do(http.MethodDelete, "/views/"+id+"/nodes/"+node.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_SelectNullClears(t *testing.T) {
	f := newFixture(t)
	id := f.createView()
	node := f.addNode(id, "A")

	status, _ := f.do(http.MethodPost, "/views/"+id+"/select", map[string]string{"node_id": node.ID})
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(http.MethodPost, "/views/"+id+"/select", map[string]any{"node_id": nil})
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decodeNodes(t, body).SelectedID)
}

func TestServer_ErrorStatuses(t *testing.T) {
	f := newFixture(t)
	f.resolver.errs["BAD"] = errors.New("upstream timeout")
	id := f.createView()

	status, body := f.do(http.MethodPost, "/views/"+id+"/nodes", addNodeRequest{Address: "BAD"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, string(body), "upstream timeout")

	status, _ = f.do(http.MethodPost, "/views/"+id+"/nodes", addNodeRequest{Address: " "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(http.MethodPost, "/views/"+id+"/nodes", map[string]string{"wallet": "A"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(http.MethodPost, "/views/"+id+"/pointer", pointerRequest{Kind: "wiggle"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(http.MethodPost, "/views/"+id+"/nodes/missing/lock", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(http.MethodGet, "/views/missing/nodes", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_AddInFlightConflict(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.resolver.gate = gate
	id := f.createView()
	view, err := f.views.Get(id)
	require.NoError(t, err)

	done := make(chan int, 1)
	go func() {
		status, _ := f.do(http.MethodPost, "/views/"+id+"/nodes", addNodeRequest{Address: "A"})
		done <- status
	}()
	require.Eventually(t, func() bool { return view.InFlight("A") }, time.Second, time.Millisecond)

	status, body := f.do(http.MethodPost, "/views/"+id+"/nodes", addNodeRequest{Address: "A"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "in flight")

	close(gate)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestServer_PointerDrag(t *testing.T) {
	f := newFixture(t)
	id := f.createView()
	view, err := f.views.Get(id)
	require.NoError(t, err)

	start := entity.V3(1, 2, 3)
	node, err := view.AddWallet(context.Background(), "A", &start)
	require.NoError(t, err)

	status, body := f.do(http.MethodPost, "/views/"+id+"/pointer", pointerRequest{Kind: "down", NodeID: node.ID})
	require.Equal(t, http.StatusOK, status)
	var res pointerResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Captured)
	assert.Equal(t, "dragging", res.State)

	status, body = f.do(http.MethodPost, "/views/"+id+"/pointer", pointerRequest{Kind: "move", NodeID: node.ID, X: 0.2, Y: -0.1})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Moved)
	assert.Equal(t, 3.0, res.Position.Z)

	status, body = f.do(http.MethodPost, "/views/"+id+"/pointer", pointerRequest{Kind: "up", NodeID: node.ID})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "idle", res.State)
}

func TestServer_Camera(t *testing.T) {
	f := newFixture(t)
	id := f.createView()

	status, body := f.do(http.MethodPost, "/views/"+id+"/camera", map[string]float64{"zoom": 500})
	require.Equal(t, http.StatusOK, status)
	var cam entity.CameraState
	require.NoError(t, json.Unmarshal(body, &cam))
	assert.Equal(t, 80.0, cam.Distance)
}

func TestServer_Stream(t *testing.T) {
	f := newFixture(t)
	id := f.createView()
	view, err := f.views.Get(id)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/views/" + id + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg outboundMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageFrame, msg.Type)
	require.NotNil(t, msg.Frame)
	assert.Equal(t, id, msg.Frame.ViewID)

	node, err := view.AddWallet(context.Background(), "A", nil)
	require.NoError(t, err)
	_, err = view.ToggleLock(node.ID)
	require.NoError(t, err)

	sawLock := false
	for i := 0; i < 20 && !sawLock; i++ {
		var next outboundMessage
		require.NoError(t, conn.ReadJSON(&next))
		if next.Type == MessageEvent && next.Event.Kind == entity.NodeEventLock {
			sawLock = true
			assert.Equal(t, node.ID, next.Event.NodeID)
			assert.True(t, next.Event.Locked)
		}
	}
	assert.True(t, sawLock)

	hover, err := json.Marshal(map[string]string{"node_id": node.ID})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(inboundMessage{Type: MessageHover, Payload: hover}))
	require.Eventually(t, func() bool { return view.HoveredID() == node.ID }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "teleport", Payload: json.RawMessage(`{}`)}))
	sawError := false
	for i := 0; i < 20 && !sawError; i++ {
		var next outboundMessage
		require.NoError(t, conn.ReadJSON(&next))
		sawError = next.Type == MessageError
	}
	assert.True(t, sawError)
}

func TestServer_StreamUnknownView(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(http.MethodGet, "/views/missing/stream", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
