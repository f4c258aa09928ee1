package transport

import (
	"net/http"

	app_service "crypto-bubble-map-explorer/internal/application/service"
	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type viewResponse struct {
	ID string `json:"id"`
}

type nodesResponse struct {
	Version    uint64              `json:"version"`
	SelectedID *string             `json:"selected_id"`
	Nodes      []entity.WalletNode `json:"nodes"`
}

type addNodeRequest struct {
	Address  string       `json:"address"`
	Position *entity.Vec3 `json:"position,omitempty"`
}

type lockResponse struct {
	NodeID string `json:"node_id"`
	Locked bool   `json:"locked"`
}

type selectRequest struct {
	NodeID *string `json:"node_id"`
}

type pointerRequest struct {
	Kind   string  `json:"kind"`
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type pointerResponse struct {
	NodeID   string      `json:"node_id"`
	State    string      `json:"state"`
	Captured bool        `json:"captured"`
	Moved    bool        `json:"moved"`
	Position entity.Vec3 `json:"position"`
}

type cameraRequest struct {
	RotateAzimuth float64  `json:"rotate_azimuth"`
	RotatePolar   float64  `json:"rotate_polar"`
	Zoom          float64  `json:"zoom"`
	Aspect        *float64 `json:"aspect,omitempty"`
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) (*app_service.GraphView, bool) {
	view, err := s.views.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return view, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "views": s.views.Len()}
	if s.health != nil {
		checks := s.health(r.Context())
		for _, ok := range checks {
			if !ok {
				status["status"] = "degraded"
			}
		}
		status["checks"] = checks
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	view, err := s.views.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewResponse{ID: view.ID()})
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"views": s.views.List()})
}

func (s *Server) handleCloseView(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Close(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Frame())
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(view.Snapshot()))
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var req addNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	node, err := view.AddWallet(r.Context(), req.Address, req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	if err := view.RemoveNode(mux.Vars(r)["nodeID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	nodeID := mux.Vars(r)["nodeID"]
	locked, err := view.ToggleLock(nodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{NodeID: nodeID, Locked: locked})
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var pos entity.Vec3
	if err := decodeJSON(r, &pos); err != nil {
		writeError(w, err)
		return
	}

	nodeID := mux.Vars(r)["nodeID"]
	if err := view.UpdateNodePosition(nodeID, pos); err != nil {
		writeError(w, err)
		return
	}
	node, _ := view.Snapshot().Node(nodeID)
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	added, err := view.ExpandConnections(r.Context(), mux.Vars(r)["nodeID"])
	if err != nil {
		s.logger.Warn("Connection expansion incomplete", zap.Int("added", len(added)), zap.Error(err))
		writeError(w, err)
		return
	}
	if added == nil {
		added = []entity.WalletNode{}
	}
	writeJSON(w, http.StatusOK, map[string][]entity.WalletNode{"nodes": added})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var err error
	if req.NodeID == nil || *req.NodeID == "" {
		err = view.Select("")
	} else {
		err = view.Click(*req.NodeID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(view.Snapshot()))
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	nodeID := ""
	if req.NodeID != nil {
		nodeID = *req.NodeID
	}
	if err := view.Hover(nodeID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorganize(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	view.Reorganize()
	writeJSON(w, http.StatusOK, snapshotResponse(view.Snapshot()))
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var req pointerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ev, err := req.event()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pointerResult(view.HandlePointer(ev)))
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var req cameraRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.apply(view)
	writeJSON(w, http.StatusOK, view.Camera())
}

func (p pointerRequest) event() (entity.PointerEvent, error) {
	kind, err := entity.ParsePointerKind(p.Kind)
	if err != nil {
		return entity.PointerEvent{}, badRequest(err)
	}
	return entity.PointerEvent{Kind: kind, NodeID: p.NodeID, X: p.X, Y: p.Y}, nil
}

func (c cameraRequest) apply(view *app_service.GraphView) {
	view.OrbitCamera(c.RotateAzimuth, c.RotatePolar)
	if c.Zoom != 0 {
		view.ZoomCamera(c.Zoom)
	}
	if c.Aspect != nil {
		view.SetAspect(*c.Aspect)
	}
}

func pointerResult(res service.DragResult) pointerResponse {
	return pointerResponse{
		NodeID:   res.NodeID,
		State:    res.State.String(),
		Captured: res.Captured,
		Moved:    res.Moved,
		Position: res.Position,
	}
}

func snapshotResponse(snap *service.Snapshot) nodesResponse {
	nodes := snap.Nodes
	if nodes == nil {
		nodes = []entity.WalletNode{}
	}
	resp := nodesResponse{Version: snap.Version, Nodes: nodes}
	if snap.SelectedID != "" {
		id := snap.SelectedID
		resp.SelectedID = &id
	}
	return resp
}
