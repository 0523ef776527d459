package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"secops-console/internal/alert"
	"secops-console/internal/detect"
	"secops-console/internal/metrics"
	"secops-console/internal/model"
	"secops-console/internal/modelrouter"
	"secops-console/internal/pipeline"
	"secops-console/internal/report"
	"secops-console/internal/store"
	"secops-console/internal/telemetry"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval     = 15 * time.Second
	writeWait        = 10 * time.Second
	subscriberBuffer = 64
)

type Handlers struct {
	store      *store.Store
	runtime    *pipeline.Runtime
	detector   *detect.Detector
	dispatcher *alert.Dispatcher
	reports    *report.Service
	registry   *modelrouter.Registry
	logger     *logrus.Logger
	m          *metrics.Metrics
	upgrader   websocket.Upgrader
}

func NewHandlers(
	s *store.Store,
	runtime *pipeline.Runtime,
	detector *detect.Detector,
	dispatcher *alert.Dispatcher,
	reports *report.Service,
	registry *modelrouter.Registry,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *Handlers {
	return &Handlers{
		store:      s,
		runtime:    runtime,
		detector:   detector,
		dispatcher: dispatcher,
		reports:    reports,
		registry:   registry,
		logger:     logger,
		m:          m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts every endpoint under /api/v1/security.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1/security").Subrouter()

	api.HandleFunc("/stream", h.Stream).Methods("GET")

	api.HandleFunc("/telemetry/history", h.GetTelemetryHistory).Methods("GET")
	api.HandleFunc("/telemetry/ingest", h.IngestTelemetry).Methods("POST")

	api.HandleFunc("/events", h.GetEvents).Methods("GET")
	api.HandleFunc("/events/{id}", h.GetEvent).Methods("GET")
	api.HandleFunc("/events/{id}", h.PatchEvent).Methods("PATCH")

	api.HandleFunc("/reports/incident", h.GenerateIncidentReport).Methods("POST")
	api.HandleFunc("/reports/daily", h.GetDailyReport).Methods("GET")
	api.HandleFunc("/reports/daily/generate", h.GenerateDailyReport).Methods("POST")
	api.HandleFunc("/reports/daily/history", h.GetDailyReportHistory).Methods("GET")
	api.HandleFunc("/reports/daily/{id}", h.GetDailyReportByID).Methods("GET")

	api.HandleFunc("/risk/vuln-scan", h.RunVulnerabilityScan).Methods("POST")
	api.HandleFunc("/risk/vuln-scan/history", h.GetVulnerabilityScanHistory).Methods("GET")
	api.HandleFunc("/risk/vuln-scan/{id}", h.GetVulnerabilityScanByID).Methods("GET")
	api.HandleFunc("/risk/compliance", h.RunComplianceAssessment).Methods("POST")
	api.HandleFunc("/risk/compliance/history", h.GetComplianceHistory).Methods("GET")
	api.HandleFunc("/risk/compliance/{id}", h.GetComplianceByID).Methods("GET")

	api.HandleFunc("/config/threat-detection", h.GetThreatDetectionConfig).Methods("GET")
	api.HandleFunc("/config/threat-detection", h.PatchThreatDetectionConfig).Methods("PATCH")

	api.HandleFunc("/alerts/config", h.GetAlertConfig).Methods("GET")
	api.HandleFunc("/alerts/config", h.PatchAlertConfig).Methods("PATCH")
	api.HandleFunc("/alerts/history", h.GetAlertHistory).Methods("GET")
	api.HandleFunc("/alerts/send", h.SendAlert).Methods("POST")

	api.HandleFunc("/model/route", h.RouteModel).Methods("POST")
	api.HandleFunc("/model/registry", h.GetModelRegistry).Methods("GET")
	api.HandleFunc("/model/active", h.GetActiveModel).Methods("GET")
	api.HandleFunc("/model/register", h.RegisterModel).Methods("POST")
	api.HandleFunc("/model/activate", h.ActivateModel).Methods("POST")

	api.HandleFunc("/postmortems", h.CreatePostmortem).Methods("POST")
	api.HandleFunc("/knowledge-base", h.GetKnowledgeBase).Methods("GET")
}

// Stream upgrades to a websocket, sends the initial snapshot, then forwards
// broadcast frames until the client goes away. Keep-alive pings every 15s.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Infof("Stream client connected from %s", r.RemoteAddr)

	sub := h.store.Subscribe(subscriberBuffer)
	defer h.store.Unsubscribe(sub)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(store.Frame{Kind: "snapshot", Data: h.store.Snapshot()}); err != nil {
		h.logger.Debugf("Snapshot write failed: %v", err)
		return
	}

	done := make(chan struct{})

	// Reader goroutine: detects client close.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case frame, ok := <-sub.Channel:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debugf("Stream write error: %v", err)
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				h.logger.Debugf("Ping failed: %v", err)
				return
			}
		case <-done:
			h.logger.Debugf("Stream client %s disconnected", r.RemoteAddr)
			return
		}
	}
}

// Telemetry

func (h *Handlers) GetTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 300, 2000)
	writeData(w, http.StatusOK, h.store.ListTelemetry(limit))
}

func (h *Handlers) IngestTelemetry(w http.ResponseWriter, r *http.Request) {
	var raw telemetry.RawSample
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sample := telemetry.Normalize(raw)
	events := h.runtime.Ingest(sample)

	writeData(w, http.StatusOK, map[string]interface{}{
		"sample":        sample,
		"eventsCreated": len(events),
	})
}

// Events

func (h *Handlers) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 200, 500)
	writeData(w, http.StatusOK, h.store.ListEvents(limit))
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.store.GetEvent(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	writeData(w, http.StatusOK, event)
}

func (h *Handlers) PatchEvent(w http.ResponseWriter, r *http.Request) {
	var patch model.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Status != nil && !model.ValidStatus(*patch.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	event, err := h.store.UpdateEvent(mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	writeData(w, http.StatusOK, event)
}

// Reports

func (h *Handlers) GenerateIncidentReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID    string `json:"eventId"`
		ModelRoute string `json:"modelRoute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "eventId is required")
		return
	}

	result, err := h.reports.Incident(req.EventID, req.ModelRoute)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *Handlers) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.reports.Daily())
}

func (h *Handlers) GenerateDailyReport(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.reports.GenerateDaily())
}

func (h *Handlers) GetDailyReportHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 30, 200)
	writeData(w, http.StatusOK, h.store.ListDailyReports(limit))
}

func (h *Handlers) GetDailyReportByID(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.GetDailyReport(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	writeData(w, http.StatusOK, stored)
}

// Risk

func (h *Handlers) RunVulnerabilityScan(w http.ResponseWriter, r *http.Request) {
	scan, event := h.reports.RunVulnerabilityScan()
	writeData(w, http.StatusOK, map[string]interface{}{
		"scan":  scan,
		"event": event,
	})
}

func (h *Handlers) GetVulnerabilityScanHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 30, 60)
	writeData(w, http.StatusOK, h.store.ListVulnerabilityScans(limit))
}

func (h *Handlers) GetVulnerabilityScanByID(w http.ResponseWriter, r *http.Request) {
	scan, err := h.store.GetVulnerabilityScan(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Scan not found")
		return
	}
	writeData(w, http.StatusOK, scan)
}

func (h *Handlers) RunComplianceAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, event := h.reports.RunCompliance()
	writeData(w, http.StatusOK, map[string]interface{}{
		"assessment": assessment,
		"event":      event,
	})
}

func (h *Handlers) GetComplianceHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 30, 60)
	writeData(w, http.StatusOK, h.store.ListComplianceAssessments(limit))
}

func (h *Handlers) GetComplianceByID(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.store.GetComplianceAssessment(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Assessment not found")
		return
	}
	writeData(w, http.StatusOK, assessment)
}

// Detection config

func (h *Handlers) GetThreatDetectionConfig(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.detector.Config())
}

func (h *Handlers) PatchThreatDetectionConfig(w http.ResponseWriter, r *http.Request) {
	var patch detect.ConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeData(w, http.StatusOK, h.detector.UpdateConfig(patch))
}

// Alerting

func (h *Handlers) GetAlertConfig(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.dispatcher.Config())
}

func (h *Handlers) PatchAlertConfig(w http.ResponseWriter, r *http.Request) {
	var patch alert.ConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeData(w, http.StatusOK, h.dispatcher.UpdateConfig(patch))
}

func (h *Handlers) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 200, 2000)
	writeData(w, http.StatusOK, h.dispatcher.History(limit))
}

func (h *Handlers) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel  string         `json:"channel"`
		Title    string         `json:"title"`
		Content  string         `json:"content"`
		Severity model.Severity `json:"severity"`
		EventID  string         `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Channel == "" || req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "channel, title and content are required")
		return
	}
	if req.Severity == "" {
		req.Severity = model.SeverityMedium
	}
	if !model.ValidSeverity(req.Severity) {
		writeError(w, http.StatusBadRequest, "Invalid severity value")
		return
	}

	result, err := h.dispatcher.Send(model.AlertMessage{
		Channel:    model.AlertChannel(req.Channel),
		Title:      req.Title,
		Content:    req.Content,
		Severity:   req.Severity,
		EventID:    req.EventID,
		OccurredAt: time.Now(),
	})
	if errors.Is(err, alert.ErrUnknownChannel) {
		writeError(w, http.StatusBadRequest, "Unknown alert channel")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send alert")
		return
	}
	writeData(w, http.StatusOK, result)
}

// Model routing and registry

func (h *Handlers) RouteModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskType    string `json:"taskType"`
		Content     string `json:"content"`
		Sensitivity string `json:"sensitivity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TaskType == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "taskType and content are required")
		return
	}
	writeData(w, http.StatusOK, modelrouter.Route(req.TaskType, req.Content, req.Sensitivity))
}

func (h *Handlers) GetModelRegistry(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.registry.List(r.URL.Query().Get("provider")))
}

func (h *Handlers) GetActiveModel(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	active, err := h.registry.Active(provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider")
		return
	}
	writeData(w, http.StatusOK, active)
}

func (h *Handlers) RegisterModel(w http.ResponseWriter, r *http.Request) {
	var d modelrouter.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if d.ID == "" || d.Provider == "" || d.Name == "" || d.Version == "" {
		writeError(w, http.StatusBadRequest, "id, provider, name and version are required")
		return
	}

	registered, err := h.registry.Register(d)
	if errors.Is(err, modelrouter.ErrInvalidProvider) {
		writeError(w, http.StatusBadRequest, "Invalid provider")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register model")
		return
	}
	writeData(w, http.StatusOK, registered)
}

func (h *Handlers) ActivateModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
		ModelID  string `json:"modelId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Provider == "" || req.ModelID == "" {
		writeError(w, http.StatusBadRequest, "provider and modelId are required")
		return
	}

	activated, err := h.registry.Activate(req.Provider, req.ModelID)
	if errors.Is(err, modelrouter.ErrInvalidProvider) {
		writeError(w, http.StatusBadRequest, "Invalid provider")
		return
	}
	if errors.Is(err, modelrouter.ErrModelNotFound) {
		writeError(w, http.StatusNotFound, "Model not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to activate model")
		return
	}
	writeData(w, http.StatusOK, activated)
}

// Postmortems and knowledge base

func (h *Handlers) CreatePostmortem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"eventId"`
		model.PostmortemInput
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EventID == "" || req.RootCause == "" {
		writeError(w, http.StatusBadRequest, "eventId and rootCause are required")
		return
	}

	pm, err := h.reports.CreatePostmortem(req.EventID, req.PostmortemInput)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create postmortem")
		return
	}
	writeData(w, http.StatusOK, pm)
}

func (h *Handlers) GetKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 200)
	writeData(w, http.StatusOK, h.store.ListKnowledgeBase(limit))
}

// Helper functions

func queryLimit(r *http.Request, def, max int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
