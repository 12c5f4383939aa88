package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"echonexus/internal/daemon"
	"echonexus/internal/logging"
	"echonexus/internal/status"
	"echonexus/internal/testsupport"
)

func startDaemon(t *testing.T) (*daemon.Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	d, err := daemon.New(cfg, log, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, "http://" + d.APIAddress()
}

func postMultipart(t *testing.T, url, filename, contents string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(url+"/api/ingest", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/ingest: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func waitForState(t *testing.T, url, path string, want status.State) map[string]any {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		var payload map[string]any
		decodeJSON(t, resp, &payload)
		if payload["state"] == string(want) {
			return payload
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %q at %s", want, path)
	return nil
}

func TestIngestStatusRoundTrip(t *testing.T) {
	_, url := startDaemon(t)

	resp := postMultipart(t, url, "Q3_Vendor_Invoice.pdf", "invoice bytes", map[string]string{
		"priority": "3",
		"tags":     "billing,q3",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("ingest status %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	var accepted struct {
		CorrelationID string `json:"correlation_id"`
		State         string `json:"state"`
	}
	decodeJSON(t, resp, &accepted)
	if accepted.CorrelationID == "" || accepted.State != "accepted" {
		t.Fatalf("unexpected ingest response %+v", accepted)
	}

	payload := waitForState(t, url, "/api/status/"+accepted.CorrelationID, status.StateCompleted)
	if payload["category"] != "invoice" {
		t.Fatalf("category %v, want invoice", payload["category"])
	}
	if payload["final_path"] == "" {
		t.Fatal("completed status should carry final_path")
	}
}

func TestStatusUnknownCorrelation(t *testing.T) {
	_, url := startDaemon(t)

	resp, err := http.Get(url + "/api/status/never-seen")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var payload map[string]any
	decodeJSON(t, resp, &payload)
	if payload["state"] != string(status.StateUnknown) {
		t.Fatalf("state %v, want unknown", payload["state"])
	}
}

func TestIngestRejectsMissingFile(t *testing.T) {
	_, url := startDaemon(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("priority", "5"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	writer.Close()

	resp, err := http.Post(url+"/api/ingest", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/ingest: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestChatRoundTrip(t *testing.T) {
	_, url := startDaemon(t)

	body := strings.NewReader(`{"message":"status of the harbor contract?"}`)
	resp, err := http.Post(url+"/api/chat", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var result struct {
		CorrelationID string `json:"correlation_id"`
		Output        string `json:"output"`
	}
	decodeJSON(t, resp, &result)
	if result.CorrelationID == "" {
		t.Fatal("chat response missing correlation id")
	}
	if !strings.Contains(result.Output, "harbor contract") {
		t.Fatalf("reply %q should echo the message", result.Output)
	}
}

func TestChatCarriesMemoryContext(t *testing.T) {
	d, url := startDaemon(t)

	body := strings.NewReader(`{"message":"recall the harbor","memory_context":{"session":"alpha"}}`)
	resp, err := http.Post(url+"/api/chat", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var result struct {
		CorrelationID string `json:"correlation_id"`
		Output        string `json:"output"`
	}
	decodeJSON(t, resp, &result)
	if !strings.Contains(result.Output, "session=alpha") {
		t.Fatalf("reply %q should echo the memory context", result.Output)
	}

	events, err := d.Events(context.Background(), result.CorrelationID, 10)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	message := events[len(events)-1]
	recorded, _ := message.Payload["context"].(map[string]any)
	if recorded["session"] != "alpha" {
		t.Fatalf("user message payload %v should record the memory context", message.Payload)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	_, url := startDaemon(t)

	resp, err := http.Post(url+"/api/chat", "application/json", strings.NewReader(`{"message":"  "}`))
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCreateCreativeRoundTrip(t *testing.T) {
	_, url := startDaemon(t)

	body := `{"text":"a luminous tide","context":{"mood":"calm"}}`
	resp, err := http.Post(url+"/api/create", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/create: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	var accepted struct {
		CorrelationID string `json:"correlation_id"`
	}
	decodeJSON(t, resp, &accepted)

	payload := waitForState(t, url, "/api/creative/"+accepted.CorrelationID, status.StateCompleted)
	output, _ := payload["final_output"].(string)
	if output == "" {
		t.Fatal("completed creative status should carry final_output")
	}
	if iterations, _ := payload["iterations"].(float64); int(iterations) != 4 {
		t.Fatalf("iterations %v, want 4", payload["iterations"])
	}
	if input, _ := payload["input"].(string); input != "a luminous tide" {
		t.Fatalf("input %v, want the text modality echoed", payload["input"])
	}
}

func TestCreateAcceptsNonTextModalities(t *testing.T) {
	_, url := startDaemon(t)

	body := `{"image":"base64:deadbeef","symbolic":{"resonance":7}}`
	resp, err := http.Post(url+"/api/create", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/create: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	var accepted struct {
		CorrelationID string `json:"correlation_id"`
	}
	decodeJSON(t, resp, &accepted)

	payload := waitForState(t, url, "/api/creative/"+accepted.CorrelationID, status.StateCompleted)
	modalities, _ := payload["modalities"].([]any)
	if len(modalities) != 2 || modalities[0] != "image" || modalities[1] != "symbolic" {
		t.Fatalf("modalities %v, want [image symbolic]", payload["modalities"])
	}
}

func TestCreateRejectsEmptyInput(t *testing.T) {
	_, url := startDaemon(t)

	resp, err := http.Post(url+"/api/create", "application/json", strings.NewReader(`{"context":{"mood":"calm"}}`))
	if err != nil {
		t.Fatalf("POST /api/create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestEventsEndpointFiltersByCorrelation(t *testing.T) {
	_, url := startDaemon(t)

	resp := postMultipart(t, url, "research_notes.pdf", "paper", nil)
	var accepted struct {
		CorrelationID string `json:"correlation_id"`
	}
	decodeJSON(t, resp, &accepted)
	waitForState(t, url, "/api/status/"+accepted.CorrelationID, status.StateCompleted)

	eventsResp, err := http.Get(fmt.Sprintf("%s/api/events?correlation_id=%s&limit=50", url, accepted.CorrelationID))
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	var payload struct {
		Events []struct {
			EventType     string `json:"event_type"`
			CorrelationID string `json:"correlation_id"`
		} `json:"events"`
	}
	decodeJSON(t, eventsResp, &payload)
	if len(payload.Events) == 0 {
		t.Fatal("expected events for the run")
	}
	for _, event := range payload.Events {
		if event.CorrelationID != accepted.CorrelationID {
			t.Fatalf("event %s leaked from correlation %s", event.EventType, event.CorrelationID)
		}
	}
	if payload.Events[len(payload.Events)-1].EventType != "document_ingestion_start" {
		t.Fatalf("oldest event %s, want document_ingestion_start", payload.Events[len(payload.Events)-1].EventType)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, url := startDaemon(t)

	resp, err := http.Get(url + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	var payload struct {
		Running bool `json:"running"`
		Workers int  `json:"workers"`
	}
	decodeJSON(t, resp, &payload)
	if !payload.Running {
		t.Fatal("health should report running")
	}
	if payload.Workers < 1 {
		t.Fatalf("workers %d, want at least 1", payload.Workers)
	}
}
