package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/config"
	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/procstat"
	"github.com/gorilla/websocket"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		AllowedOrigins:    []string{"http://localhost:3000"},
		AllowedSuffixes:   []string{".vercel.app"},
		AllowedSubstrings: []string{"ngrok"},
	}
}

func newTestServer(t *testing.T) (*Server, *lot.Service, *Broadcaster, *httptest.Server) {
	t.Helper()
	svc := newTestService()
	b := NewBroadcaster(svc, 0)
	svc.AddPublisher(b)
	s := NewServer(testServerConfig(), svc, b)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		b.Stop()
		ts.Close()
	})
	return s, svc, b, ts
}

func post(t *testing.T, url, body string) (*http.Response, UpdateResponse) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out UpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestHandleUpdate(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
		available  int
	}{
		{"slot occupied", `{"type":"slot_occupied","id":"3"}`, http.StatusOK, true, 4},
		{"unknown kind", `{"type":"door_opened","id":"1"}`, http.StatusOK, true, 4},
		{"missing type", `{"id":"1"}`, http.StatusBadRequest, false, 0},
		{"blank type", `{"type":"  ","id":"1"}`, http.StatusBadRequest, false, 0},
		{"not json", `slot_occupied`, http.StatusBadRequest, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts.URL+"/update", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if out.OK != tt.wantOK {
				t.Errorf("ok = %v, want %v", out.OK, tt.wantOK)
			}
			if !tt.wantOK {
				if out.Msg != "bad payload" {
					t.Errorf("msg = %q, want bad payload", out.Msg)
				}
				return
			}
			if out.State == nil || out.State.AvailableSlots != tt.available {
				t.Errorf("state = %+v, want available %d", out.State, tt.available)
			}
		})
	}
}

func TestHandleUpdateWarning(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	_, out := post(t, ts.URL+"/update", `{"type":"payment_info","id":"nobody","result":"FEE_1_TIME_1"}`)
	if !out.OK || out.Warning == "" {
		t.Errorf("response = %+v, want ok with warning", out)
	}
}

func TestHandleUpdateInternalError(t *testing.T) {
	svc := lot.NewService(lot.NewStore(5, lot.Info{}), lot.ServiceOptions{
		Now: func() time.Time { panic("boom") },
	})
	b := NewBroadcaster(svc, 0)
	ts := httptest.NewServer(NewServer(testServerConfig(), svc, b).Handler())
	defer ts.Close()

	resp, out := post(t, ts.URL+"/update", `{"type":"slot_occupied","id":"1"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if out.OK || out.Error == "" {
		t.Errorf("response = %+v", out)
	}
}

func TestHandleStateAndReset(t *testing.T) {
	_, svc, _, ts := newTestServer(t)
	svc.Apply(lot.Event{Kind: lot.KindVehicleEntry, ID: "A"})

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	var snap lot.Snapshot
	json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if len(snap.Vehicles) != 1 || snap.Vehicles[0].ID != "A" {
		t.Errorf("GET /state vehicles = %+v", snap.Vehicles)
	}
	if snap.Config.Name != "Test Lot" {
		t.Errorf("GET /state config = %+v", snap.Config)
	}

	_, out := post(t, ts.URL+"/reset", "")
	if !out.OK || out.Msg != "System reset" {
		t.Errorf("POST /reset = %+v", out)
	}
	if got := svc.Snapshot(); len(got.Vehicles) != 0 {
		t.Errorf("vehicles after reset = %d", len(got.Vehicles))
	}
}

func TestHandleHealth(t *testing.T) {
	s, svc, _, ts := newTestServer(t)
	sampler, err := procstat.NewSampler()
	if err != nil {
		t.Fatal(err)
	}
	s.SetProcessSampler(sampler)
	s.SetIngestStatus(func() interface{} { return map[string]string{"status": "healthy"} })
	svc.Apply(lot.Event{Kind: lot.KindVehicleEntry, ID: "A"})
	svc.Apply(lot.Event{Kind: lot.KindSlotOccupied, ID: "2"})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "OK" {
		t.Errorf("status = %v", body["status"])
	}
	if body["vehicles"] != float64(1) || body["available"] != float64(4) {
		t.Errorf("vehicles=%v available=%v", body["vehicles"], body["available"])
	}
	if _, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string)); err != nil {
		t.Errorf("timestamp %v: %v", body["timestamp"], err)
	}
	if _, ok := body["process"].(map[string]interface{}); !ok {
		t.Errorf("process = %v, want object", body["process"])
	}
	if ingest, ok := body["ingest"].(map[string]interface{}); !ok || ingest["status"] != "healthy" {
		t.Errorf("ingest = %v", body["ingest"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/update"},
		{http.MethodGet, "/reset"},
		{http.MethodPost, "/state"},
		{http.MethodDelete, "/health"},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tt.method, tt.path, resp.StatusCode)
		}
	}
}

func TestCORS(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	tests := []struct {
		origin string
		allow  bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://parking-dashboard.vercel.app", true},
		{"https://abcd-1-2-3-4.ngrok-free.app", true},
		{"https://evil.example.com", false},
		{"https://vercel.app.evil.com", false},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/state", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if tt.allow {
			if resp.StatusCode != http.StatusOK {
				t.Errorf("origin %q: status %d, want 200", tt.origin, resp.StatusCode)
			}
			if tt.origin != "" && resp.Header.Get("Access-Control-Allow-Origin") != tt.origin {
				t.Errorf("origin %q: allow-origin = %q", tt.origin, resp.Header.Get("Access-Control-Allow-Origin"))
			}
			continue
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: status %d, want 403", tt.origin, resp.StatusCode)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/update", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("allow-methods = %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}

func TestOriginPolicyWithoutRules(t *testing.T) {
	p := newOriginPolicy(nil, nil, nil)
	tests := []struct {
		origin, host string
		want         bool
	}{
		{"http://localhost:5173", "example.com", true},
		{"http://127.0.0.1:8080", "example.com", true},
		{"http://example.com", "example.com", true},
		{"http://other.com", "example.com", false},
		{"::not a url", "example.com", false},
	}
	for _, tt := range tests {
		if got := p.allowed(tt.origin, tt.host); got != tt.want {
			t.Errorf("allowed(%q, %q) = %v, want %v", tt.origin, tt.host, got, tt.want)
		}
	}
}

func TestSecurityAndRequestIDHeaders(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/state", nil)
	req.Header.Set("X-Request-ID", "rig-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "rig-42" {
		t.Errorf("X-Request-ID = %q, want rig-42", got)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	resp, err = http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing generated X-Request-ID")
	}
}

func TestWebSocketJoinAndBroadcast(t *testing.T) {
	_, _, b, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read join: %v", err)
	}
	msg, snap := decodeMessage(t, data)
	if msg.Type != MsgUpdate || snap.AvailableSlots != 5 {
		t.Errorf("join = %+v available %d", msg, snap.AvailableSlots)
	}

	post(t, ts.URL+"/update", `{"type":"slot_occupied","id":"3"}`)
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read update: %v", err)
	}
	msg, snap = decodeMessage(t, data)
	if msg.Seq != 1 || snap.Slots[2] != 1 || snap.AvailableSlots != 4 {
		t.Errorf("update seq=%d slots=%v available=%d", msg.Seq, snap.Slots, snap.AvailableSlots)
	}

	// Unknown kinds are not broadcast; the next message must be the reset.
	post(t, ts.URL+"/update", `{"type":"door_opened","id":"1"}`)
	post(t, ts.URL+"/reset", "")
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reset: %v", err)
	}
	msg, snap = decodeMessage(t, data)
	if msg.Seq != 2 || snap.AvailableSlots != 5 {
		t.Errorf("after reset seq=%d available=%d", msg.Seq, snap.AvailableSlots)
	}

	if got := b.ClientCount(); got != 1 {
		t.Errorf("ClientCount = %d, want 1", got)
	}
}

func TestWebSocketRejectsOrigin(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("dial with disallowed origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}
