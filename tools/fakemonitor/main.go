// Command fakemonitor is a stand-in for the vendor ATM monitoring endpoint.
// It serves the login, roster and per-terminal status calls the pipeline
// makes, with env knobs for latency, failure injection and status overrides
// so retry, isolation and failover behavior can be exercised locally.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	mrand "math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type fakeMonitor struct {
	start    time.Time
	username string
	password string
	authFail bool
	latency  time.Duration
	failRate float64
	status   string
	region   string

	mu         sync.Mutex
	tokens     map[string]struct{}
	totalCalls int64
	byTerminal map[string]int64
}

type terminalEntry struct {
	TerminalID string `json:"terminalId"`
	Location   string `json:"location"`
	Region     string `json:"region"`
}

type faultEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type detailResponse struct {
	TerminalID string       `json:"terminalId"`
	Status     string       `json:"status"`
	Location   string       `json:"location"`
	Region     string       `json:"region"`
	Faults     []faultEntry `json:"faults,omitempty"`
}

// rotation used when no fixed status override is set; weighted toward
// healthy terminals like a real fleet.
var statusRotation = []string{
	"AVAILABLE", "AVAILABLE", "AVAILABLE", "AVAILABLE", "AVAILABLE",
	"AVAILABLE", "AVAILABLE", "WARNING", "LOW_CASH", "HARD",
	"SUPERVISOR", "CASH", "MAINTENANCE", "OFFLINE",
}

var faultByStatus = map[string]faultEntry{
	"HARD":        {Code: "HW-201", Description: "card reader jam"},
	"CASH":        {Code: "CS-110", Description: "cash handler empty"},
	"LOW_CASH":    {Code: "CS-104", Description: "cassette below threshold"},
	"MAINTENANCE": {Code: "MT-001", Description: "scheduled maintenance window"},
	"SUPERVISOR":  {Code: "OP-042", Description: "supervisor mode engaged"},
	"OFFLINE":     {Code: "NW-500", Description: "terminal not responding"},
	"WARNING":     {Code: "OP-017", Description: "receipt paper low"},
}

func main() {
	addr := getenvDefault("FAKE_MONITOR_ADDR", ":18080")
	terminalCount := getenvIntDefault("FAKE_MONITOR_TERMINALS", 14)

	srv := &fakeMonitor{
		start:      time.Now().UTC(),
		username:   getenvDefault("FAKE_MONITOR_USERNAME", "svc-monitor"),
		password:   getenvDefault("FAKE_MONITOR_PASSWORD", "secret"),
		authFail:   os.Getenv("FAKE_MONITOR_AUTH_FAIL") == "1",
		latency:    time.Duration(getenvIntDefault("FAKE_MONITOR_LATENCY_MS", 0)) * time.Millisecond,
		failRate:   getenvFloatDefault("FAKE_MONITOR_FAIL_RATE", 0),
		status:     os.Getenv("FAKE_MONITOR_STATUS"),
		region:     getenvDefault("FAKE_MONITOR_REGION", "R01"),
		tokens:     make(map[string]struct{}),
		byTerminal: make(map[string]int64),
	}
	roster := srv.buildRoster(terminalCount)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/terminals", srv.handleRoster(roster))
	mux.HandleFunc("/api/terminals/", srv.handleDetail(roster))

	log.Printf("fakemonitor listening on %s terminals=%d fail_rate=%.2f latency=%s auth_fail=%v",
		addr, terminalCount, srv.failRate, srv.latency, srv.authFail)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (s *fakeMonitor) buildRoster(n int) []terminalEntry {
	sites := []string{"Main St branch", "Airport hall", "Harbor mall", "Central station", "City hospital", "University campus"}
	roster := make([]terminalEntry, 0, n)
	for i := 1; i <= n; i++ {
		roster = append(roster, terminalEntry{
			TerminalID: fmt.Sprintf("T-%03d", i),
			Location:   fmt.Sprintf("%s #%d", sites[(i-1)%len(sites)], i),
			Region:     s.region,
		})
	}
	return roster
}

func (s *fakeMonitor) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	calls := s.totalCalls
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).String(),
		"calls":   calls,
		"started": s.start.Format(time.RFC3339),
	})
}

func (s *fakeMonitor) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sleep()
	if s.authFail {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication disabled"})
		return
	}
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if creds.Username != s.username || creds.Password != s.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
		return
	}

	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := "fm-" + hex.EncodeToString(buf)
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *fakeMonitor) handleRoster(roster []terminalEntry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or unknown token"})
			return
		}
		s.sleep()
		writeJSON(w, http.StatusOK, map[string]any{"data": roster})
	}
}

func (s *fakeMonitor) handleDetail(roster []terminalEntry) http.HandlerFunc {
	byID := make(map[string]terminalEntry, len(roster))
	for _, t := range roster {
		byID[t.TerminalID] = t
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or unknown token"})
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/terminals/"), "/status")
		entry, ok := byID[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown terminal " + id})
			return
		}

		s.mu.Lock()
		s.totalCalls++
		s.byTerminal[id]++
		call := s.byTerminal[id]
		s.mu.Unlock()

		s.sleep()
		if s.failRate > 0 && mrand.Float64() < s.failRate {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "injected failure"})
			return
		}

		status := s.status
		if status == "" {
			// Stable per terminal within a short window, varied across the fleet.
			idx := (len(id)*31 + int(call/5)) % len(statusRotation)
			status = statusRotation[idx]
		}
		resp := detailResponse{
			TerminalID: entry.TerminalID,
			Status:     status,
			Location:   entry.Location,
			Region:     entry.Region,
		}
		if fault, ok := faultByStatus[status]; ok {
			resp.Faults = []faultEntry{fault}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *fakeMonitor) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return false
	}
	s.mu.Lock()
	_, ok := s.tokens[token]
	s.mu.Unlock()
	return ok
}

func (s *fakeMonitor) sleep() {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
