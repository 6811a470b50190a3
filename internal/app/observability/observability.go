package observability

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

type Collector struct {
	db *sql.DB

	mu                sync.RWMutex
	requestStats      map[key]stat
	importsByStatus   map[string]int64
	acceptedQuestions int64
	skippedByReason   map[string]int64
	startedAt         time.Time
}

func NewCollector(db *sql.DB) *Collector {
	return &Collector{
		db:              db,
		requestStats:    make(map[key]stat),
		importsByStatus: make(map[string]int64),
		skippedByReason: make(map[string]int64),
		startedAt:       time.Now(),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		entry := map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"import_id":  extractImportID(r.URL.Path),
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": latencyMS,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

// ObserveImport records the outcome of one test import.
func (c *Collector) ObserveImport(status string, accepted int, skipped map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.importsByStatus[status]++
	c.acceptedQuestions += int64(accepted)
	for reason, n := range skipped {
		c.skippedByReason[reason] += int64(n)
	}
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	imports := copyCounts(c.importsByStatus)
	skipped := copyCounts(c.skippedByReason)
	accepted := c.acceptedQuestions
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var sb strings.Builder
	sb.WriteString("# testdesk observability metrics\n")
	sb.WriteString("# TYPE testdesk_uptime_seconds gauge\n")
	sb.WriteString(fmt.Sprintf("testdesk_uptime_seconds %.0f\n", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE testdesk_http_requests_total counter\n")
	sb.WriteString("# TYPE testdesk_http_request_latency_ms_sum counter\n")
	sb.WriteString("# TYPE testdesk_http_request_latency_ms_avg gauge\n")
	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=\"%s\",path=\"%s\",status=\"%d\"", k.Method, k.Path, k.Status)
		sb.WriteString(fmt.Sprintf("testdesk_http_requests_total{%s} %d\n", labels, s.Count))
		sb.WriteString(fmt.Sprintf("testdesk_http_request_latency_ms_sum{%s} %.3f\n", labels, s.LatencyMS))
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		sb.WriteString(fmt.Sprintf("testdesk_http_request_latency_ms_avg{%s} %.3f\n", labels, avg))
	}

	sb.WriteString("# TYPE testdesk_imports_total counter\n")
	for _, status := range sortedKeys(imports) {
		sb.WriteString(fmt.Sprintf("testdesk_imports_total{status=\"%s\"} %d\n", status, imports[status]))
	}
	sb.WriteString("# TYPE testdesk_questions_accepted_total counter\n")
	sb.WriteString(fmt.Sprintf("testdesk_questions_accepted_total %d\n", accepted))
	sb.WriteString("# TYPE testdesk_questions_skipped_total counter\n")
	for _, reason := range sortedKeys(skipped) {
		sb.WriteString(fmt.Sprintf("testdesk_questions_skipped_total{reason=\"%s\"} %d\n", reason, skipped[reason]))
	}

	if c.db != nil {
		dbs := c.db.Stats()
		sb.WriteString("# TYPE testdesk_db_open_connections gauge\n")
		sb.WriteString(fmt.Sprintf("testdesk_db_open_connections %d\n", dbs.OpenConnections))
		sb.WriteString("# TYPE testdesk_db_in_use_connections gauge\n")
		sb.WriteString(fmt.Sprintf("testdesk_db_in_use_connections %d\n", dbs.InUse))
		sb.WriteString("# TYPE testdesk_db_idle_connections gauge\n")
		sb.WriteString(fmt.Sprintf("testdesk_db_idle_connections %d\n", dbs.Idle))
		sb.WriteString("# TYPE testdesk_db_wait_count counter\n")
		sb.WriteString(fmt.Sprintf("testdesk_db_wait_count %d\n", dbs.WaitCount))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// normalizedPath collapses numeric and UUID segments so metrics stay
// low-cardinality.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func extractImportID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "imports" {
			if id, err := uuid.Parse(parts[i+1]); err == nil {
				return id.String()
			}
		}
	}
	return ""
}
