package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	handler := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var total *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "http_requests_total" {
			total = fam
		}
	}
	if total == nil {
		t.Fatal("http_requests_total not registered")
	}
	if len(total.Metric) != 1 {
		t.Fatalf("expected one labelled series, got %d", len(total.Metric))
	}
	if got := total.Metric[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 requests counted, got %v", got)
	}
	labels := map[string]string{}
	for _, pair := range total.Metric[0].GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	if labels["method"] != "GET" || labels["status"] != "418" {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewHTTPMetrics(nil)
	handler := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
