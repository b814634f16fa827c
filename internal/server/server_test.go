package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/family"
	"github.com/matzehuels/pedigree/pkg/observability"
	"github.com/matzehuels/pedigree/pkg/patients"
	"github.com/matzehuels/pedigree/pkg/pedigree/markup"
	"github.com/matzehuels/pedigree/pkg/store"
)

const familyDoc = `{"GG": [
  {"id": 0, "prop": {"phenotipsId": "P001", "fName": "Ann"}},
  {"id": 1, "prop": {"phenotipsId": "P002"}},
  {"id": 2}
]}`

const familyImage = `<svg>` +
	`<g data-patient-id="P001"><text class="pedigree-patient-link">P001</text></g>` +
	`<g data-patient-id="P002"><text class="pedigree-patient-link">P002</text></g>` +
	`</svg>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(newTestHandler(t).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestHandler(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "families"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	repo := patients.NewMemoryRepository(patients.Patient{ID: "P001", FirstName: "Ann"})
	logger := log.New(&strings.Builder{})

	svc := family.NewService(st, repo, nil, nil, logger, family.Options{})
	if _, err := svc.Import(context.Background(), "FAM1", []byte(familyDoc), familyImage); err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	return New(svc, logger)
}

func do(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
	if !strings.HasPrefix(resp.Header.Get("Server"), "pedigree/") {
		t.Errorf("Server header = %q", resp.Header.Get("Server"))
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestServer(t)
	const id = "6f1c2a6e-8a52-4d55-9c8e-0b7b6d2b1f00"

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid" || got == "" {
		t.Errorf("request id = %q, want a fresh uuid", got)
	}
}

func TestLinkedIDs(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/families/FAM1/ids")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var got struct {
		FamilyID string   `json:"familyId"`
		IDs      []string `json:"ids"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if want := []string{"P001", "P002"}; !reflect.DeepEqual(got.IDs, want) {
		t.Errorf("ids = %v, want %v", got.IDs, want)
	}
}

func TestListAndReads(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/families", `"families":["FAM1"]`},
		{"/families/FAM1/properties", `"fName":"Ann"`},
		{"/families/FAM1/patients", `"missing":["P002"]`},
		{"/families/FAM1/check", `"consistent":true`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body %s", resp.StatusCode, body)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("body = %s, want it to contain %s", body, tt.want)
			}
		})
	}
}

func TestImage(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/families/FAM1/image?viewer=p002")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if strings.Count(string(body), markup.CurrentPatientClass) != 1 {
		t.Errorf("image = %s, want one highlight", body)
	}
}

func TestUnlink(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, http.MethodDelete, ts.URL+"/families/FAM1/links/p001")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"removed":1`) {
		t.Errorf("body = %s", body)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/families/FAM1/ids")
	if strings.Contains(string(body), "P001") {
		t.Errorf("P001 still linked: %s", body)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   errors.Code
	}{
		{"unknown family", http.MethodGet, "/families/FAM404/ids", http.StatusNotFound, errors.ErrCodeFamilyNotFound},
		{"bad family id", http.MethodGet, "/families/..%2Fx/ids", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"blank patient", http.MethodDelete, "/families/FAM1/links/%20", http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, body)
			}
			var eb errorBody
			if err := json.Unmarshal(body, &eb); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if eb.Error != tt.code {
				t.Errorf("error code = %q, want %q", eb.Error, tt.code)
			}
			if eb.RequestID == "" {
				t.Error("error body missing request id")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeLocked, "busy"), http.StatusConflict},
		{errors.New(errors.ErrCodeMalformedMarkup, "bad svg"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeStoreUnavailable, "down"), http.StatusServiceUnavailable},
		{errors.New(errors.ErrCodePatientNotFound, "gone"), http.StatusNotFound},
		{context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	if resp, _ := do(t, http.MethodGet, ts.URL+"/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("/metrics without WithMetrics: status = %d, want 404", resp.StatusCode)
	}

	reg := prometheus.NewRegistry()
	hooks, err := observability.NewPrometheusHooks(reg)
	if err != nil {
		t.Fatal(err)
	}
	observability.SetAll(hooks)
	defer observability.Reset()

	srv := newTestHandler(t).WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mts := httptest.NewServer(srv.Handler())
	defer mts.Close()

	do(t, http.MethodGet, mts.URL+"/families/FAM1/ids")
	do(t, http.MethodDelete, mts.URL+"/families/FAM1/links/P002")

	resp, body := do(t, http.MethodGet, mts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{
		`pedigree_http_request_duration_seconds_count{method="GET",route="/families/{familyID}/ids",status="200"} 1`,
		`pedigree_family_unlinks_total{result="changed"} 1`,
		`pedigree_family_unlinked_nodes_total 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
