package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-analyzer/internal/parser"
	"github.com/insightdelivered/bank-statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/bank-statement-analyzer/internal/profile"
)

const credicoopCSV = "Banco Credicoop\nFecha;Concepto;Débito;Crédito;Saldo\n" +
	"01/03/2024;IVA - Alicuota No Alcanzado;21,00;;4.479,00\n" +
	"02/03/2024;Debito Automatico Directo FEDERACION PATRONAL;2.500,00;;1.979,00\n"

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	catalog, err := profile.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	h := &Handler{
		Engine:         pipeline.New(catalog),
		MaxUploadBytes: 1 << 20,
		Version:        "test",
		Log:            zerolog.Nop(),
	}
	return h.NewApp()
}

func analyzeRequest(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func postAnalyze(t *testing.T, app *fiber.App, filename, content string, fields map[string]string) (int, AnalyzeResponse, string) {
	t.Helper()
	body, contentType := analyzeRequest(t, filename, content, fields)
	req := httptest.NewRequest("POST", "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, out, resp.Header.Get(RunIDHeader)
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
	if result["version"] != "test" {
		t.Errorf("expected version=test, got %q", result["version"])
	}
}

func TestProfilesEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/profiles", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var result struct {
		Profiles []struct {
			Key string `json:"key"`
		} `json:"profiles"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Count != 2 || result.Profiles[0].Key != "credicoop" || result.Profiles[1].Key != "galicia" {
		t.Errorf("unexpected profiles: %+v", result)
	}
}

func TestAnalyzeEndpointRequiresFile(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest("POST", "/api/analyze", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", resp.StatusCode)
	}
	if resp.Header.Get(RunIDHeader) == "" {
		t.Error("expected a run id header")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	app := setupTestApp(t)

	status, out, runID := postAnalyze(t, app, "marzo.csv", credicoopCSV, map[string]string{"bank": "credicoop"})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, out.Error)
	}
	if !out.Success || out.RunID == "" || out.RunID != runID {
		t.Errorf("got success=%v runId=%q header=%q", out.Success, out.RunID, runID)
	}
	res := out.Result
	if res.Status != pipeline.StatusOK || res.Source != "marzo.csv" || len(res.Records) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Summary.GrandTotal != 21 {
		t.Errorf("grand total: got %v, want 21", res.Summary.GrandTotal)
	}
	if !strings.Contains(out.CSV, "TOTAL GENERAL,21.00") {
		t.Errorf("csv is missing the grand total:\n%s", out.CSV)
	}
}

func TestAnalyzeEndpointStatuses(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		expected int
	}{
		{"unsupported extension", "statement.docx", "x", nil, fiber.StatusBadRequest},
		{"unknown bank", "marzo.csv", credicoopCSV, map[string]string{"bank": "nacion"}, fiber.StatusBadRequest},
		{"invalid column assignment", "marzo.csv", credicoopCSV, map[string]string{"columns": "monto=Importe"}, fiber.StatusBadRequest},
		{"corrupt pdf", "marzo.pdf", "not a pdf at all", nil, fiber.StatusUnprocessableEntity},
		{"no transactions", "marzo.csv", "Fecha;Concepto;Débito\n", nil, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out, _ := postAnalyze(t, setupTestApp(t), tt.filename, tt.content, tt.fields)
			if status != tt.expected {
				t.Errorf("expected %d, got %d (%s)", tt.expected, status, out.Error)
			}
		})
	}
}

func TestAnalyzeEndpointColumnsUnresolved(t *testing.T) {
	app := setupTestApp(t)
	content := "Dia;Texto;Monto\n01/03/2024;IVA - Alicuota No Alcanzado;10,00\n"

	status, out, _ := postAnalyze(t, app, "export.csv", content, map[string]string{"bank": "credicoop"})
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if out.Success || out.Result == nil || len(out.Result.Missing) != 3 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.Result.Headers[2] != "Monto" {
		t.Errorf("expected headers to be reported, got %v", out.Result.Headers)
	}

	status, out, _ = postAnalyze(t, app, "export.csv", content, map[string]string{
		"bank":    "credicoop",
		"columns": "date=Dia,concept=Texto,debit=Monto",
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 with explicit columns, got %d: %s", status, out.Error)
	}
	if out.Result.Columns[parser.RoleDebit] != "Monto" || out.Result.Summary.GrandTotal != 10 {
		t.Errorf("unexpected result: %+v", out.Result)
	}
}
