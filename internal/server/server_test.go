package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/maubernardi/analisipolitiche/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	viper.Reset()
	viper.SetConfigFile(filepath.Join(t.TempDir(), "config.yaml"))
	config.SetDefaults()
	t.Cleanup(viper.Reset)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, false)
}

func workbookBody(t *testing.T, rows [][]any) (*bytes.Buffer, string) {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()
	for i, cells := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &cells))
	}
	var file bytes.Buffer
	require.NoError(t, wb.Write(&file))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "input.xlsx")
	require.NoError(t, err)
	_, err = part.Write(file.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func analyzeFixture(t *testing.T, s *Server) map[string]any {
	t.Helper()

	body, contentType := workbookBody(t, [][]any{
		{"Destinatario", "Operatore", "Attività", "Evento", "Data Fine", "Data Proposta"},
		{"Mario Rossi", "Op X", "A03 - Colloquio", "Completato", "10/01/2024", ""},
		{"Anna Bianchi", "Op Y", "Z99 - Altro", "Completato", "15/01/2024", ""},
		{"Luca Verdi", "Op X", "A06 - Bilancio", "Proposta", "20/01/2024", ""},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp := analyzeFixture(t, s)

	assert.Equal(t, float64(3), resp["rows"])
	assert.Equal(t, float64(1), resp["valid"])
	assert.Equal(t, float64(2), resp["discarded"])
	assert.InDelta(t, 37.14, resp["total_revenue"].(float64), 0.001)
	assert.NotEmpty(t, resp["tables"])
}

func TestAnalyzeRejectsMissingFile(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeRejectsBadSchema(t *testing.T) {
	s := newTestServer(t)

	body, contentType := workbookBody(t, [][]any{
		{"Colonna Sbagliata"},
		{"x"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Destinatario")
}

func TestTableEndpoint(t *testing.T) {
	s := newTestServer(t)
	analyzeFixture(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/Revenue%20Summary", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tbl tableJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tbl))
	assert.Equal(t, "Revenue Summary", tbl.Name)
	assert.Equal(t, []string{"Code", "Rate", "Count", "Revenue"}, tbl.Columns)
	require.NotEmpty(t, tbl.Rows)
	assert.Equal(t, "A03", tbl.Rows[0][0])
}

func TestTableEndpointBeforeAnyRun(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/Revenue%20Summary", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTableEndpointUnknownName(t *testing.T) {
	s := newTestServer(t)
	analyzeFixture(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/nope", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	analyzeFixture(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export_analisi_")

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	assert.Contains(t, wb.GetSheetList(), "Riepilogo")
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var before map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))

	update := `{"tariffs": {"A03": 40.0}, "excluded_events": ["Proposta"]}`
	req = httptest.NewRequest(http.MethodPut, "/api/config", bytes.NewBufferString(update))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cfg := config.LoadSnapshot()
	assert.Equal(t, map[string]float64{"A03": 40.0}, cfg.Tariffs)
	assert.Equal(t, []string{"Proposta"}, cfg.ExcludedEvents)
}

func TestConfigRejectsNegativeRate(t *testing.T) {
	s := newTestServer(t)

	update := `{"tariffs": {"A03": -1}}`
	req := httptest.NewRequest(http.MethodPut, "/api/config", bytes.NewBufferString(update))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Analisi Politiche Attive")
}
