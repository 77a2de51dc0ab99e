package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quotegen/internal/common/config"
	"quotegen/internal/common/logger"
	"quotegen/internal/fieldmap"
	"quotegen/internal/generator"
	"quotegen/internal/outputstore"
	"quotegen/internal/render"
	"quotegen/internal/requestparse"
	"quotegen/internal/templatestore"
)

func testParserConfig() config.ParserConfig {
	return config.ParserConfig{
		NameLabels:      []string{"품명"},
		SpecLabels:      []string{"규격"},
		MakerLabels:     []string{"제조사"},
		UnitLabels:      []string{"단위"},
		QuantityLabels:  []string{"구매량", "수량"},
		UnitPriceLabels: []string{"단가"},
		AmountLabels:    []string{"금액"},
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()

	tmplDir := filepath.Join(root, "templates", "quotation")
	require.NoError(t, os.MkdirAll(tmplDir, 0o755))
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(filepath.Join(tmplDir, "quotation.xlsx")))
	require.NoError(t, f.Close())

	log := logger.NewTestLogger(t)
	templates := templatestore.New(filepath.Join(root, "templates"), log)

	mappings, err := fieldmap.NewRegistry(map[string]config.MappingConfig{
		"quotation": {
			Fields: []config.FieldCell{
				{Field: "clientName", Cell: "B2"},
				{Field: "total", Cell: "B10"},
			},
		},
	})
	require.NoError(t, err)

	outDir := filepath.Join(root, "output")
	output, err := outputstore.New(outDir, 100, log)
	require.NoError(t, err)

	parserCfg := testParserConfig()
	gen := generator.New(generator.Config{
		Templates: templates,
		Mappings:  mappings,
		Renderer:  render.New(log),
		Output:    output,
		Logger:    log,
	})

	srv := New(Config{
		Generator: gen,
		Templates: templates,
		Parser:    requestparse.New(parserCfg, log),
		ParserCfg: parserCfg,
		OutputDir: outDir,
		Logger:    log,
	})
	return srv, outDir
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func uploadWorkbook(t *testing.T, srv *Server, path string, rows [][]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "request.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerate(t *testing.T) {
	srv, outDir := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/generate", map[string]interface{}{
		"kind":   "quotation",
		"record": map[string]interface{}{"clientName": "Acme Co", "total": 15000},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result generator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "quotation", result.TemplateKind)
	assert.Equal(t, outDir, filepath.Dir(result.OutputPath))
	assert.FileExists(t, result.OutputPath)
}

func TestGenerateErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{
			name:   "unknown kind",
			body:   map[string]interface{}{"kind": "purchase_order", "record": map[string]interface{}{}},
			status: http.StatusNotFound,
			code:   "TEMPLATE_NOT_FOUND",
		},
		{
			name:   "missing field",
			body:   map[string]interface{}{"kind": "quotation", "record": map[string]interface{}{"total": 1}},
			status: http.StatusUnprocessableEntity,
			code:   "MISSING_FIELD",
		},
		{
			name:   "missing kind",
			body:   map[string]interface{}{"record": map[string]interface{}{}},
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv, http.MethodPost, "/generate", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestTemplates(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quotation")
	assert.Contains(t, w.Body.String(), "quotation.xlsx")
}

func TestParseRequestUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	w := uploadWorkbook(t, srv, "/requests/parse", [][]interface{}{
		{"품명", "규격", "구매량"},
		{"볼트", "M8x30", 100},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Items []requestparse.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "볼트", resp.Items[0].Name)
}

func TestParseRequestWithoutFile(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodPost, "/requests/parse", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseRequestUnparseable(t *testing.T) {
	srv, _ := newTestServer(t)

	w := uploadWorkbook(t, srv, "/requests/parse", [][]interface{}{
		{"no", "recognizable", "headers"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_PARSE_FAILED")
}

func TestMatchRequest(t *testing.T) {
	srv, outDir := newTestServer(t)

	// Seed the output folder with one historical quotation.
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"품명", "규격", "단위", "수량", "단가", "금액"},
		{"볼트", "M8x30", "EA", 100, 120, 12000},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	require.NoError(t, f.SaveAs(filepath.Join(outDir, "quotation_history.xlsx")))
	require.NoError(t, f.Close())

	w := uploadWorkbook(t, srv, "/requests/match", [][]interface{}{
		{"품명", "규격", "구매량"},
		{"볼트", "M8x30", 50},
		{"베어링", "6204", 2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Contains(t, body, `"matched":true`)
	assert.Contains(t, body, "no-price")
	assert.Contains(t, body, `"unitPrice":120`)
}

func TestDownload(t *testing.T) {
	srv, outDir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "q.xlsx"), []byte("doc"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/files/q.xlsx", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "doc", w.Body.String())
}

func TestDownloadRejectsHiddenNames(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/files/.env", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
