package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/api"
	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/auth"
	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/mocks"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/service"
)

type testRouter struct {
	router     *gin.Engine
	articles   *mocks.MockArticleService
	moderators *mocks.MockModeratorService
	export     *mocks.MockExportService
	imports    *mocks.MockImportService
	health     *mocks.MockHealthChecker
}

func setupTestRouter(t *testing.T) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr := &testRouter{
		articles:   mocks.NewMockArticleService(),
		moderators: mocks.NewMockModeratorService(),
		export:     mocks.NewMockExportService(),
		imports:    mocks.NewMockImportService(),
		health:     &mocks.MockHealthChecker{},
	}

	services := &service.Services{
		Article:   tr.articles,
		Moderator: tr.moderators,
		Export:    tr.export,
		Import:    tr.imports,
	}

	cfg := config.Default()
	cfg.Import.MaxUploadSize = 1024
	limiter := api.NewRateLimiter(1, 2, time.Minute)
	t.Cleanup(limiter.Stop)

	tr.router = api.NewRouter(services, cfg, tr.health, limiter, zerolog.Nop())
	return tr
}

func (tr *testRouter) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error body is not JSON: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	tr := setupTestRouter(t)

	w := tr.do("GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "speed-article-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	tr := setupTestRouter(t)
	tr.health.Err = errors.New("connection refused")

	w := tr.do("GET", "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	tr := setupTestRouter(t)
	tr.articles.Counts = models.StatusCounts{models.StatusPending: 3, models.StatusDisplayable: 2}
	tr.moderators.Moderators["m1"] = &models.Moderator{ID: "m1"}

	w := tr.do("GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	articles := response["articles"].(map[string]interface{})
	if articles["total"].(float64) != 5 {
		t.Errorf("Expected 5 articles, got %v", articles["total"])
	}
	byStatus := articles["byStatus"].(map[string]interface{})
	if byStatus["Pending"].(float64) != 3 {
		t.Errorf("Expected 3 pending, got %v", byStatus["Pending"])
	}
	if response["moderators"].(float64) != 1 {
		t.Errorf("Expected 1 moderator, got %v", response["moderators"])
	}
}

func TestCreateArticle(t *testing.T) {
	tr := setupTestRouter(t)

	w := tr.do("POST", "/api/articles", map[string]interface{}{
		"title":             "A",
		"authors":           "X",
		"yearOfPublication": 2020,
		"claim":             "c",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var article models.Article
	json.Unmarshal(w.Body.Bytes(), &article)
	if article.Status != models.StatusPending {
		t.Errorf("Expected Pending, got %s", article.Status)
	}
	if article.Title != "A" {
		t.Errorf("Expected title A, got %s", article.Title)
	}
}

func TestCreateArticle_MalformedBody(t *testing.T) {
	tr := setupTestRouter(t)

	req := httptest.NewRequest("POST", "/api/articles", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateArticle_ValidationDetails(t *testing.T) {
	tr := setupTestRouter(t)
	tr.articles.CreateFunc = func(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error) {
		return nil, apperr.Invalid([]models.ValidationError{{Field: "title", Message: "title is required"}})
	}

	w := tr.do("POST", "/api/articles", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	body := decodeError(t, w)
	if body["statusCode"].(float64) != 400 {
		t.Errorf("Expected statusCode 400, got %v", body["statusCode"])
	}
	if body["error"] != "Bad Request" {
		t.Errorf("Expected error 'Bad Request', got %v", body["error"])
	}
	details, ok := body["details"].([]interface{})
	if !ok || len(details) != 1 {
		t.Errorf("Expected one validation detail, got %v", body["details"])
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	tr := setupTestRouter(t)

	w := tr.do("GET", "/api/articles/nonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	body := decodeError(t, w)
	if body["message"] != "article not found" {
		t.Errorf("Expected not found message, got %v", body["message"])
	}
	if body["error"] != "Not Found" {
		t.Errorf("Expected error 'Not Found', got %v", body["error"])
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	tr := setupTestRouter(t)
	tr.articles.GetFunc = func(ctx context.Context, id string) (*models.Article, error) {
		return nil, errors.New("pq: password authentication failed")
	}

	w := tr.do("GET", "/api/articles/a1", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Errorf("Internal cause leaked to client: %s", w.Body.String())
	}
}

func TestListArticles_Filters(t *testing.T) {
	tr := setupTestRouter(t)

	w := tr.do("GET", "/api/articles?status=approved&status=Displayable&fromYear=2010&toYear=2020&q=tdd&limit=10&offset=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	f := tr.articles.LastFilter
	if len(f.Statuses) != 2 || f.Statuses[0] != models.StatusApproved || f.Statuses[1] != models.StatusDisplayable {
		t.Errorf("Unexpected statuses %v", f.Statuses)
	}
	if f.FromYear != 2010 || f.ToYear != 2020 || f.Query != "tdd" || f.Limit != 10 || f.Offset != 5 {
		t.Errorf("Unexpected filter %+v", f)
	}
}

func TestListArticles_BadFilters(t *testing.T) {
	tr := setupTestRouter(t)

	for _, path := range []string{
		"/api/articles?status=Published",
		"/api/articles?fromYear=abc",
		"/api/articles?limit=-1",
	} {
		w := tr.do("GET", path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", path, w.Code)
		}
	}
}

func TestStatusListings(t *testing.T) {
	tr := setupTestRouter(t)

	tests := []struct {
		path string
		want []models.ArticleStatus
	}{
		{"/api/articles/submitted", []models.ArticleStatus{models.StatusSubmitted}},
		{"/api/articles/approved", []models.ArticleStatus{models.StatusApproved}},
		{"/api/articles/rejected", []models.ArticleStatus{models.StatusRejected, models.StatusUndisplayable}},
		{"/api/articles/displayable", []models.ArticleStatus{models.StatusDisplayable}},
	}

	for _, tt := range tests {
		w := tr.do("GET", tt.path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", tt.path, w.Code)
			continue
		}
		if len(tr.articles.LastStatuses) != len(tt.want) {
			t.Errorf("%s: expected statuses %v, got %v", tt.path, tt.want, tr.articles.LastStatuses)
			continue
		}
		for i := range tt.want {
			if tr.articles.LastStatuses[i] != tt.want[i] {
				t.Errorf("%s: expected statuses %v, got %v", tt.path, tt.want, tr.articles.LastStatuses)
			}
		}
	}
}

func TestDeleteArticle(t *testing.T) {
	tr := setupTestRouter(t)
	tr.articles.DeleteFunc = func(ctx context.Context, id string) error {
		if id != "a1" {
			return apperr.NotFound("article not found")
		}
		return nil
	}

	if w := tr.do("DELETE", "/api/articles/a1", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := tr.do("DELETE", "/api/articles/zzz", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestApprove_ModeratorFromQuery(t *testing.T) {
	tr := setupTestRouter(t)
	var gotModerator string
	tr.articles.ApproveFunc = func(ctx context.Context, id, moderatorID, status string) (*models.Article, error) {
		gotModerator = moderatorID
		return &models.Article{ID: id, Status: models.StatusApproved}, nil
	}

	w := tr.do("PUT", "/api/articles/approving/a1?moderatorId=mod-1", map[string]string{"status": "Approved"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotModerator != "mod-1" {
		t.Errorf("Expected moderator mod-1, got %q", gotModerator)
	}
}

func TestApprove_ModeratorFromToken(t *testing.T) {
	tr := setupTestRouter(t)
	tr.moderators.Tokens["good-token"] = &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "mod-7"},
		Role:             models.RoleModerator,
	}
	var gotModerator string
	tr.articles.ApproveFunc = func(ctx context.Context, id, moderatorID, status string) (*models.Article, error) {
		gotModerator = moderatorID
		return &models.Article{ID: id, Status: models.StatusApproved}, nil
	}

	body, _ := json.Marshal(map[string]string{"status": "Approved"})
	req := httptest.NewRequest("PUT", "/api/articles/approving/a1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotModerator != "mod-7" {
		t.Errorf("Expected moderator from token, got %q", gotModerator)
	}

	req = httptest.NewRequest("PUT", "/api/articles/approving/a1", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for an invalid token, got %d", w.Code)
	}
}

func TestApprove_QueryTakesPrecedenceOverToken(t *testing.T) {
	tr := setupTestRouter(t)
	var gotModerator string
	tr.articles.ApproveFunc = func(ctx context.Context, id, moderatorID, status string) (*models.Article, error) {
		gotModerator = moderatorID
		return &models.Article{ID: id, Status: models.StatusApproved}, nil
	}

	body, _ := json.Marshal(map[string]string{"status": "Approved"})
	req := httptest.NewRequest("PUT", "/api/articles/approving/a1?moderatorId=mod-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotModerator != "mod-1" {
		t.Errorf("Expected moderator from query, got %q", gotModerator)
	}
}

func TestApprove_Forbidden(t *testing.T) {
	tr := setupTestRouter(t)
	tr.articles.ApproveFunc = func(ctx context.Context, id, moderatorID, status string) (*models.Article, error) {
		return nil, apperr.Forbidden("only moderators can approve articles")
	}

	w := tr.do("PUT", "/api/articles/approving/a1?moderatorId=srec", map[string]string{"status": "Approved"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestRate_BadBody(t *testing.T) {
	tr := setupTestRouter(t)

	w := tr.do("PATCH", "/api/articles/a1/rate", map[string]interface{}{"rating": 4.5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a fractional rating, got %d", w.Code)
	}
}

func TestRate_RateLimited(t *testing.T) {
	tr := setupTestRouter(t)

	// Burst of 2 per client IP
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := tr.do("PATCH", "/api/articles/a1/rate", map[string]int{"rating": 5})
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two ratings to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third rating to be limited, got %v", codes)
	}
}

func TestBatchUpdate(t *testing.T) {
	tr := setupTestRouter(t)
	var got []models.StatusUpdate
	tr.articles.BatchUpdateStatusFunc = func(ctx context.Context, updates []models.StatusUpdate) (*models.BatchResult, error) {
		got = updates
		r := &models.BatchResult{Message: "Batch update completed"}
		r.Add(models.ItemResult{ID: "1", Status: models.StatusApproved, Success: true})
		r.Add(models.ItemResult{ID: "2", Error: "article not found"})
		return r, nil
	}

	w := tr.do("PATCH", "/api/articles/batch-update", []map[string]string{
		{"_id": "1", "status": "Approved"},
		{"_id": "2", "status": "Rejected"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].Status != "Rejected" {
		t.Errorf("Body not decoded as expected: %+v", got)
	}

	var result models.BatchResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("Expected 1/1, got %d/%d", result.Succeeded, result.Failed)
	}
}

func TestWorkflowHandOffs(t *testing.T) {
	tr := setupTestRouter(t)

	tests := []struct {
		path string
		body interface{}
	}{
		{"/api/articles/submitToAnalyst", map[string]interface{}{"articles": []map[string]string{{"_id": "a", "status": "Approved"}}}},
		{"/api/articles/rejected", []map[string]string{{"_id": "a", "reasonForRejection": "dup"}}},
		{"/api/articles/submitReviewed", map[string]interface{}{"articles": []map[string]string{{"_id": "a", "evidence": "e"}}}},
	}

	for _, tt := range tests {
		w := tr.do("POST", tt.path, tt.body)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d: %s", tt.path, w.Code, w.Body.String())
			continue
		}
		var result models.BatchResult
		json.Unmarshal(w.Body.Bytes(), &result)
		if result.Succeeded != 1 {
			t.Errorf("%s: expected one processed article, got %+v", tt.path, result)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	tr := setupTestRouter(t)

	for _, path := range []string{"/api/moderators", "/auth/register"} {
		w := tr.do("POST", path, map[string]string{"email": "m@example.com", "password": "secret123", "typeOfUser": "moderator"})
		if w.Code != http.StatusCreated {
			t.Errorf("%s: expected status 201, got %d", path, w.Code)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("password")) {
			t.Errorf("%s: response must not include the password", path)
		}
	}

	w := tr.do("POST", "/auth/login", map[string]string{"email": "m@example.com", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestGetModerator(t *testing.T) {
	tr := setupTestRouter(t)
	tr.moderators.Moderators["m1"] = &models.Moderator{ID: "m1", Email: "m@example.com", PasswordHash: "hash", Role: models.RoleSREC}

	w := tr.do("GET", "/api/moderators/m1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("hash")) {
		t.Error("Password hash must not be serialized")
	}
	if w := tr.do("GET", "/api/moderators/none", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestExport(t *testing.T) {
	tr := setupTestRouter(t)

	w := tr.do("GET", "/api/articles/export?format=csv&status=Displayable", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if tr.export.LastFormat != "csv" {
		t.Errorf("Expected csv format, got %s", tr.export.LastFormat)
	}
	if len(tr.export.LastFilter.Statuses) != 1 || tr.export.LastFilter.Statuses[0] != models.StatusDisplayable {
		t.Errorf("Expected status filter, got %+v", tr.export.LastFilter)
	}

	if w := tr.do("GET", "/api/articles/export?format=xml", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown format, got %d", w.Code)
	}
}

func TestExport_ErrorBeforeStreaming(t *testing.T) {
	tr := setupTestRouter(t)
	tr.export.StreamArticlesFunc = func(ctx context.Context, w http.ResponseWriter, format string, filter models.ArticleFilter) error {
		return errors.New("relation does not exist")
	}

	w := tr.do("GET", "/api/articles/export", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Expected a JSON error body, got content type %q", ct)
	}
	if body := decodeError(t, w); body["message"] != "internal server error" {
		t.Errorf("Unexpected error body %v", body)
	}
}

func TestImportArticles_Multipart(t *testing.T) {
	tr := setupTestRouter(t)
	tr.imports.ImportFunc = func(ctx context.Context, r io.Reader, format string) (*models.BatchResult, error) {
		result := &models.BatchResult{Message: "Import completed"}
		result.Add(models.ItemResult{ID: "a1", Line: 2, Status: models.StatusPending, Success: true})
		result.Add(models.ItemResult{Line: 3, Error: "validation failed"})
		return result, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "articles.csv")
	part.Write([]byte("title,authors,yearOfPublication,claim\nA,B,2020,C\n,B,2020,C\n"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/articles/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if tr.imports.LastFormat != "csv" {
		t.Errorf("Expected format from the file extension, got %q", tr.imports.LastFormat)
	}
	if !strings.HasPrefix(tr.imports.LastBody, "title,authors") {
		t.Errorf("Expected the uploaded file contents, got %q", tr.imports.LastBody)
	}

	var result models.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 || result.Results[1].Line != 3 {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestImportArticles_RawBody(t *testing.T) {
	tr := setupTestRouter(t)

	req := httptest.NewRequest("POST", "/api/articles/import", strings.NewReader(`{"title":"A"}`+"\n"))
	req.Header.Set("Content-Type", "application/x-ndjson")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if tr.imports.LastFormat != "ndjson" {
		t.Errorf("Expected ndjson from the content type, got %q", tr.imports.LastFormat)
	}
}

func TestImportArticles_Rejects(t *testing.T) {
	tr := setupTestRouter(t)

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		want        int
	}{
		{"unknown format", "/api/articles/import", "text/plain", "title\n", http.StatusBadRequest},
		{"explicit bad format", "/api/articles/import?format=xlsx", "text/csv", "title\n", http.StatusBadRequest},
		{"missing file field", "/api/articles/import", "multipart/form-data; boundary=x", "--x--\r\n", http.StatusBadRequest},
		{"too large", "/api/articles/import?format=csv", "text/csv", strings.Repeat("a", 2048), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			tr.router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	tr := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/api/articles", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected wildcard origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
