package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/spendlens/src/database"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/parsers"
	"github.com/username/spendlens/src/parsers/chase"
	"github.com/username/spendlens/src/processors"
	"github.com/username/spendlens/src/rules"
	"github.com/username/spendlens/src/services"
)

const statement = "Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n" +
	"01/15/2024,01/16/2024,NETFLIX.COM,Entertainment,Sale,-15.49,\n" +
	"02/14/2024,02/15/2024,NETFLIX.COM,Entertainment,Sale,-15.49,\n" +
	"03/15/2024,03/16/2024,NETFLIX.COM,Entertainment,Sale,-15.49,\n" +
	"01/20/2024,01/20/2024,BEST BUY 00123,Shopping,Sale,-499.99,\n"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithRoot(t, "")
}

func newTestRouterWithRoot(t *testing.T, importRoot string) http.Handler {
	t.Helper()
	conn, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	registry := parsers.NewRegistry()
	registry.Register(chase.IssuerID, chase.NewParser())
	engine := rules.NewEngine(rules.RuleSourceFunc(func(ctx context.Context) ([]models.Rule, error) {
		return model.ListActiveRules(ctx, conn)
	}), cache.New(time.Minute, time.Minute), time.Minute)

	paymentTypes := []string{"Payment"}
	snapshots := services.NewSnapshotService(conn, paymentTypes)
	api := &API{
		Imports:       NewImportHandler(services.NewImportService(conn, registry, engine, snapshots, t.TempDir()), 1024*1024, importRoot),
		Accounts:      NewAccountHandler(services.NewAccountService(conn, registry), services.NewCategoryService(conn)),
		Rules:         NewRuleHandler(services.NewRuleService(conn, engine)),
		Subscriptions: NewSubscriptionHandler(services.NewSubscriptionService(conn, processors.NewRecurringProcessor(), paymentTypes)),
		Snapshots:     NewSnapshotHandler(snapshots),
	}

	r := chi.NewRouter()
	r.Use(ContextualLoggerMiddleware)
	r.Route("/api", api.Mount)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createAccount(t *testing.T, h http.Handler) int64 {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/accounts", models.AccountCreate{Name: "Sapphire", Owner: "Sam"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Account](t, rec).ID
}

func uploadRequest(t *testing.T, accountID string, filename, contentType, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("account_id", accountID))

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAccounts(t *testing.T) {
	h := newTestRouter(t)
	id := createAccount(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Account](t, rec), 1)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/accounts/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chase", decode[models.Account](t, rec).Issuer)

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/api/accounts/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/accounts/abc", nil).Code)

	rec = doJSON(t, h, http.MethodPost, "/api/accounts", models.AccountCreate{Name: "Gold", Issuer: "amex"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "unsupported issuer")

	assert.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", id), nil).Code)
	rec = doJSON(t, h, http.MethodGet, "/api/accounts", nil)
	assert.Empty(t, decode[[]models.Account](t, rec))
	rec = doJSON(t, h, http.MethodGet, "/api/accounts?include_archived=true", nil)
	assert.Len(t, decode[[]models.Account](t, rec), 1)
}

func TestIngest(t *testing.T) {
	h := newTestRouter(t)
	id := createAccount(t, h)
	path := filepath.Join(t.TempDir(), "q1.csv")
	require.NoError(t, os.WriteFile(path, []byte(statement), 0o600))

	rec := doJSON(t, h, http.MethodPost, "/api/imports", map[string]any{"filePath": path, "accountId": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[models.ImportSummary](t, rec)
	assert.True(t, summary.Success)
	assert.Equal(t, 4, summary.ImportedCount)

	rec = doJSON(t, h, http.MethodPost, "/api/imports", map[string]any{"filePath": path, "accountId": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[models.ImportSummary](t, rec).SkippedCount)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPost, "/api/imports", map[string]any{"accountId": id}).Code)
	assert.Equal(t, http.StatusNotFound,
		doJSON(t, h, http.MethodPost, "/api/imports", map[string]any{"filePath": path + ".missing", "accountId": id}).Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/imports?account_id=%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ImportBatch](t, rec), 2)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/imports?account_id=x", nil).Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/accounts/%d/transactions", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Transaction](t, rec), 4)
}

func TestIngest_ImportRoot(t *testing.T) {
	root := t.TempDir()
	h := newTestRouterWithRoot(t, root)
	id := createAccount(t, h)

	inside := filepath.Join(root, "statements", "q1.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0o750))
	require.NoError(t, os.WriteFile(inside, []byte(statement), 0o600))
	outside := filepath.Join(t.TempDir(), "q1.csv")
	require.NoError(t, os.WriteFile(outside, []byte(statement), 0o600))

	rec := doJSON(t, h, http.MethodPost, "/api/imports", map[string]any{"filePath": inside, "accountId": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, path := range []string{outside, filepath.Join(root, "..", filepath.Base(outside)), "/etc/passwd"} {
		rec = doJSON(t, h, http.MethodPost, "/api/imports", map[string]any{"filePath": path, "accountId": id})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestWithinRoot(t *testing.T) {
	assert.True(t, withinRoot("", "/anywhere/at/all.csv"))
	assert.True(t, withinRoot("/data/imports", "/data/imports/jan.csv"))
	assert.True(t, withinRoot("/data/imports", "/data/imports/2024/../jan.csv"))
	assert.False(t, withinRoot("/data/imports", "/data/imports/../secrets.csv"))
	assert.False(t, withinRoot("/data/imports", "/data/imports-old/jan.csv"))
	assert.False(t, withinRoot("/data/imports", "/etc/passwd"))
}

func TestUpload(t *testing.T) {
	h := newTestRouter(t)
	id := fmt.Sprint(createAccount(t, h))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, id, "q1.csv", "text/csv", statement))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[models.ImportSummary](t, rec)
	assert.Equal(t, "q1.csv", summary.Filename)
	assert.Equal(t, 4, summary.ImportedCount)

	tests := []struct {
		name        string
		accountID   string
		contentType string
		content     string
		want        int
	}{
		{"missing account", "", "text/csv", statement, http.StatusBadRequest},
		{"unknown account", "999", "text/csv", statement, http.StatusNotFound},
		{"pdf declared", id, "application/pdf", statement, http.StatusBadRequest},
		{"binary content", id, "text/csv", "PK\x03\x04\x00\x00binary", http.StatusBadRequest},
		{"unknown layout", id, "text/csv", "Date,Payee,Value\n2024-01-01,Shop,1.00\n", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, uploadRequest(t, tt.accountID, "upload.csv", tt.contentType, tt.content))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRules(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/rules", map[string]any{
		"ruleType":     "merchant_cleanup",
		"matchPattern": "netflix",
		"displayName":  "Netflix",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rule := decode[models.Rule](t, rec)
	assert.Equal(t, models.MatchContains, rule.MatchMode)
	assert.Equal(t, 100, rule.Priority)

	rec = doJSON(t, h, http.MethodPatch, fmt.Sprintf("/api/rules/%d", rule.ID), map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[models.Rule](t, rec).IsActive)

	rec = doJSON(t, h, http.MethodGet, "/api/rules?active=true", nil)
	assert.Empty(t, decode[[]models.Rule](t, rec))
	rec = doJSON(t, h, http.MethodGet, "/api/rules", nil)
	assert.Len(t, decode[[]models.Rule](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, h, http.MethodPost, "/api/rules", map[string]any{"ruleType": "rename", "matchPattern": "x"}).Code)

	assert.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/rules/%d", rule.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/rules/%d", rule.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/rules/%d", rule.ID), nil).Code)
}

func TestSubscriptionsAndSnapshots(t *testing.T) {
	h := newTestRouter(t)
	id := createAccount(t, h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, fmt.Sprint(id), "q1.csv", "text/csv", statement))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/subscriptions/detect", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.DetectResult{Created: 1}, decode[models.DetectResult](t, rec))

	rec = doJSON(t, h, http.MethodPost, "/api/subscriptions/detect", nil)
	assert.Equal(t, models.DetectResult{}, decode[models.DetectResult](t, rec))

	rec = doJSON(t, h, http.MethodGet, "/api/subscriptions", nil)
	subs := decode[[]models.SubscriptionWithCost](t, rec)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1549*12), *subs[0].AnnualCostCents)

	notes := "shared with family"
	rec = doJSON(t, h, http.MethodPatch, fmt.Sprintf("/api/subscriptions/%d", subs[0].ID), models.SubscriptionUpdate{Notes: &notes})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, &notes, decode[models.Subscription](t, rec).Notes)

	assert.Equal(t, http.StatusNoContent,
		doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/subscriptions/%d/archive", subs[0].ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPost, "/api/subscriptions/999/archive", nil).Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/snapshots?account_id=%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snaps := decode[[]models.MonthlySnapshot](t, rec)
	require.Len(t, snaps, 3)

	rec = doJSON(t, h, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, s := range decode[[]models.MonthlySnapshot](t, rec) {
		assert.Nil(t, s.AccountID)
	}
}

func TestCategories(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/categories", models.CategoryCreate{Name: "Streaming"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user", decode[models.Category](t, rec).Source)

	rec = doJSON(t, h, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]models.Category](t, rec))

	rec = doJSON(t, h, http.MethodPost, "/api/categories", models.CategoryCreate{Name: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: rule 4", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad mode", services.ErrValidation), http.StatusBadRequest},
		{services.ErrUnsupportedFormat, http.StatusBadRequest},
		{fmt.Errorf("%w: line 3", services.ErrParsingFailed), http.StatusBadRequest},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			sendServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "load rule")
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "disk")
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestIDFromContext(r.Context())
	})
	h := ContextualLoggerMiddleware(CORSMiddleware([]string{"http://localhost:3000"})(next))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	seen = ""
	req = httptest.NewRequest(http.MethodOptions, "/api/accounts", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, seen, "preflight does not reach the handler")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
