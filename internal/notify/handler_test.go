package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"evalnotify_backend/internal/smartsheet"
	"evalnotify_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeFlowStarter struct {
	started []int64
	failFor map[int64]error
}

func (f *fakeFlowStarter) StartFlow(_ context.Context, rowID int64) error {
	if err, ok := f.failFor[rowID]; ok {
		return err
	}
	f.started = append(f.started, rowID)
	return nil
}

type fakeWebhookManager struct {
	created    *smartsheet.Webhook
	createErr  error
	enableErr  error
	deleteErr  error
	deletedID  int64
	user       smartsheet.User
	userErr    error
	enabledIDs []int64
}

func (f *fakeWebhookManager) CreateWebhook(_ context.Context, name, callbackURL string) (smartsheet.Webhook, error) {
	if f.createErr != nil {
		return smartsheet.Webhook{}, f.createErr
	}
	hook := smartsheet.Webhook{ID: 555, Name: name, CallbackURL: callbackURL}
	f.created = &hook
	return hook, nil
}

func (f *fakeWebhookManager) SetWebhookEnabled(_ context.Context, webhookID int64, enabled bool) (smartsheet.Webhook, error) {
	if f.enableErr != nil {
		return smartsheet.Webhook{}, f.enableErr
	}
	f.enabledIDs = append(f.enabledIDs, webhookID)
	return smartsheet.Webhook{ID: webhookID, Enabled: enabled, Status: "ENABLED"}, nil
}

func (f *fakeWebhookManager) DeleteWebhook(_ context.Context, webhookID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = webhookID
	return nil
}

func (f *fakeWebhookManager) GetCurrentUser(_ context.Context) (smartsheet.User, error) {
	if f.userErr != nil {
		return smartsheet.User{}, f.userErr
	}
	return f.user, nil
}

type fakeWebhookIDStore struct {
	id int64
}

func (f *fakeWebhookIDStore) WebhookID(_ context.Context) (int64, error) { return f.id, nil }
func (f *fakeWebhookIDStore) SetWebhookID(_ context.Context, id int64) error {
	f.id = id
	return nil
}
func (f *fakeWebhookIDStore) ClearWebhookID(_ context.Context) error {
	f.id = 0
	return nil
}

type handlerFixture struct {
	engine   *gin.Engine
	flow     *fakeFlowStarter
	settings *fakeSettings
	webhooks *fakeWebhookManager
	store    *fakeWebhookIDStore
}

func newHandlerFixture(callbackURL string) *handlerFixture {
	gin.SetMode(gin.TestMode)

	flow := &fakeFlowStarter{failFor: map[int64]error{}}
	settings := newFakeSettings()
	settings.columns = testColumns()
	webhooks := &fakeWebhookManager{user: smartsheet.User{ID: 1, Email: "ops@example.com"}}
	store := &fakeWebhookIDStore{}

	h := NewHandler(flow, settings, webhooks, store, callbackURL, validator.New(), testLogger())

	engine := gin.New()
	engine.GET("/webhook", h.HandleProbe)
	engine.POST("/webhook", h.HandleEvents)
	engine.POST("/trigger", h.HandleManualTrigger)
	engine.POST("/smartsheet/webhook", h.HandleCreateWebhook)
	engine.DELETE("/smartsheet/webhook", h.HandleDeleteWebhook)
	engine.GET("/smartsheet/status", h.HandleConnectivity)

	return &handlerFixture{engine: engine, flow: flow, settings: settings, webhooks: webhooks, store: store}
}

func (fx *handlerFixture) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	fx.engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleProbe(t *testing.T) {
	fx := newHandlerFixture("")

	rec := fx.do(http.MethodGet, "/webhook", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["status"] != "active" {
		t.Fatalf("body = %v", body)
	}
}

func TestHandleEventsChallengeEcho(t *testing.T) {
	fx := newHandlerFixture("")

	rec := fx.do(http.MethodPost, "/webhook", []byte(`{"challenge":"abc123"}`), map[string]string{
		"Smartsheet-Hook-Challenge": "abc123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["smartsheetHookResponse"] != "abc123" {
		t.Fatalf("challenge not echoed verbatim: %v", body)
	}
	if len(fx.flow.started) != 0 {
		t.Fatal("a challenge request must not process events")
	}
}

func TestHandleEventsQualifyingBatch(t *testing.T) {
	fx := newHandlerFixture("")

	payload := `{"nonce":"n1","events":[
		{"objectType":"cell","eventType":"cellModified","rowId":10,"columnId":110},
		{"objectType":"cell","eventType":"cellModified","rowId":11,"columnId":104},
		{"objectType":"row","eventType":"created","rowId":12,"columnId":110},
		{"objectType":"cell","eventType":"updated","rowId":13,"columnId":110}
	]}`

	rec := fx.do(http.MethodPost, "/webhook", []byte(payload), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp EventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !resp.Success || resp.Processed != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if len(fx.flow.started) != 2 || fx.flow.started[0] != 10 || fx.flow.started[1] != 13 {
		t.Fatalf("started rows = %v", fx.flow.started)
	}
}

func TestHandleEventsOneFailureDoesNotAbortBatch(t *testing.T) {
	fx := newHandlerFixture("")
	fx.flow.failFor[10] = errBoom

	payload := `{"events":[
		{"eventType":"cellModified","rowId":10,"columnId":110},
		{"eventType":"cellModified","rowId":11,"columnId":110}
	]}`

	rec := fx.do(http.MethodPost, "/webhook", []byte(payload), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp EventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Processed != 1 {
		t.Fatalf("processed = %d, want 1", resp.Processed)
	}
	if len(fx.flow.started) != 1 || fx.flow.started[0] != 11 {
		t.Fatalf("started rows = %v", fx.flow.started)
	}
}

func TestHandleEventsBadRequests(t *testing.T) {
	fx := newHandlerFixture("")

	if rec := fx.do(http.MethodPost, "/webhook", []byte(`{not json`), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d", rec.Code)
	}
	if rec := fx.do(http.MethodPost, "/webhook", []byte(`{"nonce":"n"}`), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing events: status = %d", rec.Code)
	}
}

func TestHandleEventsUnconfiguredCheckbox(t *testing.T) {
	fx := newHandlerFixture("")
	fx.settings.columns.TriggerCheckbox = 0

	payload := `{"events":[{"eventType":"cellModified","rowId":10,"columnId":110}]}`
	rec := fx.do(http.MethodPost, "/webhook", []byte(payload), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(fx.flow.started) != 0 {
		t.Fatal("no flow may start without a configured trigger column")
	}
}

func TestHandleEventsEmptyEventsListSucceeds(t *testing.T) {
	fx := newHandlerFixture("")

	rec := fx.do(http.MethodPost, "/webhook", []byte(`{"events":[]}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp EventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Processed != 0 {
		t.Fatalf("processed = %d", resp.Processed)
	}
}

func TestHandleManualTrigger(t *testing.T) {
	fx := newHandlerFixture("")

	rec := fx.do(http.MethodPost, "/trigger", []byte(`{"rowId":77}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(fx.flow.started) != 1 || fx.flow.started[0] != 77 {
		t.Fatalf("started rows = %v", fx.flow.started)
	}
}

func TestHandleManualTriggerRejectsMissingRowID(t *testing.T) {
	fx := newHandlerFixture("")

	if rec := fx.do(http.MethodPost, "/trigger", []byte(`{}`), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := fx.do(http.MethodPost, "/trigger", []byte(`{"rowId":0}`), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleCreateWebhookStoresAndEnables(t *testing.T) {
	fx := newHandlerFixture("https://app.example.com/api/v1/webhook/smartsheet")

	rec := fx.do(http.MethodPost, "/smartsheet/webhook", nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fx.store.id != 555 {
		t.Fatalf("stored webhook id = %d", fx.store.id)
	}
	if len(fx.webhooks.enabledIDs) != 1 || fx.webhooks.enabledIDs[0] != 555 {
		t.Fatalf("enabled ids = %v", fx.webhooks.enabledIDs)
	}
	if fx.webhooks.created.CallbackURL != "https://app.example.com/api/v1/webhook/smartsheet" {
		t.Fatalf("callback url = %q", fx.webhooks.created.CallbackURL)
	}
}

func TestHandleCreateWebhookWithoutCallbackURL(t *testing.T) {
	fx := newHandlerFixture("")

	if rec := fx.do(http.MethodPost, "/smartsheet/webhook", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleCreateWebhookUpstreamFailure(t *testing.T) {
	fx := newHandlerFixture("https://app.example.com/hook")
	fx.webhooks.createErr = errBoom

	if rec := fx.do(http.MethodPost, "/smartsheet/webhook", nil, nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleCreateWebhookEnableFailureKeepsStoredID(t *testing.T) {
	fx := newHandlerFixture("https://app.example.com/hook")
	fx.webhooks.enableErr = errBoom

	rec := fx.do(http.MethodPost, "/smartsheet/webhook", nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if fx.store.id != 555 {
		t.Fatalf("id should stay stored for a later enable retry, got %d", fx.store.id)
	}
}

func TestHandleDeleteWebhook(t *testing.T) {
	fx := newHandlerFixture("")
	fx.store.id = 555

	rec := fx.do(http.MethodDelete, "/smartsheet/webhook", nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if fx.webhooks.deletedID != 555 {
		t.Fatalf("deleted id = %d", fx.webhooks.deletedID)
	}
	if fx.store.id != 0 {
		t.Fatalf("stored id should be cleared, got %d", fx.store.id)
	}
}

func TestHandleDeleteWebhookWhenNoneRegistered(t *testing.T) {
	fx := newHandlerFixture("")

	if rec := fx.do(http.MethodDelete, "/smartsheet/webhook", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleConnectivity(t *testing.T) {
	fx := newHandlerFixture("")

	rec := fx.do(http.MethodGet, "/smartsheet/status", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["connected"] != true || body["account"] != "ops@example.com" {
		t.Fatalf("body = %v", body)
	}

	fx.webhooks.userErr = errBoom
	if rec := fx.do(http.MethodGet, "/smartsheet/status", nil, nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}
