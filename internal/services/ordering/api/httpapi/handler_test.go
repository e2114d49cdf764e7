package httpapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"github.com/tableside/tableside/internal/services/ordering/storage/storagetest"
	"github.com/tableside/tableside/internal/services/ordering/tables"
	"go.uber.org/zap"
)

type testServer struct {
	handler   http.Handler
	store     *storagetest.Store
	assetsDir string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	store := storagetest.New()
	assetsDir := t.TempDir()
	logger := zap.NewNop()
	h := New(Options{
		Catalog:   catalog.NewService(store, logger),
		Orders:    order.NewService(store, logger),
		Tables:    tables.NewTracker(store, logger),
		AssetsDir: assetsDir,
		Logger:    logger,
	})
	return testServer{handler: h.Routes(), store: store, assetsDir: assetsDir}
}

func (s testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestMenuLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := srv.do(t, http.MethodPost, "/api/menu", `{"id":"m1","name":"Tea","price":300,"category":"Drinks","options":[{"name":"Milk","price":50}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decode[idResponse](t, rr); got.ID != "m1" {
		t.Fatalf("created id = %q, want m1", got.ID)
	}

	rr = srv.do(t, http.MethodPut, "/api/menu/m1", `{"price":350,"isRecommended":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = srv.do(t, http.MethodGet, "/api/menu", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	got := decode[catalogResponse](t, rr)
	want := catalogResponse{Categories: []catalog.Category{{
		Name: "Drinks",
		Items: []catalog.Item{{
			ID: "m1", Name: "Tea", Price: 350, Category: "Drinks", IsRecommended: true,
			Options: []storage.MenuOption{{Name: "Milk", Price: 50}},
		}},
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}

	rr = srv.do(t, http.MethodDelete, "/api/menu/m1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = srv.do(t, http.MethodDelete, "/api/menu/m1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCreateMenuItemDuplicateReturnsConflict(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	body := `{"id":"m1","name":"Tea","price":300,"category":"Drinks"}`
	if rr := srv.do(t, http.MethodPost, "/api/menu", body); rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}
	rr := srv.do(t, http.MethodPost, "/api/menu", body, "Accept-Language", "en-US")
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want %d", rr.Code, http.StatusConflict)
	}
	got := decode[errorResponse](t, rr)
	want := errorResponse{Code: "DUPLICATE_ID", Error: `A menu item with id "m1" already exists.`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateOrderAndListForTable(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := srv.do(t, http.MethodPost, "/api/orders", `{"tableNumber":"5","items":[{"price":500,"quantity":2,"selectedOptions":[]}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decode[orderResponse](t, rr)
	if created.TotalPrice != 1000 || created.Status != "RECEIVED" || created.StatusLabel != "注文受付" || created.TableNumber != 5 {
		t.Fatalf("created = %+v", created)
	}

	rr = srv.do(t, http.MethodGet, "/api/orders?tableNumber=5&lang=en", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	listed := decode[[]orderResponse](t, rr)
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].StatusLabel != "Received" {
		t.Fatalf("listed = %+v", listed)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{name: "empty items", body: `{"tableNumber":5,"items":[]}`},
		{name: "missing table", body: `{"items":[{"price":100,"quantity":1}]}`},
		{name: "fractional table", body: `{"tableNumber":2.5,"items":[{"price":100,"quantity":1}]}`},
		{name: "malformed json", body: `{"tableNumber":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(t, http.MethodPost, "/api/orders", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
			if got := decode[errorResponse](t, rr); got.Code != "INVALID_INPUT" {
				t.Fatalf("code = %q, want INVALID_INPUT", got.Code)
			}
		})
	}

	rr := srv.do(t, http.MethodGet, "/api/orders?tableNumber=5", "")
	if listed := decode[[]orderResponse](t, rr); len(listed) != 0 {
		t.Fatalf("orders after rejected creates = %d, want 0", len(listed))
	}
}

func TestSetOrderStatusFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	created := decode[orderResponse](t, srv.do(t, http.MethodPost, "/api/orders", `{"tableNumber":3,"items":[{"price":100,"quantity":1}]}`))
	target := "/api/orders/" + itoa(created.ID) + "/status"

	rr := srv.do(t, http.MethodPut, target, `{"status":"調理中"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status update = %d, body %s", rr.Code, rr.Body.String())
	}
	want := statusResponse{ID: created.ID, Status: "PREPARING", StatusLabel: "調理中"}
	if diff := cmp.Diff(want, decode[statusResponse](t, rr)); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}

	rr = srv.do(t, http.MethodPut, target, `{"status":"not-a-real-status"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if got := decode[errorResponse](t, rr); got.Code != "INVALID_STATUS" || got.Error != "「not-a-real-status」は無効なステータスです（有効な値: RECEIVED, PREPARING, READY, SERVED, SETTLED, CANCELLED, CALLED, KITCHEN_DONE）" {
		t.Fatalf("error = %+v", got)
	}

	rr = srv.do(t, http.MethodPut, "/api/orders/999/status", `{"status":"READY"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing order code = %d, want %d", rr.Code, http.StatusNotFound)
	}
	rr = srv.do(t, http.MethodPut, "/api/orders/abc/status", `{"status":"READY"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unparseable id code = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestKitchenTablesAndStaffCall(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	first := decode[orderResponse](t, srv.do(t, http.MethodPost, "/api/orders", `{"tableNumber":7,"items":[{"price":100,"quantity":1}]}`))
	_ = decode[orderResponse](t, srv.do(t, http.MethodPost, "/api/orders", `{"tableNumber":2,"items":[{"price":100,"quantity":1}]}`))

	rr := srv.do(t, http.MethodPost, "/api/call", `{"tableNumber":9}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("call status = %d", rr.Code)
	}
	call := decode[orderIDResponse](t, rr)
	if call.ID <= 0 {
		t.Fatalf("call id = %d", call.ID)
	}

	if rr := srv.do(t, http.MethodPut, "/api/orders/"+itoa(first.ID)+"/status", `{"status":"SETTLED"}`); rr.Code != http.StatusOK {
		t.Fatalf("settle status = %d", rr.Code)
	}

	rr = srv.do(t, http.MethodGet, "/api/tables", "")
	if diff := cmp.Diff([]int{2, 9}, decode[[]int](t, rr)); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}

	kitchen := decode[[]orderResponse](t, srv.do(t, http.MethodGet, "/api/kitchen/orders", ""))
	if len(kitchen) != 2 || kitchen[1].ID != call.ID || kitchen[1].Status != "CALLED" {
		t.Fatalf("kitchen = %+v", kitchen)
	}

	if rr := srv.do(t, http.MethodPost, "/api/call", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty call status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearchOrdersRejectsFiltersOnMemoryStore(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := srv.do(t, http.MethodGet, "/api/orders/history?filter=seat%20%3D%201", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad filter status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	rr = srv.do(t, http.MethodGet, "/api/orders/history", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history status = %d", rr.Code)
	}
}

func TestStoreErrorsAreOpaque(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.store.Err = os.ErrPermission
	rr := srv.do(t, http.MethodGet, "/api/tables", "", "Accept-Language", "en-US,en;q=0.9")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	got := decode[errorResponse](t, rr)
	if got.Code != "STORE_ERROR" || strings.Contains(got.Error, "permission") {
		t.Fatalf("error = %+v, want opaque STORE_ERROR", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	srv.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing allow origin header")
	}
}

func TestStaticAssetsServedUnderAllPrefixes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	if err := os.WriteFile(filepath.Join(srv.assetsDir, "tea.jpeg"), []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	for _, prefix := range []string{"/assets/", "/images/", "/static/"} {
		rr := srv.do(t, http.MethodGet, prefix+"tea.jpeg", "")
		if rr.Code != http.StatusOK || rr.Body.String() != "jpeg-bytes" {
			t.Fatalf("%s status = %d body = %q", prefix, rr.Code, rr.Body.String())
		}
	}
}

func TestMultipartCreateStoresJPEGImage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range map[string]string{
		"id":            "m9",
		"name":          "Matcha",
		"price":         "450",
		"category":      "Drinks",
		"isRecommended": "1",
		"options":       `[{"name":"Large","price":100}]`,
	} {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile(imageFormField, "matcha.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/menu", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	data, err := os.ReadFile(filepath.Join(srv.assetsDir, "menu_m9.jpeg"))
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Fatal("stored image is not a JPEG")
	}

	menu := decode[catalogResponse](t, srv.do(t, http.MethodGet, "/api/menu", ""))
	item := menu.Categories[0].Items[0]
	if item.Image != "menu_m9.jpeg" || !item.IsRecommended || item.Price != 450 || len(item.Options) != 1 {
		t.Fatalf("item = %+v", item)
	}
}

func TestImageName(t *testing.T) {
	t.Parallel()

	if got := imageName("m9"); got != "menu_m9.jpeg" {
		t.Fatalf("image name = %q, want menu_m9.jpeg", got)
	}

	traversal := imageName("../etc/passwd")
	if strings.ContainsAny(traversal, "/\\") || filepath.Base(traversal) != traversal {
		t.Fatalf("image name %q escapes the assets directory", traversal)
	}

	seen := map[string]string{}
	for _, id := range []string{"a b", "a_b", "a/b", "a.b", "a-b", strings.Repeat("x", 65), strings.Repeat("x", 64)} {
		name := imageName(id)
		if other, ok := seen[name]; ok {
			t.Fatalf("ids %q and %q share image name %q", other, id, name)
		}
		seen[name] = id
		if len(name) > 255 {
			t.Fatalf("image name for %q is %d bytes", id, len(name))
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
