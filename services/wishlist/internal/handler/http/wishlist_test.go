package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pawmart/storefront/pkg/errors"
	"github.com/pawmart/storefront/pkg/health"
	"github.com/pawmart/storefront/pkg/httputil"
	"github.com/pawmart/storefront/pkg/middleware"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

// =============================================================================
// Mock WishlistService
// =============================================================================

type mockService struct {
	mock.Mock
}

func (m *mockService) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockService) Add(ctx context.Context, userID, productID string) (*domain.WishlistItem, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistItem), args.Error(1)
}

func (m *mockService) Remove(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockService) Clear(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockService) Sync(ctx context.Context, userID string, productIDs []string) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, userID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

const testToken = "good-token"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeValidator(token string) (*middleware.Claims, error) {
	if token != testToken {
		return nil, errors.New("bad token")
	}
	return &middleware.Claims{UserID: "u1"}, nil
}

func newTestRouter(t *testing.T, svc *mockService, limiter *middleware.Limiter) http.Handler {
	t.Helper()
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return NewRouter(svc, fakeValidator, limiter, health.NewRegistry(), quietLogger(), RouterConfig{
		CORS: middleware.DefaultCORSConfig(),
	})
}

func do(router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func sampleItem(productID string) domain.WishlistItem {
	return domain.WishlistItem{
		ID:        "w-" + productID,
		ProductID: productID,
		Name:      "Chew Toy",
		Slug:      "chew-toy",
		Price:     1299,
		AddedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		InStock:   true,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestList_ReturnsItems(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("List", mock.Anything, "u1").Return([]domain.WishlistItem{sampleItem("p1")}, nil)

	rec := do(router, http.MethodGet, "/api/wishlist", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "p1", body.Items[0]["productId"])
	assert.EqualValues(t, 1299, body.Items[0]["price"])
	assert.NotContains(t, body.Items[0], "userId")
}

func TestList_RequiresToken(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)

	rec := do(router, http.MethodGet, "/api/wishlist", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/wishlist", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSync_PassesProductIDs(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Sync", mock.Anything, "u1", []string{"p1", "p2"}).
		Return([]domain.WishlistItem{sampleItem("p2"), sampleItem("p1")}, nil)

	rec := do(router, http.MethodPost, "/api/wishlist/sync",
		`{"items":[{"productId":"p1"},{"productId":"p2"}]}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body ItemsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Items, 2)
}

func TestSync_EmptyList(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Sync", mock.Anything, "u1", []string{}).Return([]domain.WishlistItem{}, nil)

	rec := do(router, http.MethodPost, "/api/wishlist/sync", `{"items":[]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestSync_ValidationError(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)

	rec := do(router, http.MethodPost, "/api/wishlist/sync", `{"items":[{"productId":""}]}`, true)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErr(t, rec).Code)
	svc.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_TooManyItems(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Sync", mock.Anything, "u1", mock.Anything).
		Return(nil, apperrors.InvalidInput("too many items"))

	rec := do(router, http.MethodPost, "/api/wishlist/sync", `{"items":[{"productId":"p1"}]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdd_Created(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	item := sampleItem("p1")
	svc.On("Add", mock.Anything, "u1", "p1").Return(&item, nil)

	rec := do(router, http.MethodPost, "/api/wishlist/add", `{"productId":"p1"}`, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body ItemResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Item)
	assert.Equal(t, "p1", body.Item.ProductID)
}

func TestAdd_UnknownProduct(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Add", mock.Anything, "u1", "ghost").Return(nil, apperrors.NotFound("product", "ghost"))

	rec := do(router, http.MethodPost, "/api/wishlist/add", `{"productId":"ghost"}`, true)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeErr(t, rec).Code)
}

func TestAdd_RejectsNonJSON(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/wishlist/add", strings.NewReader(`productId=p1`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAdd_MalformedBody(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)

	rec := do(router, http.MethodPost, "/api/wishlist/add", `{"productId":`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeErr(t, rec).Code)
}

func TestRemove(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Remove", mock.Anything, "u1", "p1").Return(nil)

	rec := do(router, http.MethodDelete, "/api/wishlist/p1", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"productId":"p1","status":"removed"}`, rec.Body.String())
}

func TestRemove_NotInWishlist(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Remove", mock.Anything, "u1", "p9").Return(apperrors.NotFound("wishlist item", "p9"))

	rec := do(router, http.MethodDelete, "/api/wishlist/p9", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClear(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)
	svc.On("Clear", mock.Anything, "u1").Return(3, nil)

	rec := do(router, http.MethodDelete, "/api/wishlist", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"cleared"}`, rec.Body.String())
}

func TestMutations_RateLimited(t *testing.T) {
	svc := new(mockService)
	limiter := middleware.NewLimiter(middleware.RateLimitConfig{RPS: 0.001, Burst: 1}, quietLogger())
	router := newTestRouter(t, svc, limiter)
	svc.On("Clear", mock.Anything, "u1").Return(0, nil).Once()
	svc.On("List", mock.Anything, "u1").Return([]domain.WishlistItem{}, nil).Twice()

	assert.Equal(t, http.StatusOK, do(router, http.MethodDelete, "/api/wishlist", "", true).Code)
	rec := do(router, http.MethodDelete, "/api/wishlist", "", true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/wishlist", "", true).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/wishlist", "", true).Code)
}

func TestHealthEndpoints(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(t, svc, nil)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "", false).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "", false).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", "", false).Code)
}
