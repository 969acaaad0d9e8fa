package rentals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/auth"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/validation"
)

var testSecret = []byte("test-secret")

func newTestRouter(t *testing.T, f *fixture, lookup ChargeLookup) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	r := gin.New()
	api := r.Group("/api/v2", auth.RequireAuth(testSecret))
	RegisterRoutes(api, f.svc, nil)
	if lookup != nil {
		RegisterAdminRoutes(api.Group("", auth.RequireRole("admin")), lookup, nil)
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, user, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		tok, err := auth.SignToken(testSecret, user, role, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorDTO {
	t.Helper()
	var e errorDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestHandler_StartAndReturn(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v2/rentals", "u1", "", gin.H{"stationId": "ST-1", "powerbankId": "PB-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var started StartRentalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.Equal(t, "/api/v2/rentals/"+started.RentalID, w.Header().Get("Location"))
	require.True(t, started.ValidationFeeCharged)

	f.clock.Advance(45 * time.Minute)
	w = doJSON(t, r, http.MethodPost, "/api/v2/rentals/"+started.RentalID+"/return", "u1", "", gin.H{"returnStationId": "ST-2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var closed EndRentalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	require.Equal(t, StatusCompleted, closed.Status)
	require.EqualValues(t, 200, closed.TotalCharge)
	require.EqualValues(t, 100, closed.AdditionalCharge)
	require.NotEmpty(t, closed.Breakdown)

	// 2回目は NOT_ACTIVE
	w = doJSON(t, r, http.MethodPost, "/api/v2/rentals/end", "u1", "", gin.H{"rentalId": started.RentalID, "returnStationId": "ST-2"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, CodeNotActive, decodeError(t, w).Code)
}

func TestHandler_EndByBody(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f, nil)
	st := f.start(t, "u1", "ST-1", "PB-1")

	w := doJSON(t, r, http.MethodPost, "/api/v2/rentals/end", "u1", "", gin.H{"rentalId": st.RentalID, "returnStationId": "ST-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/v2/rentals/end", "u1", "", gin.H{"returnStationId": "ST-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, CodeInvalidArgument, decodeError(t, w).Code)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v2/rentals", "", "", gin.H{"stationId": "ST-1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, Code("UNAUTHENTICATED"), decodeError(t, w).Code)

	w = doJSON(t, r, http.MethodPost, "/api/v2/rentals", "u1", "", gin.H{"stationId": "ST 1; drop"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, CodeInvalidArgument, decodeError(t, w).Code)

	w = doJSON(t, r, http.MethodPost, "/api/v2/rentals", "u3", "", gin.H{"stationId": "ST-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeError(t, w)
	require.Equal(t, CodeNoPaymentMethod, e.Code)
	require.NotEmpty(t, e.Error)

	f.gw.configured = false
	w = doJSON(t, r, http.MethodPost, "/api/v2/rentals", "u1", "", gin.H{"stationId": "ST-1"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, CodePaymentNotConfigured, decodeError(t, w).Code)
}

type lookupFunc func(ctx context.Context, id string) (payment.ChargeInfo, error)

func (f lookupFunc) GetCharge(ctx context.Context, id string) (payment.ChargeInfo, error) { return f(ctx, id) }

func TestHandler_AdminChargeLookup(t *testing.T) {
	f := newFixture(t)
	lookup := lookupFunc(func(_ context.Context, id string) (payment.ChargeInfo, error) {
		if id == "pi_missing" {
			return payment.ChargeInfo{}, payment.ErrCustomerOrMethodNotFound
		}
		return payment.ChargeInfo{ChargeID: id, Status: "succeeded", Amount: 100, Currency: "eur"}, nil
	})
	r := newTestRouter(t, f, lookup)

	w := doJSON(t, r, http.MethodGet, "/api/v2/admin/charges/pi_1", "u1", "", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v2/admin/charges/pi_1", "ops", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info payment.ChargeInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	require.EqualValues(t, 100, info.Amount)

	w = doJSON(t, r, http.MethodGet, "/api/v2/admin/charges/pi_missing", "ops", "admin", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// 一覧系はどれも {items: [...]} で返す
func TestHandler_ActiveRentalsShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	h, mock := newMockHistory(t, now)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = ? AND status = 'active'`)).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(historyColumns).
			AddRow("R3", "PB-3", "u1", "ST-1", nil, now.Add(-95*time.Minute), nil, "active", 0, 0, 0, 100, "none"))

	f := newFixture(t)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v2", auth.RequireAuth(testSecret)), f.svc, h)

	w := doJSON(t, r, http.MethodGet, "/api/v2/rentals/active", "u1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res ActiveRentalsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	require.Equal(t, "R3", res.Items[0].RentalID)
	require.NotNil(t, res.Items[0].CurrentQuote)
	require.NoError(t, mock.ExpectationsWereMet())
}
