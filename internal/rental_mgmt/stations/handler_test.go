package stations

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHandlerGetStation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	r := gin.New()
	RegisterRoutes(r, NewService(conn, nil))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM stations WHERE station_id = ?`)).
		WithArgs("ST-9").
		WillReturnRows(sqlmock.NewRows([]string{"station_id", "name", "total_capacity", "available_count", "return_slots", "updated_at"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stations/ST-9", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var body errorDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, CodeStationNotFound, body.Code)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM stations WHERE station_id = ?`)).
		WithArgs("ST-1").
		WillReturnRows(sqlmock.NewRows([]string{"station_id", "name", "total_capacity", "available_count", "return_slots", "updated_at"}).
			AddRow("ST-1", "Dam", 6, 2, 4, time.Now()))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stations/ST-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var st StationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, 2, st.AvailableCount)
}
