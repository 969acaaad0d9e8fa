package stations

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 在庫の参照のみ。増減は貸出・返却からしか行わない
	r.GET("/stations", h.ListStations)
	r.GET("/stations/:station_id", h.GetStation)
}

// ListStations godoc
// @Summary  List stations with live availability
// @Tags     stations
// @Param    available query bool false "only stations with a power bank available"
// @Param    limit     query int  false "page size" default(50)
// @Param    offset    query int  false "offset"
// @Success  200 {object} ListStationsResult
// @Router   /stations [get]
func (h *Handler) ListStations(c *gin.Context) {
	f := StationFilter{}
	if v := c.Query("available"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.OnlyAvailable = b
		}
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	res, err := h.svc.ListStations(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetStation godoc
// @Summary  Get one station
// @Tags     stations
// @Param    station_id path string true "station id"
// @Success  200 {object} StationResponse
// @Failure  404 {object} errorDTO
// @Router   /stations/{station_id} [get]
func (h *Handler) GetStation(c *gin.Context) {
	res, err := h.svc.GetStation(c.Request.Context(), c.Param("station_id"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error string `json:"error"`
	Code  Code   `json:"code,omitempty"`
}

func errorFromErr(err error) errorDTO {
	if api, ok := err.(*APIError); ok {
		return errorDTO{Error: api.Message, Code: api.Code}
	}
	return errorDTO{Error: "internal error", Code: CodeInternal}
}
