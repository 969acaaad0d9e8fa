package rentals

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/auth"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
)

type Handler struct {
	svc  *Service
	hist *History
}

// RegisterRoutes は認証済みグループに登録する前提
func RegisterRoutes(r gin.IRoutes, svc *Service, hist *History) {
	h := &Handler{svc: svc, hist: hist}

	r.POST("/rentals", h.StartRental)
	r.POST("/rentals/end", h.EndRentalByBody)
	r.POST("/rentals/:rental_id/return", h.EndRental)

	r.GET("/rentals", h.ListRentals)
	r.GET("/rentals/active", h.ActiveRentals)
	r.GET("/rentals/:rental_id", h.GetRental)
}

// ---------- handlers ----------

// StartRental godoc
// @Summary  Start a rental at a station
// @Tags     rentals
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body StartRentalRequest true "rental start"
// @Success  201 {object} StartRentalResponse
// @Failure  400 {object} errorDTO
// @Failure  404 {object} errorDTO
// @Failure  409 {object} errorDTO
// @Failure  502 {object} errorDTO
// @Failure  503 {object} errorDTO
// @Router   /rentals [post]
func (h *Handler) StartRental(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorDTO{Error: "unauthenticated", Code: "UNAUTHENTICATED"})
		return
	}
	var in StartRentalRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorDTO{Error: err.Error(), Code: CodeInvalidArgument})
		return
	}
	res, err := h.svc.StartRental(c.Request.Context(), userID, in)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/api/v2/rentals/"+res.RentalID)
	c.JSON(http.StatusCreated, res)
}

// EndRental godoc
// @Summary  Return the power bank and settle the rental
// @Tags     rentals
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    rental_id path string           true "rental id"
// @Param    body      body EndRentalRequest true "return station"
// @Success  200 {object} EndRentalResponse
// @Failure  400 {object} errorDTO
// @Failure  404 {object} errorDTO
// @Router   /rentals/{rental_id}/return [post]
func (h *Handler) EndRental(c *gin.Context) {
	h.endRental(c, c.Param("rental_id"))
}

// EndRentalByBody godoc
// @Summary  Return the power bank (rental id in body)
// @Tags     rentals
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body EndRentalRequest true "rentalId and return station"
// @Success  200 {object} EndRentalResponse
// @Failure  400 {object} errorDTO
// @Failure  404 {object} errorDTO
// @Router   /rentals/end [post]
func (h *Handler) EndRentalByBody(c *gin.Context) {
	h.endRental(c, "")
}

func (h *Handler) endRental(c *gin.Context, rentalID string) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorDTO{Error: "unauthenticated", Code: "UNAUTHENTICATED"})
		return
	}
	var in EndRentalRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorDTO{Error: err.Error(), Code: CodeInvalidArgument})
		return
	}
	if rentalID == "" {
		rentalID = in.RentalID
	}
	res, err := h.svc.EndRental(c.Request.Context(), userID, rentalID, in)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListRentals godoc
// @Summary  Rental history of the caller
// @Tags     rentals
// @Security BearerAuth
// @Param    status query string false "active|completed|purchased"
// @Param    limit  query int    false "page size" default(50)
// @Param    offset query int    false "offset"
// @Param    order  query string false "asc|desc" default(desc)
// @Success  200 {object} ListRentalsResult
// @Router   /rentals [get]
func (h *Handler) ListRentals(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorDTO{Error: "unauthenticated", Code: "UNAUTHENTICATED"})
		return
	}
	f := RentalFilter{}
	if v := c.Query("status"); v != "" {
		st := Status(v)
		f.Status = &st
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	res, err := h.hist.ListRentals(c.Request.Context(), userID, f, p)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ActiveRentals godoc
// @Summary  Active rentals of the caller with a running quote
// @Tags     rentals
// @Security BearerAuth
// @Success  200 {object} ActiveRentalsResult
// @Router   /rentals/active [get]
func (h *Handler) ActiveRentals(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorDTO{Error: "unauthenticated", Code: "UNAUTHENTICATED"})
		return
	}
	res, err := h.hist.ActiveRentals(c.Request.Context(), userID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, ActiveRentalsResult{Items: res})
}

// GetRental godoc
// @Summary  One rental with its charges
// @Tags     rentals
// @Security BearerAuth
// @Param    rental_id path string true "rental id"
// @Success  200 {object} RentalResponse
// @Failure  404 {object} errorDTO
// @Router   /rentals/{rental_id} [get]
func (h *Handler) GetRental(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorDTO{Error: "unauthenticated", Code: "UNAUTHENTICATED"})
		return
	}
	res, err := h.hist.GetRental(c.Request.Context(), userID, c.Param("rental_id"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- admin ----------

type ChargeLookup interface {
	GetCharge(ctx context.Context, chargeID string) (payment.ChargeInfo, error)
}

// RegisterAdminRoutes: 決済側の請求の参照と、未回収の精算一覧（突合用）
func RegisterAdminRoutes(r gin.IRoutes, lookup ChargeLookup, hist *History) {
	r.GET("/admin/charges/:charge_id", func(c *gin.Context) {
		info, err := lookup.GetCharge(c.Request.Context(), c.Param("charge_id"))
		if err != nil {
			if errors.Is(err, payment.ErrCustomerOrMethodNotFound) {
				c.JSON(http.StatusNotFound, errorDTO{Error: "charge not found", Code: CodeNotFound})
				return
			}
			api := paymentFailed(err)
			c.JSON(ToHTTPStatus(api), errorFromErr(api))
			return
		}
		c.JSON(http.StatusOK, info)
	})

	if hist == nil {
		return
	}
	r.GET("/admin/settlements", func(c *gin.Context) {
		p := Page{
			Limit:  parseIntDefault(c.Query("limit"), 50),
			Offset: parseIntDefault(c.Query("offset"), 0),
		}
		st := SettlementStatus(c.DefaultQuery("status", string(SettlementFailed)))
		res, err := hist.ListSettlements(c.Request.Context(), st, p)
		if err != nil {
			c.JSON(ToHTTPStatus(err), errorFromErr(err))
			return
		}
		c.JSON(http.StatusOK, res)
	})
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
	var api *APIError
	if errors.As(err, &api) {
		return errorDTO{Error: api.Message, Code: api.Code}
	}
	return errorDTO{Error: "internal error", Code: CodeInternal}
}
