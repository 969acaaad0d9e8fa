package stations

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/db"
)

// 駅マスタの管理（運用者のみ）。在庫数の増減は貸出・返却からしか行わないので、
// ここで触れるのは登録時の初期在庫と容量だけ。

type CreateStationRequest struct {
	StationID      string `json:"stationId" binding:"required,resource_id"`
	Name           string `json:"name" binding:"required,max=255"`
	TotalCapacity  int    `json:"totalCapacity" binding:"required,min=1"`
	AvailableCount *int   `json:"availableCount" binding:"omitempty,min=0"`
}

type UpdateStationRequest struct {
	Name          string `json:"name" binding:"required,max=255"`
	TotalCapacity int    `json:"totalCapacity" binding:"required,min=1"`
}

// ---------- store ----------

func (s *Store) CreateStation(ctx context.Context, m *Station) error {
	const q = `
		INSERT INTO stations (station_id, name, total_capacity, available_count, return_slots)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, m.StationID, m.Name, m.TotalCapacity, m.AvailableCount, m.ReturnSlots)
	return err
}

// UpdateStation は容量を貸出可能数より小さくできない
func (s *Store) UpdateStation(ctx context.Context, stationID, name string, capacity int) error {
	const q = `
		UPDATE stations
		SET name = ?, total_capacity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE station_id = ?
		AND available_count <= ?`
	r, err := s.db.ExecContext(ctx, q, name, capacity, stationID, capacity)
	if err != nil {
		return err
	}
	aff, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 1 {
		return nil
	}

	// 0件: 存在しない / 容量不足 / 同じ値での更新（変更行カウントの接続）を見分ける
	const sel = `SELECT available_count FROM stations WHERE station_id = ?`
	var available int
	err = s.db.QueryRowContext(ctx, sel, stationID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStationNotFound
	}
	if err != nil {
		return err
	}
	if available > capacity {
		return ErrConflict("total capacity is below the available count")
	}
	return nil
}

// ---------- service ----------

func (s *Service) CreateStation(ctx context.Context, in CreateStationRequest) (StationResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return StationResponse{}, ErrInvalid("name is required")
	}
	if in.TotalCapacity <= 0 {
		return StationResponse{}, ErrInvalid("totalCapacity must be > 0")
	}
	avail := in.TotalCapacity
	if in.AvailableCount != nil {
		avail = *in.AvailableCount
	}
	if avail < 0 || avail > in.TotalCapacity {
		return StationResponse{}, ErrInvalid("availableCount must be between 0 and totalCapacity")
	}

	m := &Station{
		StationID:      in.StationID,
		Name:           name,
		TotalCapacity:  in.TotalCapacity,
		AvailableCount: avail,
		ReturnSlots:    in.TotalCapacity - avail,
	}
	if err := s.store.CreateStation(ctx, m); err != nil {
		if db.IsDuplicateKey(err) {
			return StationResponse{}, ErrConflict("station already exists")
		}
		return StationResponse{}, err
	}
	return s.GetStation(ctx, in.StationID)
}

func (s *Service) UpdateStation(ctx context.Context, stationID string, in UpdateStationRequest) (StationResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return StationResponse{}, ErrInvalid("name is required")
	}
	if err := s.store.UpdateStation(ctx, stationID, name, in.TotalCapacity); err != nil {
		return StationResponse{}, err
	}
	return s.GetStation(ctx, stationID)
}

// ---------- handlers ----------

func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/admin/stations", h.CreateStation)
	r.PUT("/admin/stations/:station_id", h.UpdateStation)
}

// CreateStation godoc
// @Summary  Register a station
// @Tags     admin
// @Security BearerAuth
// @Param    body body CreateStationRequest true "station"
// @Success  201 {object} StationResponse
// @Failure  409 {object} errorDTO
// @Router   /admin/stations [post]
func (h *Handler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorDTO{Error: err.Error(), Code: CodeInvalidArgument})
		return
	}
	res, err := h.svc.CreateStation(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/api/v2/stations/"+res.StationID)
	c.JSON(http.StatusCreated, res)
}

// UpdateStation godoc
// @Summary  Rename a station or change its capacity
// @Tags     admin
// @Security BearerAuth
// @Param    station_id path string               true "station id"
// @Param    body       body UpdateStationRequest true "changes"
// @Success  200 {object} StationResponse
// @Failure  404 {object} errorDTO
// @Failure  409 {object} errorDTO
// @Router   /admin/stations/{station_id} [put]
func (h *Handler) UpdateStation(c *gin.Context) {
	var req UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorDTO{Error: err.Error(), Code: CodeInvalidArgument})
		return
	}
	res, err := h.svc.UpdateStation(c.Request.Context(), c.Param("station_id"), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
