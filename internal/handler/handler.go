// Package handler содержит HTTP-обработчики API сервиса вознаграждений.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/rewards-system/internal/middleware"
	"github.com/mmeshcher/rewards-system/internal/model"
	"github.com/mmeshcher/rewards-system/internal/repository"
	"github.com/mmeshcher/rewards-system/internal/service"
)

// максимальный размер формы заявки вместе со скриншотом
const maxClaimFormSize = 10 << 20

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	GetRewardsView(ctx context.Context, userID string) (*service.RewardsView, error)
	ClaimDailyStreak(ctx context.Context, userID string) (*model.ClaimResult, error)
	InitializeRewards(ctx context.Context, userID string) error
	SubmitToolClaim(ctx context.Context, userID, toolName, email, filename, contentType string, screenshot io.Reader) (*model.ClaimResult, error)
	GetToolClaimsByUser(ctx context.Context, userID string) ([]model.ToolClaim, error)
	GetRewardCatalog(ctx context.Context, userID string) ([]model.Reward, int64, error)
}

// Handler реализует HTTP-обработчики API сервиса вознаграждений.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type pointsResponse struct {
	UserID      string `json:"user_id"`
	TotalPoints int64  `json:"total_points"`
}

type streakResponse struct {
	CurrentStreak int     `json:"current_streak"`
	LastClaimDate *string `json:"last_claim_date"`
}

type progressResponse struct {
	Percentage      float64 `json:"percentage"`
	Message         string  `json:"message"`
	FormattedPoints string  `json:"formatted_points"`
	TargetPoints    int64   `json:"target_points"`
}

type weekResponse struct {
	Days            []string `json:"days"`
	CurrentDayIndex int      `json:"current_day_index"`
	ClaimedToday    bool     `json:"claimed_today"`
}

type rewardsViewResponse struct {
	Points   pointsResponse   `json:"points"`
	Streak   streakResponse   `json:"streak"`
	Progress progressResponse `json:"progress"`
	Week     weekResponse     `json:"week"`
}

// GetRewardsView возвращает баланс, серию и производные показатели текущего пользователя.
func (h *Handler) GetRewardsView(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	view, err := h.service.GetRewardsView(r.Context(), userID)
	if err != nil {
		h.logger.Error("get rewards view error", zap.Error(err), zap.String("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var lastClaim *string
	if view.Streak.LastClaimDate != nil {
		v := view.Streak.LastClaimDate.Format(time.DateOnly)
		lastClaim = &v
	}

	h.writeJSON(w, rewardsViewResponse{
		Points: pointsResponse{
			UserID:      userID,
			TotalPoints: view.Points.TotalPoints,
		},
		Streak: streakResponse{
			CurrentStreak: view.Streak.CurrentStreak,
			LastClaimDate: lastClaim,
		},
		Progress: progressResponse{
			Percentage:      view.Progress.Percentage,
			Message:         view.Progress.Message,
			FormattedPoints: view.Progress.FormattedPoints,
			TargetPoints:    view.Progress.TargetPoints,
		},
		Week: weekResponse{
			Days:            view.Week.Days[:],
			CurrentDayIndex: view.Week.CurrentDayIndex,
			ClaimedToday:    view.Week.ClaimedToday,
		},
	})
}

// ClaimDailyStreak выполняет ежедневную отметку текущего пользователя.
// Повторная отметка возвращает success=false в теле, а не код ошибки.
func (h *Handler) ClaimDailyStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	result, err := h.service.ClaimDailyStreak(r.Context(), userID)
	if err != nil {
		h.logger.Error("claim daily streak error", zap.Error(err), zap.String("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, result)
}

// InitializeRewards создаёт нулевые записи наград для текущего пользователя.
func (h *Handler) InitializeRewards(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.InitializeRewards(r.Context(), userID); err != nil {
		h.logger.Error("initialize rewards error", zap.Error(err), zap.String("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SubmitToolClaim принимает ручную заявку на баллы: email и скриншот подтверждения.
func (h *Handler) SubmitToolClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxClaimFormSize); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if email != "" && !strings.Contains(email, "@") {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	toolName := strings.TrimSpace(r.FormValue("tool_name"))

	var screenshot io.Reader
	var filename, contentType string
	file, header, err := r.FormFile("screenshot")
	if err == nil {
		defer file.Close()
		screenshot = file
		filename = header.Filename
		contentType = header.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	result, err := h.service.SubmitToolClaim(r.Context(), userID, toolName, email, filename, contentType, screenshot)
	if err != nil {
		if errors.Is(err, repository.ErrClaimExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("submit tool claim error", zap.Error(err), zap.String("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, result)
}

type toolClaimResponse struct {
	ID            string  `json:"id"`
	ToolName      string  `json:"tool_name"`
	EmailUsed     *string `json:"email_used,omitempty"`
	ScreenshotURL *string `json:"screenshot_url,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// GetToolClaims возвращает историю заявок текущего пользователя.
func (h *Handler) GetToolClaims(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	claims, err := h.service.GetToolClaimsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get tool claims error", zap.Error(err), zap.String("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(claims) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]toolClaimResponse, 0, len(claims))
	for _, c := range claims {
		resp = append(resp, toolClaimResponse{
			ID:            c.ID,
			ToolName:      c.ToolName,
			EmailUsed:     c.EmailUsed,
			ScreenshotURL: c.ScreenshotURL,
			CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, resp)
}

type rewardResponse struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	Category       string `json:"category"`
	PointsRequired int64  `json:"points_required"`
	Status         string `json:"status"`
	Unlocked       bool   `json:"unlocked"`
}

// GetRewardCatalog возвращает каталог наград с признаком доступности для пользователя.
func (h *Handler) GetRewardCatalog(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	rewards, totalPoints, err := h.service.GetRewardCatalog(r.Context(), userID)
	if err != nil {
		h.logger.Error("get reward catalog error", zap.Error(err), zap.String("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]rewardResponse, 0, len(rewards))
	for _, rw := range rewards {
		resp = append(resp, rewardResponse{
			ID:             rw.ID,
			Title:          rw.Title,
			Description:    rw.Description,
			Icon:           rw.Icon,
			Category:       rw.Category,
			PointsRequired: rw.PointsRequired,
			Status:         string(rw.Status),
			Unlocked:       rw.Status == model.RewardStatusAvailable && totalPoints >= rw.PointsRequired,
		})
	}

	h.writeJSON(w, resp)
}
