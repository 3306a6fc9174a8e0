// Package service реализует бизнес-логику сервиса вознаграждений.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/rewards-system/internal/model"
	"github.com/mmeshcher/rewards-system/internal/progress"
	"github.com/mmeshcher/rewards-system/internal/repository"
	"github.com/mmeshcher/rewards-system/internal/streak"
)

// ToolClaimBonus — количество баллов за подтверждённую регистрацию в инструменте.
const ToolClaimBonus int64 = 25

// DefaultToolName — инструмент по умолчанию для ручных заявок.
const DefaultToolName = "Reclaim"

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	GetUserPoints(ctx context.Context, userID string) (model.UserPoints, error)
	GetDailyStreak(ctx context.Context, userID string) (model.DailyStreak, error)
	InitializeRewards(ctx context.Context, userID string) error
	ClaimDaily(ctx context.Context, userID string, today time.Time) (int, int64, error)
	CreateToolClaim(ctx context.Context, claim model.ToolClaim, bonus int64) (int64, error)
	GetToolClaimsByUser(ctx context.Context, userID string) ([]model.ToolClaim, error)
	GetRewards(ctx context.Context) ([]model.Reward, error)
}

// Uploader описывает контракт загрузки файлов во внешнее хранилище.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data io.Reader) (string, error)
}

// Service содержит бизнес-логику сервиса вознаграждений.
type Service struct {
	repo   Repository
	files  Uploader
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService создаёт новый сервис. files может быть nil, если хранилище
// скриншотов не настроено. Календарный день отметки определяется в зоне loc.
func NewService(repo Repository, files Uploader, logger *zap.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repo,
		files:  files,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// ProgressInfo содержит производные показатели прогресса к цели.
type ProgressInfo struct {
	Percentage      float64
	Message         string
	FormattedPoints string
	TargetPoints    int64
}

// RewardsView объединяет всё необходимое для отображения вкладки наград.
type RewardsView struct {
	Points   model.UserPoints
	Streak   model.DailyStreak
	Progress ProgressInfo
	Week     streak.Week
}

// GetRewardsView возвращает баланс, серию и производные показатели пользователя.
func (s *Service) GetRewardsView(ctx context.Context, userID string) (*RewardsView, error) {
	points, err := s.repo.GetUserPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	st, err := s.repo.GetDailyStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &RewardsView{
		Points: points,
		Streak: st,
		Progress: ProgressInfo{
			Percentage:      progress.Calculate(points.TotalPoints, progress.DefaultTarget),
			Message:         progress.Message(points.TotalPoints, progress.DefaultTarget),
			FormattedPoints: progress.FormatPoints(points.TotalPoints),
			TargetPoints:    progress.DefaultTarget,
		},
		Week: streak.DeriveWeek(st.LastClaimDate, s.today()),
	}, nil
}

// ClaimDailyStreak выполняет ежедневную отметку пользователя.
// Повторная отметка за тот же день — бизнес-результат, а не ошибка:
// возвращается Success=false без ошибки и без изменений в хранилище.
func (s *Service) ClaimDailyStreak(ctx context.Context, userID string) (*model.ClaimResult, error) {
	newStreak, newPoints, err := s.repo.ClaimDaily(ctx, userID, s.today())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return &model.ClaimResult{
				Success: false,
				Message: "Already claimed today",
			}, nil
		}
		return nil, err
	}

	return &model.ClaimResult{
		Success:   true,
		Message:   "Successfully claimed daily streak!",
		NewPoints: &newPoints,
		NewStreak: &newStreak,
	}, nil
}

// InitializeRewards создаёт нулевые записи наград для нового пользователя.
func (s *Service) InitializeRewards(ctx context.Context, userID string) error {
	return s.repo.InitializeRewards(ctx, userID)
}

// SubmitToolClaim обрабатывает ручную заявку на баллы за инструмент.
// Загрузка скриншота выполняется по возможности: сбой загрузки логируется
// предупреждением, заявка продолжается без ссылки на скриншот.
func (s *Service) SubmitToolClaim(ctx context.Context, userID, toolName, email, filename, contentType string, screenshot io.Reader) (*model.ClaimResult, error) {
	if toolName == "" {
		toolName = DefaultToolName
	}

	var screenshotURL *string
	if screenshot != nil {
		path := fmt.Sprintf("claims/%s/%s_%s", userID, uuid.NewString(), filename)
		url, err := s.upload(ctx, path, contentType, screenshot)
		if err != nil {
			s.logger.Warn("screenshot upload failed, continuing without it",
				zap.String("userID", userID), zap.Error(err))
		} else {
			screenshotURL = &url
		}
	}

	claim := model.ToolClaim{
		ID:            uuid.NewString(),
		UserID:        userID,
		ToolName:      toolName,
		ScreenshotURL: screenshotURL,
	}
	if email != "" {
		claim.EmailUsed = &email
	}

	newPoints, err := s.repo.CreateToolClaim(ctx, claim, ToolClaimBonus)
	if err != nil {
		return nil, err
	}

	return &model.ClaimResult{
		Success:   true,
		Message:   fmt.Sprintf("Claim submitted - %d points added!", ToolClaimBonus),
		NewPoints: &newPoints,
	}, nil
}

func (s *Service) upload(ctx context.Context, path, contentType string, data io.Reader) (string, error) {
	if s.files == nil {
		return "", fmt.Errorf("file storage not configured")
	}
	return s.files.Upload(ctx, path, contentType, data)
}

// GetToolClaimsByUser возвращает историю заявок пользователя.
func (s *Service) GetToolClaimsByUser(ctx context.Context, userID string) ([]model.ToolClaim, error) {
	return s.repo.GetToolClaimsByUser(ctx, userID)
}

// GetRewardCatalog возвращает каталог наград и текущий баланс пользователя.
func (s *Service) GetRewardCatalog(ctx context.Context, userID string) ([]model.Reward, int64, error) {
	rewards, err := s.repo.GetRewards(ctx)
	if err != nil {
		return nil, 0, err
	}

	points, err := s.repo.GetUserPoints(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return rewards, points.TotalPoints, nil
}
