package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/rewards-system/internal/model"
	"github.com/mmeshcher/rewards-system/internal/repository"
	"github.com/mmeshcher/rewards-system/internal/streak"
)

type stubRepo struct {
	points    model.UserPoints
	pointsErr error

	streak    model.DailyStreak
	streakErr error

	claimToday  time.Time
	claimErr    error
	initCalled  bool
	initErr     error
	gotClaim    model.ToolClaim
	gotBonus    int64
	toolErr     error
	toolClaims  []model.ToolClaim
	rewards     []model.Reward
	rewardsErr  error
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) GetUserPoints(ctx context.Context, userID string) (model.UserPoints, error) {
	return s.points, s.pointsErr
}

func (s *stubRepo) GetDailyStreak(ctx context.Context, userID string) (model.DailyStreak, error) {
	return s.streak, s.streakErr
}

func (s *stubRepo) InitializeRewards(ctx context.Context, userID string) error {
	s.initCalled = true
	return s.initErr
}

// ClaimDaily воспроизводит транзакционную логику репозитория поверх данных стаба.
func (s *stubRepo) ClaimDaily(ctx context.Context, userID string, today time.Time) (int, int64, error) {
	s.claimToday = today

	if s.claimErr != nil {
		return 0, 0, s.claimErr
	}

	if streak.Claimed(s.streak.LastClaimDate, today) {
		return 0, 0, repository.ErrAlreadyClaimed
	}

	newStreak := streak.Next(s.streak.CurrentStreak, s.streak.LastClaimDate, today)
	newPoints := s.points.TotalPoints + streak.DailyBonus

	s.streak.CurrentStreak = newStreak
	d := today
	s.streak.LastClaimDate = &d
	s.points.TotalPoints = newPoints

	return newStreak, newPoints, nil
}

func (s *stubRepo) CreateToolClaim(ctx context.Context, claim model.ToolClaim, bonus int64) (int64, error) {
	s.gotClaim = claim
	s.gotBonus = bonus
	if s.toolErr != nil {
		return 0, s.toolErr
	}
	return s.points.TotalPoints + bonus, nil
}

func (s *stubRepo) GetToolClaimsByUser(ctx context.Context, userID string) ([]model.ToolClaim, error) {
	return s.toolClaims, nil
}

func (s *stubRepo) GetRewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewards, s.rewardsErr
}

type stubUploader struct {
	url string
	err error
}

func (u *stubUploader) Upload(ctx context.Context, path, contentType string, data io.Reader) (string, error) {
	return u.url, u.err
}

func newTestService(repo Repository, files Uploader, now time.Time) *Service {
	svc := NewService(repo, files, zap.NewNop(), time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func date(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestClaimDailyStreak_FreshUser(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	result, err := svc.ClaimDailyStreak(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ClaimDailyStreak error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.NewStreak == nil || *result.NewStreak != 1 {
		t.Fatalf("NewStreak = %v, want 1", result.NewStreak)
	}
	if result.NewPoints == nil || *result.NewPoints != 5 {
		t.Fatalf("NewPoints = %v, want 5", result.NewPoints)
	}
}

func TestClaimDailyStreak_ConsecutiveDay(t *testing.T) {
	yesterday := date(t, "2024-01-09")
	repo := &stubRepo{
		points: model.UserPoints{UserID: "u1", TotalPoints: 20},
		streak: model.DailyStreak{UserID: "u1", CurrentStreak: 3, LastClaimDate: &yesterday},
	}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	result, err := svc.ClaimDailyStreak(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ClaimDailyStreak error: %v", err)
	}
	if result.NewStreak == nil || *result.NewStreak != 4 {
		t.Fatalf("NewStreak = %v, want 4", result.NewStreak)
	}
	if result.NewPoints == nil || *result.NewPoints != 25 {
		t.Fatalf("NewPoints = %v, want 25", result.NewPoints)
	}
}

func TestClaimDailyStreak_GapResets(t *testing.T) {
	lastClaim := date(t, "2024-01-05")
	repo := &stubRepo{
		points: model.UserPoints{UserID: "u1", TotalPoints: 20},
		streak: model.DailyStreak{UserID: "u1", CurrentStreak: 3, LastClaimDate: &lastClaim},
	}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	result, err := svc.ClaimDailyStreak(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ClaimDailyStreak error: %v", err)
	}
	if result.NewStreak == nil || *result.NewStreak != 1 {
		t.Fatalf("NewStreak = %v, want 1 after gap", result.NewStreak)
	}
	if result.NewPoints == nil || *result.NewPoints != 25 {
		t.Fatalf("NewPoints = %v, want 25", result.NewPoints)
	}
}

func TestClaimDailyStreak_AlreadyClaimed(t *testing.T) {
	today := date(t, "2024-01-10")
	repo := &stubRepo{
		streak: model.DailyStreak{UserID: "u1", CurrentStreak: 2, LastClaimDate: &today},
	}
	svc := newTestService(repo, nil, today)

	result, err := svc.ClaimDailyStreak(context.Background(), "u1")
	if err != nil {
		t.Fatalf("already claimed must not be an error, got %v", err)
	}
	if result.Success {
		t.Fatalf("expected success=false, got %+v", result)
	}
	if result.Message != "Already claimed today" {
		t.Fatalf("Message = %q, want %q", result.Message, "Already claimed today")
	}
	if result.NewPoints != nil || result.NewStreak != nil {
		t.Fatalf("no new values expected on repeated claim: %+v", result)
	}
}

func TestClaimDailyStreak_UsesConfiguredZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	repo := &stubRepo{}
	svc := NewService(repo, nil, zap.NewNop(), loc)
	// 23:30 UTC 9 января — в Токио уже 10 января
	svc.now = func() time.Time { return time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC) }

	if _, err := svc.ClaimDailyStreak(context.Background(), "u1"); err != nil {
		t.Fatalf("ClaimDailyStreak error: %v", err)
	}

	if got := repo.claimToday.Format(time.DateOnly); got != "2024-01-10" {
		t.Fatalf("claim day = %s, want 2024-01-10 in configured zone", got)
	}
}

func TestClaimDailyStreak_PropagatesStorageError(t *testing.T) {
	repo := &stubRepo{claimErr: errors.New("connection refused")}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	if _, err := svc.ClaimDailyStreak(context.Background(), "u1"); err == nil {
		t.Fatalf("expected storage error to propagate")
	}
}

func TestSubmitToolClaim_UploadFailureContinues(t *testing.T) {
	repo := &stubRepo{points: model.UserPoints{TotalPoints: 10}}
	files := &stubUploader{err: errors.New("storage unavailable")}
	svc := newTestService(repo, files, date(t, "2024-01-10"))

	result, err := svc.SubmitToolClaim(context.Background(), "u1", "", "user@example.com",
		"proof.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("SubmitToolClaim error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success despite upload failure, got %+v", result)
	}
	if repo.gotClaim.ScreenshotURL != nil {
		t.Fatalf("screenshot URL must be empty after failed upload, got %v", *repo.gotClaim.ScreenshotURL)
	}
	if result.NewPoints == nil || *result.NewPoints != 35 {
		t.Fatalf("NewPoints = %v, want 35", result.NewPoints)
	}
}

func TestSubmitToolClaim_DefaultsAndBonus(t *testing.T) {
	repo := &stubRepo{}
	files := &stubUploader{url: "http://files/objects/claims/u1/x_proof.png"}
	svc := newTestService(repo, files, date(t, "2024-01-10"))

	result, err := svc.SubmitToolClaim(context.Background(), "u1", "", "user@example.com",
		"proof.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("SubmitToolClaim error: %v", err)
	}

	if repo.gotClaim.ToolName != DefaultToolName {
		t.Fatalf("ToolName = %q, want %q", repo.gotClaim.ToolName, DefaultToolName)
	}
	if repo.gotBonus != ToolClaimBonus {
		t.Fatalf("bonus = %d, want %d", repo.gotBonus, ToolClaimBonus)
	}
	if repo.gotClaim.ID == "" {
		t.Fatalf("claim ID must be generated")
	}
	if repo.gotClaim.ScreenshotURL == nil || *repo.gotClaim.ScreenshotURL != files.url {
		t.Fatalf("ScreenshotURL = %v, want %q", repo.gotClaim.ScreenshotURL, files.url)
	}
	if result.NewPoints == nil || *result.NewPoints != ToolClaimBonus {
		t.Fatalf("NewPoints = %v, want %d", result.NewPoints, ToolClaimBonus)
	}
}

func TestSubmitToolClaim_NoScreenshotNoUploader(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	result, err := svc.SubmitToolClaim(context.Background(), "u1", "Reclaim", "", "", "", nil)
	if err != nil {
		t.Fatalf("SubmitToolClaim error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if repo.gotClaim.EmailUsed != nil {
		t.Fatalf("empty email must be stored as NULL")
	}
}

func TestGetRewardsView_DerivedFields(t *testing.T) {
	yesterday := date(t, "2024-01-09")
	repo := &stubRepo{
		points: model.UserPoints{UserID: "u1", TotalPoints: 500},
		streak: model.DailyStreak{UserID: "u1", CurrentStreak: 3, LastClaimDate: &yesterday},
	}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	view, err := svc.GetRewardsView(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetRewardsView error: %v", err)
	}

	if view.Progress.Percentage != 10 {
		t.Fatalf("Percentage = %v, want 10", view.Progress.Percentage)
	}
	if view.Progress.Message != "Great progress! Keep going!" {
		t.Fatalf("Message = %q", view.Progress.Message)
	}
	if view.Progress.FormattedPoints != "500" {
		t.Fatalf("FormattedPoints = %q, want 500", view.Progress.FormattedPoints)
	}
	if view.Week.ClaimedToday {
		t.Fatalf("ClaimedToday must be false when last claim was yesterday")
	}
	// 2024-01-10 — среда
	if view.Week.CurrentDayIndex != 2 {
		t.Fatalf("CurrentDayIndex = %d, want 2", view.Week.CurrentDayIndex)
	}
}

func TestInitializeRewards_Delegates(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, nil, date(t, "2024-01-10"))

	if err := svc.InitializeRewards(context.Background(), "u1"); err != nil {
		t.Fatalf("InitializeRewards error: %v", err)
	}
	if !repo.initCalled {
		t.Fatalf("repository InitializeRewards was not called")
	}
}
