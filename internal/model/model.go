// Package model содержит доменные сущности сервиса вознаграждений.
package model

import "time"

// UserPoints представляет накопленный баланс баллов пользователя.
type UserPoints struct {
	UserID      string
	TotalPoints int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DailyStreak описывает серию ежедневных отметок пользователя.
// LastClaimDate равен nil, если пользователь ещё ни разу не отмечался.
type DailyStreak struct {
	UserID        string
	CurrentStreak int
	LastClaimDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ToolClaim описывает заявку на баллы за регистрацию в партнёрском инструменте.
type ToolClaim struct {
	ID            string
	UserID        string
	ToolName      string
	EmailUsed     *string
	ScreenshotURL *string
	CreatedAt     time.Time
}

// RewardStatus описывает доступность награды в каталоге.
type RewardStatus string

const (
	RewardStatusAvailable  RewardStatus = "available"
	RewardStatusComingSoon RewardStatus = "coming_soon"
)

// Reward описывает награду из каталога.
type Reward struct {
	ID             int64
	Title          string
	Description    string
	Icon           string
	Category       string
	PointsRequired int64
	Status         RewardStatus
}

// ClaimResult содержит итог попытки получить баллы.
// Success=false с заполненным Message — бизнес-результат, а не сбой хранилища.
type ClaimResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	NewPoints *int64 `json:"new_points,omitempty"`
	NewStreak *int   `json:"new_streak,omitempty"`
}

// RewardsData объединяет баланс и серию пользователя для отображения.
type RewardsData struct {
	Points UserPoints
	Streak DailyStreak
}
