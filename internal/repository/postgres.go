// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/rewards-system/internal/model"
	"github.com/mmeshcher/rewards-system/internal/streak"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrAlreadyClaimed возвращается, если ежедневная отметка сегодня уже выполнена.
var (
	ErrAlreadyClaimed = errors.New("daily streak already claimed today")
	// ErrClaimExists возвращается при повторной заявке на тот же инструмент.
	ErrClaimExists = errors.New("tool claim already exists")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetUserPoints возвращает баланс пользователя.
// Отсутствие записи не считается ошибкой: возвращается нулевой баланс.
func (r *PostgresRepository) GetUserPoints(ctx context.Context, userID string) (model.UserPoints, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, total_points, created_at, updated_at FROM user_points WHERE user_id = $1`,
		userID,
	)

	var p model.UserPoints
	err := row.Scan(&p.UserID, &p.TotalPoints, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserPoints{UserID: userID}, nil
		}
		return model.UserPoints{}, fmt.Errorf("get user points: %w", err)
	}

	return p, nil
}

// GetDailyStreak возвращает серию пользователя.
// Отсутствие записи не считается ошибкой: возвращается нулевая серия.
func (r *PostgresRepository) GetDailyStreak(ctx context.Context, userID string) (model.DailyStreak, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, current_streak, last_claim_date, created_at, updated_at FROM daily_streaks WHERE user_id = $1`,
		userID,
	)

	var s model.DailyStreak
	err := row.Scan(&s.UserID, &s.CurrentStreak, &s.LastClaimDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DailyStreak{UserID: userID}, nil
		}
		return model.DailyStreak{}, fmt.Errorf("get daily streak: %w", err)
	}

	return s, nil
}

// InitializeRewards создаёт нулевые записи баланса и серии для нового пользователя.
// Повторный вызов ничего не меняет.
func (r *PostgresRepository) InitializeRewards(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO user_points (user_id, total_points) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("init user points: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO daily_streaks (user_id, current_streak) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("init daily streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ClaimDaily выполняет ежедневную отметку в одной транзакции: серия и баллы
// меняются вместе либо не меняются вовсе. Строка серии блокируется FOR UPDATE,
// поэтому параллельные отметки одного пользователя сериализуются и повторная
// отметка за тот же день получает ErrAlreadyClaimed.
func (r *PostgresRepository) ClaimDaily(ctx context.Context, userID string, today time.Time) (int, int64, error) {
	var newStreak int
	var newPoints int64

	err := r.withRetry(ctx, func() error {
		var err error
		newStreak, newPoints, err = r.claimDaily(ctx, userID, today)
		return err
	})

	return newStreak, newPoints, err
}

func (r *PostgresRepository) claimDaily(ctx context.Context, userID string, today time.Time) (int, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO daily_streaks (user_id, current_streak) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("ensure streak row: %w", err)
	}

	var current int
	var lastClaim *time.Time
	err = tx.QueryRow(ctx,
		`SELECT current_streak, last_claim_date FROM daily_streaks WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&current, &lastClaim)
	if err != nil {
		return 0, 0, fmt.Errorf("lock streak row: %w", err)
	}

	if streak.Claimed(lastClaim, today) {
		return 0, 0, ErrAlreadyClaimed
	}

	newStreak := streak.Next(current, lastClaim, today)

	_, err = tx.Exec(ctx,
		`UPDATE daily_streaks SET current_streak = $2, last_claim_date = $3, updated_at = NOW() WHERE user_id = $1`,
		userID, newStreak, today.Format(time.DateOnly),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("update streak: %w", err)
	}

	var newPoints int64
	err = tx.QueryRow(ctx,
		`INSERT INTO user_points (user_id, total_points) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET total_points = user_points.total_points + $2, updated_at = NOW()
		 RETURNING total_points`,
		userID, streak.DailyBonus,
	).Scan(&newPoints)
	if err != nil {
		return 0, 0, fmt.Errorf("add points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit tx: %w", err)
	}

	return newStreak, newPoints, nil
}

// CreateToolClaim сохраняет заявку на баллы за инструмент и начисляет бонус
// в одной транзакции. Повторная заявка на тот же инструмент возвращает ErrClaimExists.
func (r *PostgresRepository) CreateToolClaim(ctx context.Context, claim model.ToolClaim, bonus int64) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO tool_claims (id, user_id, tool_name, email_used, screenshot_url) VALUES ($1, $2, $3, $4, $5)`,
		claim.ID, claim.UserID, claim.ToolName, claim.EmailUsed, claim.ScreenshotURL,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrClaimExists, claim.ToolName)
		}
		return 0, fmt.Errorf("insert tool claim: %w", err)
	}

	var newPoints int64
	err = tx.QueryRow(ctx,
		`INSERT INTO user_points (user_id, total_points) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET total_points = user_points.total_points + $2, updated_at = NOW()
		 RETURNING total_points`,
		claim.UserID, bonus,
	).Scan(&newPoints)
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return newPoints, nil
}

// GetToolClaimsByUser возвращает историю заявок пользователя.
func (r *PostgresRepository) GetToolClaimsByUser(ctx context.Context, userID string) ([]model.ToolClaim, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, tool_name, email_used, screenshot_url, created_at
		 FROM tool_claims
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select tool claims: %w", err)
	}
	defer rows.Close()

	var claims []model.ToolClaim
	for rows.Next() {
		var c model.ToolClaim
		if err := rows.Scan(&c.ID, &c.UserID, &c.ToolName, &c.EmailUsed, &c.ScreenshotURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tool claim: %w", err)
		}
		claims = append(claims, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return claims, nil
}

// GetRewards возвращает каталог наград.
func (r *PostgresRepository) GetRewards(ctx context.Context) ([]model.Reward, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, icon, category, points_required, status
		 FROM rewards
		 ORDER BY points_required, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		var rw model.Reward
		var status string
		if err := rows.Scan(&rw.ID, &rw.Title, &rw.Description, &rw.Icon, &rw.Category, &rw.PointsRequired, &status); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rw.Status = model.RewardStatus(status)
		rewards = append(rewards, rw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return rewards, nil
}
