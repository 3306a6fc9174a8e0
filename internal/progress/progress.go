// Package progress содержит чистые функции расчёта прогресса к цели по баллам.
package progress

import (
	"fmt"
	"strconv"
)

// DefaultTarget — целевое количество баллов для получения награды.
const DefaultTarget int64 = 5000

// Calculate возвращает процент прогресса в диапазоне [0, 100].
// При нулевой цели прогресс считается нулевым.
func Calculate(points, target int64) float64 {
	if target == 0 {
		return 0
	}

	p := float64(points) / float64(target) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Message возвращает мотивационное сообщение для текущего прогресса.
// Границы уровней исключают верхнее значение: ровно 10% попадает в следующий уровень.
func Message(points, target int64) string {
	percentage := float64(points) / float64(target) * 100

	switch {
	case percentage == 0:
		return "Start earning points to redeem rewards!"
	case percentage < 10:
		return "Just getting started - keep earning points!"
	case percentage < 25:
		return "Great progress! Keep going!"
	case percentage < 50:
		return "You're on your way! Halfway there soon!"
	case percentage < 75:
		return "Awesome! More than halfway to your goal!"
	case percentage < 100:
		return "Almost there! So close to your reward!"
	default:
		return "🎉 Congratulations! You can redeem a reward!"
	}
}

// FormatPoints форматирует количество баллов для отображения: 737 → "737", 1500 → "1.5k".
func FormatPoints(points int64) string {
	if points >= 1000 {
		return fmt.Sprintf("%.1fk", float64(points)/1000)
	}
	return strconv.FormatInt(points, 10)
}
