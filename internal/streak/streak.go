// Package streak содержит чистую логику серии ежедневных отметок.
package streak

import "time"

// DailyBonus — количество баллов за ежедневную отметку.
const DailyBonus int64 = 5

// SameDay сообщает, приходятся ли два момента времени на одну календарную дату.
// Каждый момент берётся в своей временной зоне: дата из БД хранится как DATE (UTC),
// "сегодня" приходит уже в зоне сервиса.
func SameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}

// Claimed сообщает, была ли отметка уже выполнена сегодня.
func Claimed(lastClaim *time.Time, today time.Time) bool {
	return lastClaim != nil && SameDay(*lastClaim, today)
}

// Next вычисляет значение серии после успешной отметки в день today.
// Если предыдущая отметка была вчера — серия продолжается; в остальных случаях
// (первая отметка или пропуск) серия начинается заново с 1. Случай пропуска
// намеренно не отличается от первой отметки.
func Next(current int, lastClaim *time.Time, today time.Time) int {
	if lastClaim == nil {
		return 1
	}

	yesterday := today.AddDate(0, 0, -1)
	if SameDay(*lastClaim, yesterday) {
		return current + 1
	}

	return 1
}
