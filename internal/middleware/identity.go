// Package middleware содержит HTTP middleware для сервиса вознаграждений.
package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "userID"

// IdentityHeader — заголовок с непрозрачным идентификатором пользователя.
// Аутентификацию выполняет внешний слой; сервис доверяет заголовку как есть.
const IdentityHeader = "X-User-ID"

// Identity извлекает идентификатор пользователя из заголовка запроса
// и добавляет его в контекст. Запросы без идентификатора отклоняются.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(IdentityHeader)
		if userID == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}
