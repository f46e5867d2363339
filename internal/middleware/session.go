package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionIDKey   = "session_id"
	sessionCookieName = "session_id"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// GuestSession はゲスト識別用のセッションCookieを管理する。
// Cookieが無ければUUIDを発行してセットし、contextに積む。
// ログイン前のカートはこのIDに紐づく。
func GuestSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sessionID string

			cookie, err := c.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				sessionID = cookie.Value
			} else {
				sessionID = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionCookieTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(CtxSessionIDKey, sessionID)
			return next(c)
		}
	}
}
