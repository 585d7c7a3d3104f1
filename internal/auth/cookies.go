package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the bearer token for
// browser clients.
const SessionCookieName = "jwt"

// loggedOutValue overwrites the session cookie on logout; the short
// expiry lets the browser drop it almost immediately.
const loggedOutValue = "loggedOut"

// SetSessionCookie delivers a bearer token as an HTTP-only cookie. The
// cookie gets its own expiry window, independent of the token's, and the
// Secure flag whenever the request arrived over TLS or was forwarded as
// such by a proxy.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiryDays int) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(expiryDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie overwrites the session cookie with a throwaway
// value that expires in ten seconds.
func ClearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	}
	http.SetCookie(w, cookie)
}

// SessionCookie retrieves the bearer token from the session cookie.
func SessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
