package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const profileContextKey contextKey = "profile"

// Имя JWT claim, несущего идентификатор профиля вызывающего.
const jwtClaimProfileID = "profile_id"

// Authenticator проверяет Bearer-токены и кладёт claims в контекст запроса.
// Выпуск токенов — забота внешнего провайдера аутентификации; здесь только
// верификация.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate отклоняет запросы без валидного токена.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.claimsFromRequest(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), profileContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) claimsFromRequest(r *http.Request) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("authorization header is not a bearer token")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// GetProfileIDFromContext достаёт идентификатор профиля вызывающего из
// контекста запроса.
func GetProfileIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(profileContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("profile claims not found in context or invalid type")
	}

	claim, ok := claims[jwtClaimProfileID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimProfileID)
	}

	idFloat, ok := claim.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid type for '%s' claim: expected float64, got %T", jwtClaimProfileID, claim)
	}
	if idFloat != float64(int(idFloat)) {
		return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimProfileID, idFloat)
	}

	profileID := int(idFloat)
	if profileID <= 0 {
		return 0, fmt.Errorf("invalid profile ID value in '%s' claim: %d", jwtClaimProfileID, profileID)
	}
	return profileID, nil
}

// WithProfileID используется в тестах, чтобы подложить аутентифицированный
// профиль без разбора токена.
func WithProfileID(ctx context.Context, profileID int) context.Context {
	return context.WithValue(ctx, profileContextKey, jwt.MapClaims{jwtClaimProfileID: float64(profileID)})
}
