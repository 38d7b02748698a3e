package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("valid token injects identity", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub":  float64(42),
			"role": RoleCustomer,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		rec, c := runJWT(t, "Bearer "+tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if uid, _ := c.Get("user_id").(uint64); uid != 42 {
			t.Fatalf("expected user_id 42, got %v", c.Get("user_id"))
		}
		if role, _ := c.Get("role").(string); role != RoleCustomer {
			t.Fatalf("expected role CUSTOMER, got %v", c.Get("role"))
		}
	})

	t.Run("string subject accepted", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.MapClaims{"sub": "77", "role": RoleAdmin})
		rec, c := runJWT(t, "Bearer "+tok)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if uid, _ := c.Get("user_id").(uint64); uid != 77 {
			t.Fatalf("expected user_id 77, got %v", c.Get("user_id"))
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec, _ := runJWT(t, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		tok := signToken(t, "other-secret", jwt.MapClaims{"sub": float64(1)})
		rec, _ := runJWT(t, "Bearer "+tok)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub": float64(1),
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		rec, _ := runJWT(t, "Bearer "+tok)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage subject rejected", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.MapClaims{"sub": "not-a-number"})
		rec, _ := runJWT(t, "Bearer "+tok)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	run := func(role interface{}, allowed ...string) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			return http.StatusInternalServerError
		}
		return rec.Code
	}

	if got := run(RoleAdmin, RoleAdmin, RoleCustomer); got != http.StatusOK {
		t.Fatalf("admin should pass, got %d", got)
	}
	if got := run(RoleCustomer, RoleAdmin); got != http.StatusForbidden {
		t.Fatalf("customer on admin route should get 403, got %d", got)
	}
	if got := run(nil, RoleAdmin); got != http.StatusForbidden {
		t.Fatalf("missing role should get 403, got %d", got)
	}
}
