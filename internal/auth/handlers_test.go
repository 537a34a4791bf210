package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"climblog/internal/session"
	"climblog/internal/web"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

type harness struct {
	app      *fiber.App
	mock     pgxmock.PgxPoolIface
	sessions *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{mock: newMock(t), sessions: session.NewStore(client, time.Hour, false)}
	h.app = fiber.New(fiber.Config{Views: web.NewEngine()})
	h.app.Use(h.sessions.Load())
	RegisterRoutes(h.app, NewService(h.mock), h.sessions)
	h.app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(session.FromCtx(c).Username)
	})
	return h
}

func (h *harness) do(t *testing.T, method, path string, form url.Values, ck *http.Cookie) *http.Response {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if ck != nil {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	resp, err := h.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (h *harness) flashes(t *testing.T, ck *http.Cookie) []string {
	t.Helper()
	msgs, err := h.sessions.PopFlashes(context.Background(), ck.Value)
	if err != nil {
		t.Fatalf("flashes: %v", err)
	}
	return msgs
}

func cookieFrom(resp *http.Response, fallback *http.Cookie) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	return fallback
}

func expectRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != to {
		t.Fatalf("expected redirect to %s, got %d %s", to, resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHomepageAndRegisterPages(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("homepage status %d", resp.StatusCode)
	}
	resp = h.do(t, http.MethodGet, "/register", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register page status %d", resp.StatusCode)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/", nil, nil)
	ck := cookieFrom(resp, nil)

	h.mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("alex").WillReturnError(pgx.ErrNoRows)
	h.mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "alex", pgxmock.AnyArg(), "alex@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	resp = h.do(t, http.MethodPost, "/register-user", url.Values{
		"username": {"Alex"}, "password": {"secret"}, "email": {"alex@example.com"},
	}, ck)
	expectRedirect(t, resp, "/")
	if msgs := h.flashes(t, ck); len(msgs) != 1 || msgs[0] != "Successfully registered! Please log in!" {
		t.Fatalf("unexpected flashes %v", msgs)
	}

	h.mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("alex").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow("user-1", "alex", hashOf(t, "secret"), "", time.Now()))

	resp = h.do(t, http.MethodPost, "/login", url.Values{"username": {"alex"}, "password": {"secret"}}, ck)
	expectRedirect(t, resp, "/dashboard")
	authed := cookieFrom(resp, nil)
	if authed == nil || authed.Value == ck.Value {
		t.Fatalf("expected a fresh session cookie")
	}
	if msgs := h.flashes(t, authed); len(msgs) != 1 || msgs[0] != "Logged in!" {
		t.Fatalf("unexpected flashes %v", msgs)
	}

	resp = h.do(t, http.MethodGet, "/", nil, authed)
	expectRedirect(t, resp, "/dashboard")

	resp = h.do(t, http.MethodPost, "/logout", nil, authed)
	expectRedirect(t, resp, "/")
	if msgs := h.flashes(t, authed); len(msgs) != 1 || msgs[0] != "logged out successfully" {
		t.Fatalf("unexpected flashes %v", msgs)
	}

	resp = h.do(t, http.MethodGet, "/whoami", nil, authed)
	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	if n != 0 {
		t.Fatalf("expected anonymous after logout, got %q", buf[:n])
	}

	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterTwiceFlashes(t *testing.T) {
	h := newHarness(t)
	ck := cookieFrom(h.do(t, http.MethodGet, "/", nil, nil), nil)

	h.mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("alex").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow("user-1", "alex", "hash", "", time.Now()))

	resp := h.do(t, http.MethodPost, "/register-user", url.Values{"username": {"alex"}, "password": {"x"}}, ck)
	expectRedirect(t, resp, "/")
	if msgs := h.flashes(t, ck); len(msgs) != 1 || msgs[0] != "You've already registered.  Please login!" {
		t.Fatalf("unexpected flashes %v", msgs)
	}
}

func TestRegisterValidationFlashes(t *testing.T) {
	h := newHarness(t)
	ck := cookieFrom(h.do(t, http.MethodGet, "/", nil, nil), nil)

	resp := h.do(t, http.MethodPost, "/register-user", url.Values{"username": {"alex"}, "email": {"bad"}}, ck)
	expectRedirect(t, resp, "/register")
	msgs := h.flashes(t, ck)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "password is required") || !strings.Contains(msgs[0], "email must be a valid email address") {
		t.Fatalf("unexpected flashes %v", msgs)
	}
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	ck := cookieFrom(h.do(t, http.MethodGet, "/", nil, nil), nil)

	h.mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)
	resp := h.do(t, http.MethodPost, "/login", url.Values{"username": {"ghost"}, "password": {"x"}}, ck)
	expectRedirect(t, resp, "/")
	if msgs := h.flashes(t, ck); len(msgs) != 1 || msgs[0] != "Please register first!" {
		t.Fatalf("unexpected flashes %v", msgs)
	}

	h.mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("alex").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow("user-1", "alex", hashOf(t, "correct"), "", time.Now()))
	resp = h.do(t, http.MethodPost, "/login", url.Values{"username": {"alex"}, "password": {"wrong"}}, ck)
	expectRedirect(t, resp, "/")
	if cookieFrom(resp, nil) != nil {
		t.Fatalf("failed login must not issue a session")
	}
	if msgs := h.flashes(t, ck); len(msgs) != 1 || msgs[0] != "Invalid password. Please try again!" {
		t.Fatalf("unexpected flashes %v", msgs)
	}

	resp = h.do(t, http.MethodPost, "/login", url.Values{"username": {"alex"}}, ck)
	expectRedirect(t, resp, "/")
}

func TestLoginDatabaseError(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("alex").WillReturnError(pgErr)
	resp := h.do(t, http.MethodPost, "/login", url.Values{"username": {"alex"}, "password": {"x"}}, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestRegisterRejectsUnusableInput(t *testing.T) {
	h := newHarness(t)
	ck := cookieFrom(h.do(t, http.MethodGet, "/", nil, nil), nil)

	for _, tc := range []struct {
		name, username, password, flash string
	}{
		{"blank username", "   ", "secret", "username and password are required"},
		{"password over 72 chars", "alex", strings.Repeat("p", 80), "password must be at most 72"},
		{"password over 72 bytes", "alex", strings.Repeat("é", 40), "password must be at most 72 bytes"},
	} {
		resp := h.do(t, http.MethodPost, "/register-user", url.Values{"username": {tc.username}, "password": {tc.password}}, ck)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/register" {
			t.Fatalf("%s: expected redirect to /register, got %d", tc.name, resp.StatusCode)
		}
		if msgs := h.flashes(t, ck); len(msgs) != 1 || !strings.Contains(msgs[0], tc.flash) {
			t.Fatalf("%s: unexpected flashes %v", tc.name, msgs)
		}
	}
	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no queries expected: %v", err)
	}
}
