package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/token"
)

func newTestGuard(t *testing.T) (*Guard, *token.Manager) {
	t.Helper()

	tokens, err := token.NewManager(token.Config{
		Secret:    []byte("guard-test-secret"),
		AccessTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return NewGuard(tokens, nil), tokens
}

func TestAuthenticateSuccess(t *testing.T) {
	g, tokens := newTestGuard(t)

	tok, err := tokens.IssueAccess(42, "alice", false)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	p, err := g.Authenticate("Bearer "+tok, false)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.SubjectID != 42 || p.Username != "alice" || p.Admin {
		t.Fatalf("principal = %+v", p)
	}
	if !p.Can(shopcore.CapOrdersPlace) {
		t.Fatal("principal must hold orders:place")
	}
	if p.Can(shopcore.CapOrdersManage) {
		t.Fatal("non-admin principal must not hold orders:manage")
	}
}

func TestAuthenticateMissingCredential(t *testing.T) {
	g, tokens := newTestGuard(t)

	tok, _ := tokens.IssueAccess(1, "alice", false)
	for _, header := range []string{"", "Basic xyz", "bearer " + tok, "Bearer ", tok} {
		p, err := g.Authenticate(header, false)
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("Authenticate(%q) = %v, want ErrMissingToken", header, err)
		}
		if p != nil {
			t.Fatal("principal must be nil on failure")
		}
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	g, tokens := newTestGuard(t)

	refresh, err := tokens.IssueRefresh(42)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	_, err = g.Authenticate("Bearer "+refresh, false)
	if !errors.Is(err, token.ErrWrongTokenType) {
		t.Fatalf("Authenticate refresh = %v, want ErrWrongTokenType", err)
	}
	if !errors.Is(err, shopcore.ErrAuthentication) {
		t.Fatal("wrong token type must map to the authentication category")
	}
}

func TestAuthenticateAdminRequired(t *testing.T) {
	g, tokens := newTestGuard(t)

	member, _ := tokens.IssueAccess(1, "member", false)
	if _, err := g.Authenticate("Bearer "+member, true); !errors.Is(err, shopcore.ErrAuthorization) {
		t.Fatalf("Authenticate member as admin = %v, want ErrAuthorization", err)
	}

	admin, _ := tokens.IssueAccess(2, "root", true)
	p, err := g.Authenticate("Bearer "+admin, true)
	if err != nil {
		t.Fatalf("Authenticate admin failed: %v", err)
	}
	if !p.Can(shopcore.CapOrdersManage) {
		t.Fatal("admin principal must hold orders:manage")
	}
}

func TestRequireStoresPrincipal(t *testing.T) {
	g, tokens := newTestGuard(t)
	tok, _ := tokens.IssueAccess(7, "alice", false)

	var seen *shopcore.Principal
	handler := g.Require(false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.SubjectID != 7 {
		t.Fatalf("principal in context = %+v, want subject 7", seen)
	}
}

func TestRequireRejectsWithoutToken(t *testing.T) {
	g, _ := newTestGuard(t)

	handler := g.Require(false, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
