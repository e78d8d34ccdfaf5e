package db

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTenantContext(t *testing.T, target string, header string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set("X-Tenant-ID", header)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestExtractTenantID_Header(t *testing.T) {
	c := newTenantContext(t, "/", "mh_pune")
	if got := extractTenantID(c, "default"); got != "mh_pune" {
		t.Errorf("expected mh_pune, got %s", got)
	}
}

func TestExtractTenantID_QueryParam(t *testing.T) {
	c := newTenantContext(t, "/?tenant_id=ka_blr", "")
	if got := extractTenantID(c, "default"); got != "ka_blr" {
		t.Errorf("expected ka_blr, got %s", got)
	}
}

func TestExtractTenantID_Default(t *testing.T) {
	c := newTenantContext(t, "/", "")
	if got := extractTenantID(c, "default"); got != "default" {
		t.Errorf("expected default, got %s", got)
	}
}

func TestExtractTenantID_HeaderWinsOverQuery(t *testing.T) {
	c := newTenantContext(t, "/?tenant_id=query", "header")
	if got := extractTenantID(c, "default"); got != "header" {
		t.Errorf("expected header to take precedence, got %s", got)
	}
}

func TestTenantIDPattern(t *testing.T) {
	valid := []string{"default", "mh_pune", "Tenant1"}
	invalid := []string{"", "bad-tenant", "drop;table", "a b"}

	for _, id := range valid {
		if !tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}
