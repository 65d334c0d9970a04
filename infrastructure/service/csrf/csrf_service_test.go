package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsrfService_Issue(t *testing.T) {
	svc := NewCsrfService(Config{})

	a, err := svc.Issue()
	require.NoError(t, err)
	b, err := svc.Issue()
	require.NoError(t, err)

	assert.Len(t, a, 2*tokenBytes)
	assert.NotEqual(t, a, b)
}

func TestCsrfService_Validate(t *testing.T) {
	svc := NewCsrfService(Config{})
	unsafe := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	safe := []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace}

	pairs := []struct {
		name   string
		cookie string
		header string
		valid  bool
	}{
		{name: "equal", cookie: "abc", header: "abc", valid: true},
		{name: "different", cookie: "abc", header: "abd", valid: false},
		{name: "missing cookie", cookie: "", header: "abc", valid: false},
		{name: "missing header", cookie: "abc", header: "", valid: false},
		{name: "both missing", cookie: "", header: "", valid: false},
		{name: "prefix only", cookie: "abc", header: "ab", valid: false},
		{name: "case differs", cookie: "ABC", header: "abc", valid: false},
	}

	for _, p := range pairs {
		for _, m := range unsafe {
			t.Run(p.name+"/"+m, func(t *testing.T) {
				assert.Equal(t, p.valid, svc.Validate(p.cookie, p.header, m))
			})
		}
		for _, m := range safe {
			t.Run(p.name+"/"+m, func(t *testing.T) {
				assert.True(t, svc.Validate(p.cookie, p.header, m))
			})
		}
	}
}

func TestCsrfService_CookieIsScriptReadable(t *testing.T) {
	svc := NewCsrfService(Config{CookieName: "xsrf", Secure: true, TTL: time.Hour})

	c := svc.Cookie("tok")
	assert.Equal(t, "xsrf", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.False(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestCsrfService_TokenFromRequest(t *testing.T) {
	svc := NewCsrfService(Config{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, svc.TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: "csrf_token", Value: "existing"})
	assert.Equal(t, "existing", svc.TokenFromRequest(r))
}
