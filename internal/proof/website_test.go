package proof

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orgtrust/internal/domain"
)

func TestWebsiteCheck(t *testing.T) {
	other := domain.MustOrgID("0x1111111111111111111111111111111111111111111111111111111111111111")

	serve := func(body string, status int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/org.id" {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
	}

	checker := NewWebsiteChecker(5 * time.Second)
	ctx := context.Background()

	t.Run("tagged body proves ownership", func(t *testing.T) {
		srv := serve("orgid="+subject.String(), http.StatusOK)
		defer srv.Close()
		assert.Equal(t, Proven, checker.Check(ctx, srv.URL, subject))
	})

	t.Run("bare identifier body proves ownership", func(t *testing.T) {
		srv := serve(subject.String()+"\n", http.StatusOK)
		defer srv.Close()
		assert.Equal(t, Proven, checker.Check(ctx, srv.URL, subject))
	})

	t.Run("foreign identifier is a confirmed negative", func(t *testing.T) {
		srv := serve("orgid="+other.String(), http.StatusOK)
		defer srv.Close()
		assert.Equal(t, NotProven, checker.Check(ctx, srv.URL, subject))
	})

	t.Run("garbage body is not proven", func(t *testing.T) {
		srv := serve("hello world", http.StatusOK)
		defer srv.Close()
		assert.Equal(t, NotProven, checker.Check(ctx, srv.URL, subject))
	})

	t.Run("missing file is undetermined", func(t *testing.T) {
		srv := serve("", http.StatusNotFound)
		defer srv.Close()
		assert.Equal(t, Undetermined, checker.Check(ctx, srv.URL, subject))
	})

	t.Run("unreachable host is undetermined", func(t *testing.T) {
		srv := serve("", http.StatusOK)
		srv.Close()
		assert.Equal(t, Undetermined, checker.Check(ctx, srv.URL, subject))
	})
}

type stubChannel struct {
	outcome Outcome
	calls   int
}

func (s *stubChannel) Check(context.Context, string, domain.OrgID) Outcome {
	s.calls++
	return s.outcome
}

// The fallback rules: the website file is consulted only when DNS could not
// answer, never to overturn a confirmed DNS mismatch.
func TestLinkCheckerFallbackSemantics(t *testing.T) {
	ctx := context.Background()

	t.Run("dns proven short-circuits", func(t *testing.T) {
		dns := &stubChannel{outcome: Proven}
		website := &stubChannel{outcome: NotProven}
		link := &LinkChecker{dns: dns, website: website}

		assert.Equal(t, Proven, link.Check(ctx, "acme.example", subject))
		assert.Equal(t, 0, website.calls)
	})

	t.Run("dns confirmed negative is final", func(t *testing.T) {
		dns := &stubChannel{outcome: NotProven}
		website := &stubChannel{outcome: Proven}
		link := &LinkChecker{dns: dns, website: website}

		assert.Equal(t, NotProven, link.Check(ctx, "acme.example", subject))
		assert.Equal(t, 0, website.calls, "weaker channel must not override DNS")
	})

	t.Run("dns undetermined falls back", func(t *testing.T) {
		dns := &stubChannel{outcome: Undetermined}
		website := &stubChannel{outcome: Proven}
		link := &LinkChecker{dns: dns, website: website}

		assert.Equal(t, Proven, link.Check(ctx, "acme.example", subject))
		assert.Equal(t, 1, website.calls)
	})
}
