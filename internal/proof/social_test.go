package proof

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const tweetPage = `<html><body>
<div class="stream">
  <p class="js-tweet-text tweet-text">Proud to announce our registration: %s</p>
</div>
</body></html>`

const facebookPage = `<html><body>
<div class="hidden_elem"><code><!--<div class="wrapper">
<div data-testid="post_message"><div><p>Our verified orgid: %s</p></div></div>
</div>--></code></div>
</body></html>`

func servePage(t *testing.T, page string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(page))
	}))
}

func TestSocialCheckTwitter(t *testing.T) {
	checker := NewSocialChecker(5 * time.Second)
	ctx := context.Background()

	t.Run("post with identifier is proven", func(t *testing.T) {
		srv := servePage(t, sprintf(tweetPage, subject.String()))
		defer srv.Close()
		assert.Equal(t, Proven, checker.Check(ctx, PlatformTwitter, srv.URL, subject))
	})

	t.Run("post with foreign identifier is not proven", func(t *testing.T) {
		foreign := "0x1111111111111111111111111111111111111111111111111111111111111111"
		srv := servePage(t, sprintf(tweetPage, foreign))
		defer srv.Close()
		assert.Equal(t, NotProven, checker.Check(ctx, PlatformTwitter, srv.URL, subject))
	})

	t.Run("page without tweet body is undetermined", func(t *testing.T) {
		srv := servePage(t, "<html><body><p>nothing here</p></body></html>")
		defer srv.Close()
		assert.Equal(t, Undetermined, checker.Check(ctx, PlatformTwitter, srv.URL, subject))
	})

	t.Run("unreachable page is undetermined", func(t *testing.T) {
		srv := servePage(t, "")
		srv.Close()
		assert.Equal(t, Undetermined, checker.Check(ctx, PlatformTwitter, srv.URL, subject))
	})
}

func TestSocialCheckFacebook(t *testing.T) {
	checker := NewSocialChecker(5 * time.Second)
	ctx := context.Background()

	t.Run("post hidden in commented markup is found", func(t *testing.T) {
		srv := servePage(t, sprintf(facebookPage, subject.String()))
		defer srv.Close()
		assert.Equal(t, Proven, checker.Check(ctx, PlatformFacebook, srv.URL, subject))
	})

	t.Run("page without post message is undetermined", func(t *testing.T) {
		srv := servePage(t, "<html><body><div class='hidden_elem'><code><!--<p>x</p>--></code></div></body></html>")
		defer srv.Close()
		assert.Equal(t, Undetermined, checker.Check(ctx, PlatformFacebook, srv.URL, subject))
	})
}

func TestSocialCheckUnknownPlatform(t *testing.T) {
	checker := NewSocialChecker(5 * time.Second)
	srv := servePage(t, "irrelevant")
	defer srv.Close()

	assert.Equal(t, Undetermined, checker.Check(context.Background(), "myspace", srv.URL, subject))
}

func TestExtractTweetText(t *testing.T) {
	text := extractTweetText([]byte(sprintf(tweetPage, subject.String())))
	assert.Contains(t, text, subject.String())
}

func TestExtractFacebookPost(t *testing.T) {
	text := extractFacebookPost([]byte(sprintf(facebookPage, subject.String())))
	assert.Contains(t, text, subject.String())
}

func sprintf(format, arg string) string {
	return fmt.Sprintf(format, arg)
}
