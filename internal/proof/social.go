package proof

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"orgtrust/internal/domain"
)

// Social platform markers. A trust clue is checked against a platform only
// when its proof URI contains the marker.
const (
	PlatformFacebook = "facebook"
	PlatformTwitter  = "twitter"
)

// maxFragmentAttempts bounds how many wrapped markup fragments the facebook
// extractor will unwrap before giving up.
const maxFragmentAttempts = 20

// SocialChecker verifies that a public social post named in a trust clue
// embeds the subject identifier. Best-effort by design: scraping is a
// signal, not a security boundary.
type SocialChecker struct {
	client *http.Client
}

func NewSocialChecker(timeout time.Duration) *SocialChecker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &SocialChecker{client: &http.Client{Timeout: timeout}}
}

// Check fetches the post page for the given platform and searches the post
// body for the fixed-width hex identifier. Fetch or parse failures are
// Undetermined; a readable post without the identifier is NotProven.
func (c *SocialChecker) Check(ctx context.Context, platform, proofURI string, subject domain.OrgID) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proofURI, nil)
	if err != nil {
		return Undetermined
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Undetermined
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Undetermined
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBody))
	if err != nil {
		return Undetermined
	}

	var post string
	switch platform {
	case PlatformFacebook:
		post = extractFacebookPost(body)
	case PlatformTwitter:
		post = extractTweetText(body)
	default:
		return Undetermined
	}
	if post == "" {
		return Undetermined
	}

	id, ok := findOrgID(post)
	if !ok {
		return NotProven
	}
	return outcomeFor(id, subject)
}

const maxDocumentBody = 8 << 20

// extractFacebookPost digs the post body out of facebook's markup: the page
// wraps real content in commented-out <code> fragments under hidden
// elements, so each fragment is unwrapped and re-parsed until a post message
// node shows up or the attempt budget runs out.
func extractFacebookPost(page []byte) string {
	root, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return ""
	}
	fragments := collectHiddenCodeFragments(root, maxFragmentAttempts)
	for _, fragment := range fragments {
		inner, err := html.Parse(strings.NewReader(fragment))
		if err != nil {
			continue
		}
		if node := findByAttr(inner, "data-testid", "post_message"); node != nil {
			if text := nodeText(node); text != "" {
				return text
			}
		}
	}
	return ""
}

// collectHiddenCodeFragments returns the comment payloads of <code> elements
// nested under class="hidden_elem" nodes, oldest first, up to limit.
func collectHiddenCodeFragments(root *html.Node, limit int) []string {
	var fragments []string
	var inHidden func(n *html.Node, hidden bool)
	inHidden = func(n *html.Node, hidden bool) {
		if len(fragments) >= limit {
			return
		}
		if n.Type == html.ElementNode {
			if hasClass(n, "hidden_elem") {
				hidden = true
			}
			if hidden && n.Data == "code" {
				for child := n.FirstChild; child != nil; child = child.NextSibling {
					if child.Type == html.CommentNode {
						fragments = append(fragments, strings.ReplaceAll(child.Data, `\"`, `"`))
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			inHidden(child, hidden)
		}
	}
	inHidden(root, false)
	return fragments
}

// extractTweetText returns the text of the tweet body node.
func extractTweetText(page []byte) string {
	root, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return ""
	}
	if node := findByClass(root, "js-tweet-text"); node != nil {
		return nodeText(node)
	}
	return ""
}

func findByAttr(root *html.Node, key, value string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key == key && attr.Val == value {
					found = n
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

func findByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
