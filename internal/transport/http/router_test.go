package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"orgtrust/internal/domain"
	"orgtrust/internal/store"
)

var (
	orgA = domain.MustOrgID("0x6d98103810d50b5e7d1e3343e4ad36c9a8bf0d4eaa1f2f0f7f33e04b69c3b86e")
	orgB = domain.MustOrgID("0x1111111111111111111111111111111111111111111111111111111111111111")
)

type RouterSuite struct {
	suite.Suite
	profiles *store.InMemoryStore
	server   *httptest.Server
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.profiles = store.NewInMemoryStore()
	s.server = httptest.NewServer(NewRouter(NewHandler(s.profiles)))
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) get(path string) (*http.Response, map[string]any) {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func (s *RouterSuite) seed(id domain.OrgID, name string, valid bool) {
	profile := &domain.Profile{OrgID: id, Name: name, ProofsQty: 2, IsJSONValid: valid}
	s.Require().NoError(s.profiles.Upsert(context.Background(), profile))
}

func (s *RouterSuite) TestHealth() {
	resp, body := s.get("/healthz")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
}

func (s *RouterSuite) TestMetricsEndpoint() {
	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestGetProfile() {
	s.Run("returns a stored profile", func() {
		s.seed(orgA, "Acme Corp", true)

		resp, body := s.get("/profiles/" + orgA.String())
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("Acme Corp", body["name"])
		s.Equal(orgA.String(), body["orgid"])
		s.Equal(float64(2), body["proofsQty"])
	})

	s.Run("unknown identifier is 404", func() {
		resp, _ := s.get("/profiles/" + orgB.String())
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("malformed identifier is 400", func() {
		resp, _ := s.get("/profiles/not-an-orgid")
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *RouterSuite) TestListProfiles() {
	s.Run("lists every stored identifier", func() {
		s.SetupTest()
		s.seed(orgA, "Acme Corp", true)
		s.seed(orgB, "Bravo Corp", false)

		resp, body := s.get("/profiles")
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Len(body["orgids"], 2)
	})

	s.Run("invalid filter narrows to broken profiles", func() {
		s.SetupTest()
		s.seed(orgA, "Acme Corp", true)
		s.seed(orgB, "Bravo Corp", false)

		resp, body := s.get("/profiles?filter=invalid")
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal([]any{orgB.String()}, body["orgids"])
	})
}
