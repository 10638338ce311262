package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/auth"
	"github.com/costwise/costwise/pkg/logger"
)

type failingProvider struct {
	token string
}

func (f *failingProvider) Token() string { return f.token }

func (f *failingProvider) UpdateToken(context.Context, time.Duration) (bool, error) {
	return false, errors.New("refresh failed")
}

var _ = Describe("Bearer", func() {
	It("returns an empty token for a nil provider", func() {
		Expect(auth.Bearer(context.Background(), nil, logger.Nop())).To(BeEmpty())
	})

	It("returns the static token", func() {
		Expect(auth.Bearer(context.Background(), auth.NewStatic("abc"), logger.Nop())).To(Equal("abc"))
	})

	It("falls back to the existing token when refresh fails", func() {
		p := &failingProvider{token: "stale"}
		Expect(auth.Bearer(context.Background(), p, logger.Nop())).To(Equal("stale"))
	})
})

var _ = Describe("Keycloak", func() {
	var (
		server   *httptest.Server
		requests atomic.Int32
		expires  int
	)

	BeforeEach(func() {
		requests.Store(0)
		expires = 300
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/realms/aws-cost-realm/protocol/openid-connect/token"))
			Expect(r.ParseForm()).To(Succeed())
			Expect(r.Form.Get("grant_type")).To(Equal("client_credentials"))

			n := requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":%d}`, n, expires)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newProvider := func() *auth.Keycloak {
		k, err := auth.NewKeycloak(auth.KeycloakConfig{
			URL:          server.URL + "/",
			Realm:        "aws-cost-realm",
			ClientID:     "aws-cost-app",
			ClientSecret: "secret",
		}, server.Client())
		Expect(err).NotTo(HaveOccurred())
		return k
	}

	It("builds the realm token URL", func() {
		cfg := auth.KeycloakConfig{URL: "http://localhost:8080/", Realm: "aws-cost-realm"}
		Expect(cfg.TokenURL()).To(Equal("http://localhost:8080/realms/aws-cost-realm/protocol/openid-connect/token"))
	})

	It("requires url, realm and client id", func() {
		_, err := auth.NewKeycloak(auth.KeycloakConfig{URL: "http://localhost"}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("has no token before the first update", func() {
		Expect(newProvider().Token()).To(BeEmpty())
	})

	It("fetches a token on first update and caches it", func() {
		k := newProvider()

		refreshed, err := k.UpdateToken(context.Background(), auth.DefaultMinValidity)
		Expect(err).NotTo(HaveOccurred())
		Expect(refreshed).To(BeTrue())
		Expect(k.Token()).To(Equal("token-1"))

		refreshed, err = k.UpdateToken(context.Background(), auth.DefaultMinValidity)
		Expect(err).NotTo(HaveOccurred())
		Expect(refreshed).To(BeFalse())
		Expect(k.Token()).To(Equal("token-1"))
		Expect(requests.Load()).To(Equal(int32(1)))
	})

	It("refreshes when the token expires within the minimum validity", func() {
		expires = 10
		k := newProvider()

		_, err := k.UpdateToken(context.Background(), auth.DefaultMinValidity)
		Expect(err).NotTo(HaveOccurred())

		refreshed, err := k.UpdateToken(context.Background(), auth.DefaultMinValidity)
		Expect(err).NotTo(HaveOccurred())
		Expect(refreshed).To(BeTrue())
		Expect(k.Token()).To(Equal("token-2"))
	})

	It("keeps the previous token when the endpoint fails", func() {
		k := newProvider()
		_, err := k.UpdateToken(context.Background(), auth.DefaultMinValidity)
		Expect(err).NotTo(HaveOccurred())

		server.Close()
		_, err = k.UpdateToken(context.Background(), time.Hour)
		Expect(err).To(HaveOccurred())
		Expect(k.Token()).To(Equal("token-1"))
	})
})
