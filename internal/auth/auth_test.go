package auth_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/auth"
)

var _ = Describe("Auth", func() {
	secret := []byte("test-secret")

	Describe("Role", func() {
		DescribeTable("Allows",
			func(granted, required auth.Role, allowed bool) {
				Expect(granted.Allows(required)).To(Equal(allowed))
			},
			Entry("admin over supervisor", auth.RoleAdmin, auth.RoleSupervisor, true),
			Entry("supervisor over operator", auth.RoleSupervisor, auth.RoleOperator, true),
			Entry("operator for operator", auth.RoleOperator, auth.RoleOperator, true),
			Entry("operator for supervisor", auth.RoleOperator, auth.RoleSupervisor, false),
			Entry("unknown role", auth.Role("guest"), auth.RoleOperator, false),
		)

		It("should normalize role names", func() {
			role, ok := auth.NormalizeRole(" Admin ")
			Expect(ok).To(BeTrue())
			Expect(role).To(Equal(auth.RoleAdmin))

			_, ok = auth.NormalizeRole("root")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("tokens", func() {
		It("should parse a minted token", func() {
			token, err := auth.MintToken(secret, "alice", auth.RoleSupervisor, time.Hour)
			Expect(err).NotTo(HaveOccurred())

			claims, err := auth.ParseToken(token, secret)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("alice"))
			Expect(claims.Role).To(Equal("supervisor"))
		})

		It("should reject a token signed with another secret", func() {
			token, err := auth.MintToken([]byte("other"), "alice", auth.RoleAdmin, time.Hour)
			Expect(err).NotTo(HaveOccurred())
			_, err = auth.ParseToken(token, secret)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an expired token", func() {
			claims := auth.Claims{
				Role: "admin",
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
			Expect(err).NotTo(HaveOccurred())

			_, err = auth.ParseToken(token, secret)
			Expect(err).To(MatchError(jwt.ErrTokenExpired))
		})

		It("should reject a token without expiry", func() {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{Role: "admin"}).SignedString(secret)
			Expect(err).NotTo(HaveOccurred())
			_, err = auth.ParseToken(token, secret)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown role", func() {
			_, err := auth.MintToken(secret, "alice", auth.Role("root"), time.Hour)
			Expect(err).To(MatchError(auth.ErrInvalidRole))
		})

		It("should reject empty input", func() {
			_, err := auth.ParseToken("", secret)
			Expect(err).To(MatchError(auth.ErrEmptyToken))
			_, err = auth.MintToken(nil, "alice", auth.RoleAdmin, time.Hour)
			Expect(err).To(MatchError(auth.ErrEmptySecret))
		})
	})

	Describe("Authenticator.Require", func() {
		var (
			handler http.Handler
			seen    auth.Role
		)

		request := func(a *auth.Authenticator, token string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/thresholds", nil)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			a.Require(auth.RoleSupervisor, handler).ServeHTTP(rec, req)
			return rec
		}

		mint := func(role auth.Role) string {
			token, err := auth.MintToken(secret, "bob", role, time.Hour)
			Expect(err).NotTo(HaveOccurred())
			return token
		}

		BeforeEach(func() {
			seen = ""
			handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = auth.RoleFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
		})

		It("should let everything through when disabled", func() {
			a := auth.NewAuthenticator("", nil)
			Expect(a.Enabled()).To(BeFalse())
			Expect(request(a, "").Code).To(Equal(http.StatusNoContent))
		})

		It("should require a token", func() {
			rec := request(auth.NewAuthenticator(string(secret), nil), "")
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Header().Get("WWW-Authenticate")).To(ContainSubstring("Bearer"))
		})

		It("should reject garbage tokens", func() {
			Expect(request(auth.NewAuthenticator(string(secret), nil), "abc").Code).To(Equal(http.StatusUnauthorized))
		})

		It("should forbid insufficient roles", func() {
			rec := request(auth.NewAuthenticator(string(secret), nil), mint(auth.RoleOperator))
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Body.String()).To(ContainSubstring("operator"))
		})

		It("should pass the identity to the handler", func() {
			rec := request(auth.NewAuthenticator(string(secret), nil), mint(auth.RoleAdmin))
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(seen).To(Equal(auth.RoleAdmin))
		})
	})
})
