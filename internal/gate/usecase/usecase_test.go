package usecase

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/jwt"
)

type mockRepoDB struct{ mock.Mock }

func (m *mockRepoDB) GetPrincipalByID(ctx context.Context, id int64) (*entity.Principal, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*entity.Principal)
	return p, args.Error(1)
}

// prefixClassifier mirrors the default rule set without casbin.
type prefixClassifier struct{ err error }

func (c prefixClassifier) Classify(_ context.Context, path string) (entity.PathClass, error) {
	if c.err != nil {
		return entity.PathClassPublic, c.err
	}
	for _, p := range []string{"/dashboard", "/booking", "/checkout", "/confirmation"} {
		if strings.HasPrefix(path, p) {
			return entity.PathClassProtected, nil
		}
	}
	if path == "/login" || path == "/signup" {
		return entity.PathClassAuthEntry, nil
	}
	return entity.PathClassPublic, nil
}

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

var sessionSecret = []byte("0123456789abcdef0123456789abcdef")

func newJWT(t *testing.T) jwt.JWT {
	t.Helper()
	j, err := jwt.NewSymmetric(jwt.Config{
		Secret:    sessionSecret,
		Issuer:    "titipyuk",
		Audiences: []string{"titipyuk-web"},
		Clock:     clock.Fixed(now),
	})
	require.NoError(t, err)
	return j
}

func newUsecase(t *testing.T, mode string, repo *mockRepoDB, cls classifier) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("gate:\n  verification_mode: "+mode+"\n"))
	require.NoError(t, err)

	uc, err := New(Dependency{
		RepoDB:     repo,
		Classifier: cls,
		JWT:        newJWT(t),
		Config:     cfg,
		Instrument: instrument.NewNoop(),
	})
	require.NoError(t, err)
	return uc
}

// token signs a session the way the identity provider does.
func token(t *testing.T, issuer string, id int64, email string) string {
	t.Helper()
	tok, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			Issuer:    issuer,
			Audience:  libJWT.ClaimStrings{"titipyuk-web"},
			IssuedAt:  libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:    id,
		UserEmail: email,
	}).SignedString(sessionSecret)
	require.NoError(t, err)
	return tok
}

func TestNew_UnknownVerificationMode(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("gate:\n  verification_mode: sms\n"))
	require.NoError(t, err)

	_, err = New(Dependency{Config: cfg, Instrument: instrument.NewNoop()})
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	confirmed := now
	unverified := &entity.Principal{ID: 7, Email: "a@x.com"}
	verified := &entity.Principal{ID: 7, Email: "a@x.com", EmailVerified: true}
	providerConfirmed := &entity.Principal{ID: 7, Email: "a@x.com", EmailConfirmedAt: &confirmed}

	valid := token(t, "titipyuk", 7, "a@x.com")

	tests := []struct {
		name      string
		mode      string
		in        EvaluateInput
		principal *entity.Principal
		repoErr   error
		want      entity.Decision
		location  string
	}{
		{
			name:     "protected without session redirects to login",
			in:       EvaluateInput{Method: "GET", Path: "/booking", RawQuery: "trip=9"},
			want:     entity.DecisionRedirectLogin,
			location: "/login?redirectTo=" + url.QueryEscape("/booking?trip=9"),
		},
		{
			name:      "protected unverified redirects to verify",
			in:        EvaluateInput{Method: "GET", Path: "/dashboard", Token: valid},
			principal: unverified,
			want:      entity.DecisionRedirectVerify,
			location:  "/signup?email=a%40x.com&needVerify=1&redirectTo=%2Fdashboard",
		},
		{
			name:      "protected verified is allowed",
			in:        EvaluateInput{Method: "GET", Path: "/checkout", Token: valid},
			principal: verified,
			want:      entity.DecisionAllow,
		},
		{
			name:      "provider mode reads confirmation time",
			mode:      "provider",
			in:        EvaluateInput{Method: "GET", Path: "/checkout", Token: valid},
			principal: providerConfirmed,
			want:      entity.DecisionAllow,
		},
		{
			name:      "provider mode ignores otp flag",
			mode:      "provider",
			in:        EvaluateInput{Method: "GET", Path: "/checkout", Token: valid},
			principal: verified,
			want:      entity.DecisionRedirectVerify,
			location:  "/signup?email=a%40x.com&needVerify=1&redirectTo=%2Fcheckout",
		},
		{
			name:     "token from another issuer is unauthenticated",
			in:       EvaluateInput{Method: "GET", Path: "/dashboard", Token: token(t, "other-project", 7, "a@x.com")},
			want:     entity.DecisionRedirectLogin,
			location: "/login?redirectTo=%2Fdashboard",
		},
		{
			name:      "session email mismatch is unauthenticated",
			in:        EvaluateInput{Method: "GET", Path: "/dashboard", Token: valid},
			principal: &entity.Principal{ID: 7, Email: "changed@x.com", EmailVerified: true},
			want:      entity.DecisionRedirectLogin,
			location:  "/login?redirectTo=%2Fdashboard",
		},
		{
			name:     "principal lookup failure is unauthenticated",
			in:       EvaluateInput{Method: "GET", Path: "/dashboard", Token: valid},
			repoErr:  errors.New("connection refused"),
			want:     entity.DecisionRedirectLogin,
			location: "/login?redirectTo=%2Fdashboard",
		},
		{
			name:      "auth entry verified goes to landing",
			in:        EvaluateInput{Method: "GET", Path: "/login", Token: valid},
			principal: verified,
			want:      entity.DecisionRedirectAway,
			location:  "/dashboard",
		},
		{
			name:      "auth entry honors safe redirectTo",
			in:        EvaluateInput{Method: "GET", Path: "/login", RawQuery: "redirectTo=%2Fbooking%3Ftrip%3D9", Token: valid},
			principal: verified,
			want:      entity.DecisionRedirectAway,
			location:  "/booking?trip=9",
		},
		{
			name:      "auth entry rejects external redirectTo",
			in:        EvaluateInput{Method: "GET", Path: "/signup", RawQuery: "redirectTo=https%3A%2F%2Fevil.example", Token: valid},
			principal: verified,
			want:      entity.DecisionRedirectAway,
			location:  "/dashboard",
		},
		{
			name:      "auth entry redirectTo back to login falls back",
			in:        EvaluateInput{Method: "GET", Path: "/login", RawQuery: "redirectTo=%2Fsignup", Token: valid},
			principal: verified,
			want:      entity.DecisionRedirectAway,
			location:  "/dashboard",
		},
		{
			name:      "auth entry unverified stays",
			in:        EvaluateInput{Method: "GET", Path: "/signup", Token: valid},
			principal: unverified,
			want:      entity.DecisionAllow,
		},
		{
			name: "public path is allowed",
			in:   EvaluateInput{Method: "GET", Path: "/"},
			want: entity.DecisionAllow,
		},
		{
			name: "non navigational method passes",
			in:   EvaluateInput{Method: "POST", Path: "/dashboard"},
			want: entity.DecisionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode := tt.mode
			if mode == "" {
				mode = "otp"
			}

			repo := &mockRepoDB{}
			switch {
			case tt.repoErr != nil:
				repo.On("GetPrincipalByID", mock.Anything, int64(7)).Return(nil, tt.repoErr)
			case tt.principal != nil:
				repo.On("GetPrincipalByID", mock.Anything, int64(7)).Return(tt.principal, nil)
			}

			uc := newUsecase(t, mode, repo, prefixClassifier{})
			out, err := uc.Evaluate(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Decision)
			assert.Equal(t, tt.location, out.Location)
		})
	}
}

type recordingCounter struct {
	noop.Int64Counter
	got []string
}

func (c *recordingCounter) Add(_ context.Context, incr int64, opts ...metric.AddOption) {
	set := metric.NewAddConfig(opts).Attributes()
	decision, _ := set.Value(attribute.Key("decision"))
	class, _ := set.Value(attribute.Key("class"))
	for range incr {
		c.got = append(c.got, decision.AsString()+"/"+class.AsString())
	}
}

func TestEvaluate_CountsEveryClassifiedDecision(t *testing.T) {
	uc := newUsecase(t, "otp", &mockRepoDB{}, prefixClassifier{})
	counter := &recordingCounter{}
	uc.decisions = counter

	ctx := context.Background()
	for _, in := range []EvaluateInput{
		{Method: "GET", Path: "/"},
		{Method: "GET", Path: "/dashboard"},
		{Method: "GET", Path: "/login"},
		{Method: "POST", Path: "/dashboard"},
	} {
		_, err := uc.Evaluate(ctx, in)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		entity.DecisionAllow.String() + "/" + entity.PathClassPublic.String(),
		entity.DecisionRedirectLogin.String() + "/" + entity.PathClassProtected.String(),
		entity.DecisionAllow.String() + "/" + entity.PathClassAuthEntry.String(),
	}, counter.got)
}

func TestEvaluate_ClassifierFailure(t *testing.T) {
	uc := newUsecase(t, "otp", &mockRepoDB{}, prefixClassifier{err: errors.New("enforcer broken")})

	_, err := uc.Evaluate(context.Background(), EvaluateInput{Method: "GET", Path: "/dashboard"})

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.TypeServer, gerr.Type())
}

func TestSanitizeRedirect(t *testing.T) {
	tests := map[string]string{
		"/booking":              "/booking",
		"/booking?trip=9#top":   "/booking?trip=9#top",
		"":                      "/dashboard",
		"booking":               "/dashboard",
		"//evil.example":        "/dashboard",
		"/\\evil.example":       "/dashboard",
		"https://evil.example/": "/dashboard",
		"/ok\nLocation: x":      "/dashboard",
		"  /spaced  ":           "/spaced",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizeRedirect(in, "/dashboard"), "input %q", in)
	}
}
