package auth

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

// BearerScheme is the conventional name of the bearer token scheme.
const BearerScheme = "Bearer"

// JWTBearerOptions configures a [JWTBearer] scheme. Tokens are signed with HMAC.
type JWTBearerOptions struct {
	SigningKey string `validate:"required"`
	Issuer     string
	Audience   string
	Leeway     time.Duration `default:"30s"`
}

// JWTBearer authenticates "Authorization: Bearer <jwt>" headers.
type JWTBearer struct {
	BaseHandler
	opts *di.Options[JWTBearerOptions]
}

// NewJWTBearer inits the handler. Settings are read per scheme name.
func NewJWTBearer(opts *di.Options[JWTBearerOptions]) *JWTBearer {
	return &JWTBearer{opts: opts}
}

// AddJWTBearer adds a bearer scheme called name. The options are validated
// with their struct tags.
func AddJWTBearer(b *Builder, name string, configure func(*JWTBearerOptions)) *Builder {
	AddScheme[JWTBearerOptions, *JWTBearer](b, name, NewJWTBearer, configure)
	di.ValidateStruct[JWTBearerOptions](b.c)
	return b
}

// Authenticate parses and verifies the bearer token.
func (h *JWTBearer) Authenticate(r *http.Request, scheme string) Result {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return NoResult()
	}

	opts, err := h.opts.Get(scheme)
	if err != nil {
		return FailErr(err)
	}

	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(opts.Leeway),
	}
	if opts.Issuer != "" {
		popts = append(popts, jwt.WithIssuer(opts.Issuer))
	}

	if opts.Audience != "" {
		popts = append(popts, jwt.WithAudience(opts.Audience))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(opts.SigningKey), nil
	}, popts...); err != nil {
		return FailErr(errors.Wrap(err, "invalid bearer token"))
	}

	sub, _ := claims.GetSubject()
	id := NewIdentity(scheme, sub)
	for _, k := range slices.Sorted(maps.Keys(claims)) {
		switch v := claims[k].(type) {
		case float64:
			id.Claims = append(id.Claims, Claim{Type: k, Value: strconv.FormatFloat(v, 'f', -1, 64)})
		case []any:
			for _, e := range v {
				id.Claims = append(id.Claims, Claim{Type: k, Value: fmt.Sprint(e)})
			}
		default:
			id.Claims = append(id.Claims, Claim{Type: k, Value: fmt.Sprint(v)})
		}
	}

	return MustSuccess(NewPrincipal(id), scheme)
}

// Challenge adds the token error to the WWW-Authenticate header.
func (h *JWTBearer) Challenge(w http.ResponseWriter, r *http.Request, scheme string) error {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		return h.BaseHandler.Challenge(w, r, scheme)
	}

	w.Header().Set("WWW-Authenticate", scheme+` error="invalid_token"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	return nil
}

// SignToken creates a token the handler accepts for opts. Extra claims are
// added to the registered ones.
func SignToken(opts JWTBearerOptions, subject string, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	if opts.Issuer != "" {
		claims["iss"] = opts.Issuer
	}

	if opts.Audience != "" {
		claims["aud"] = opts.Audience
	}

	maps.Copy(claims, extra)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.SigningKey))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}
