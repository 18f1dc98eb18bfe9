package services

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the identity asserted by the external provider.
type Principal struct {
	Sub           string
	Name          string
	Email         string
	EmailVerified bool
	Picture       string
}

// TokenVerifier turns a provider ID token into a Principal.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Principal, error)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// jwksMinRefresh bounds how often an unknown kid may trigger a refetch.
const jwksMinRefresh = time.Minute

type jwksCache struct {
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
	mu        sync.RWMutex
}

// EmailVerified is a bool for most providers and a "true"/"false" string
// for some.
type oidcClaims struct {
	Email         string      `json:"email"`
	EmailVerified interface{} `json:"email_verified"`
	Name          string      `json:"name"`
	Picture       string      `json:"picture"`
	jwt.RegisteredClaims
}

func (c *oidcClaims) emailVerified() bool {
	switch v := c.EmailVerified.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// OIDCVerifier validates RS256 ID tokens against the provider's JWKS.
type OIDCVerifier struct {
	cache      *jwksCache
	httpClient *http.Client
	jwksURL    string
	issuer     string
	audience   string
}

func NewOIDCVerifier(jwksURL, issuer, audience string) *OIDCVerifier {
	return &OIDCVerifier{
		cache: &jwksCache{
			keys: make(map[string]*rsa.PublicKey),
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		jwksURL:    jwksURL,
		issuer:     issuer,
		audience:   audience,
	}
}

func (v *OIDCVerifier) fetchKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build JWKS request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()

	v.cache.keys = make(map[string]*rsa.PublicKey)
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		v.cache.keys[k.Kid] = pubKey
	}
	v.cache.fetchedAt = time.Now()
	v.cache.expiresAt = v.cache.fetchedAt.Add(24 * time.Hour)
	return nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

// publicKey returns the cached key for kid, refreshing the set when the
// cache is stale or the kid is unknown (the provider rotated keys). Unknown
// kids refetch at most once per jwksMinRefresh.
func (v *OIDCVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.cache.mu.RLock()
	now := time.Now()
	fresh := now.Before(v.cache.expiresAt)
	key, ok := v.cache.keys[kid]
	recent := now.Sub(v.cache.fetchedAt) < jwksMinRefresh
	v.cache.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}
	if fresh && recent {
		return nil, fmt.Errorf("public key with kid %s not found", kid)
	}

	if err := v.fetchKeys(ctx); err != nil {
		return nil, &DependencyError{Service: "identity provider", Err: err}
	}

	v.cache.mu.RLock()
	defer v.cache.mu.RUnlock()
	if key, ok := v.cache.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("public key with kid %s not found", kid)
}

func (v *OIDCVerifier) Verify(ctx context.Context, idToken string) (*Principal, error) {
	if idToken == "" {
		return nil, ErrUnauthenticated
	}

	var keyErr error
	claims := &oidcClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	_, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, err := v.publicKey(ctx, kid)
		keyErr = err
		return key, err
	}, opts...)
	if err != nil {
		var depErr *DependencyError
		if errors.As(keyErr, &depErr) {
			return nil, depErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: token is missing sub or email", ErrUnauthenticated)
	}

	return &Principal{
		Sub:           claims.Subject,
		Name:          claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.emailVerified(),
		Picture:       claims.Picture,
	}, nil
}
