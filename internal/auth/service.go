package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-kargo/internal/common"
)

const defaultTokenTTL = 15 * time.Minute

const roleClaim = "role"

// Roles recognised by the API surface.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Client is a registered machine client. SecretHash is an argon2id hash of
// the client secret; plaintext secrets are never held in config.
type Client struct {
	ID         string
	SecretHash string
	Role       string
}

// Identity is the authenticated principal extracted from a token.
type Identity struct {
	ClientID string
	Role     string
}

// TokenResult bundles the material returned after a credential exchange.
type TokenResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service exchanges client credentials for short-lived signed tokens and
// validates tokens on incoming requests.
type Service struct {
	clients   map[string]Client
	secret    []byte
	tokenTTL  time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Clients   []Client
	Secret    string
	TokenTTL  time.Duration
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	if len(cfg.Clients) == 0 {
		return nil, errors.New("auth: at least one client is required")
	}
	clients := make(map[string]Client, len(cfg.Clients))
	for _, client := range cfg.Clients {
		if client.ID == "" || client.SecretHash == "" {
			return nil, errors.New("auth: client id and secret hash are required")
		}
		if client.Role != RoleAdmin && client.Role != RoleClient {
			return nil, fmt.Errorf("auth: unknown role %q for client %s", client.Role, client.ID)
		}
		if _, dup := clients[client.ID]; dup {
			return nil, fmt.Errorf("auth: duplicate client id %s", client.ID)
		}
		clients[client.ID] = client
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-kargo"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "kargo-api"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	algorithm := jwa.HS256
	return &Service{
		clients:  clients,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      now,
		signer:   algorithm,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: algorithm,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// IssueToken verifies client credentials and returns a signed token carrying
// the client's role. Unknown clients and bad secrets fail identically.
func (s *Service) IssueToken(clientID, clientSecret string) (TokenResult, error) {
	client, ok := s.clients[strings.TrimSpace(clientID)]
	if !ok {
		// Hashing against a throwaway hash keeps timing comparable for
		// unknown client ids.
		_, _ = argon2id.ComparePasswordAndHash(clientSecret, decoyHash)
		return TokenResult{}, invalidCredentials(nil)
	}
	match, err := argon2id.ComparePasswordAndHash(clientSecret, client.SecretHash)
	if err != nil || !match {
		return TokenResult{}, invalidCredentials(err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	builder := jwt.NewBuilder().
		Subject(client.ID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(roleClaim, client.Role)
	token, err := builder.Build()
	if err != nil {
		return TokenResult{}, fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return TokenResult{}, fmt.Errorf("sign token: %w", err)
	}
	return TokenResult{
		AccessToken: string(signed),
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// ParseToken validates a bearer token and returns the identity it carries.
func (s *Service) ParseToken(token string) (Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Identity{}, common.NewAppError(common.CodeUnauthorized, "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Identity{}, common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.validator.Algorithm {
		return Identity{}, common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized,
			fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return Identity{}, common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return Identity{}, common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	role, _ := parsed.Get(roleClaim)
	roleStr, _ := role.(string)
	if roleStr != RoleAdmin && roleStr != RoleClient {
		return Identity{}, common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized,
			errors.New("auth: token missing role claim"))
	}
	return Identity{ClientID: parsed.Subject(), Role: roleStr}, nil
}

func invalidCredentials(err error) *common.AppError {
	return common.NewAppError(common.CodeUnauthorized, "invalid client credentials", http.StatusUnauthorized, err)
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm != "" && algorithm != alg {
			return "", errors.New("auth: token signatures disagree on algorithm")
		}
		algorithm = alg
	}
	return algorithm, nil
}

// decoyHash is an argon2id hash of a random value, used to equalise the
// work done for unknown client ids.
const decoyHash = "$argon2id$v=19$m=65536,t=1,p=2$c29tZXNhbHRzb21lc2FsdA$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"
