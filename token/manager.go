package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type discriminates access tokens from refresh tokens via the "type" claim.
type Type string

const (
	// TypeAccess is the short-lived token presented on protected routes.
	TypeAccess Type = "access"
	// TypeRefresh is the long-lived token exchanged for new access tokens.
	TypeRefresh Type = "refresh"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds token issuance and validation parameters.
//
// Config instances are validated by [NewManager] and treated as immutable
// afterwards.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Claims is the claim set carried by shopcore tokens. Access tokens carry
// username and is_admin; refresh tokens carry only the subject and type.
type Claims struct {
	Username  string `json:"username,omitempty"`
	Admin     bool   `json:"is_admin,omitempty"`
	TokenType Type   `json:"type"`
	jwt.RegisteredClaims
}

// SubjectID parses the numeric subject claim.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric subject", ErrTokenInvalid)
	}
	return id, nil
}

// Manager issues and decodes tokens. A token has no state after issuance;
// validity is a pure function of claims, current time, and secret.
type Manager struct {
	config Config
	codec  *Codec
	now    func() time.Time
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token manager requires a secret")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	codec, err := NewCodec(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Manager{config: cfg, codec: codec, now: time.Now}, nil
}

// AccessTTL reports the lifetime of tokens issued by IssueAccess.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// IssueAccess creates an access token for the given subject. Claims: sub,
// username, is_admin, type=access, iat, exp = iat + AccessTTL.
func (m *Manager) IssueAccess(subjectID int64, username string, admin bool) (string, error) {
	now := m.now()
	claims := Claims{
		Username:  username,
		Admin:     admin,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			Issuer:    m.config.Issuer,
		},
	}
	return m.sign(claims)
}

// IssueRefresh creates a refresh token carrying only the subject.
func (m *Manager) IssueRefresh(subjectID int64) (string, error) {
	now := m.now()
	claims := Claims{
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
			Issuer:    m.config.Issuer,
		},
	}
	return m.sign(claims)
}

func (m *Manager) sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signingInput, err := t.SigningString()
	if err != nil {
		return "", fmt.Errorf("build signing input: %w", err)
	}
	sig, err := m.codec.Sign(signingInput)
	if err != nil {
		return "", err
	}
	return signingInput + "." + sig, nil
}

// Decode parses and validates a token string. Failures are reported as
// [ErrMalformedToken] (not three segments), [ErrInvalidSignature],
// [ErrTokenExpired], or [ErrTokenInvalid]; claims are returned only when
// every check passes.
func (m *Manager) Decode(tokenStr string) (*Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, fmt.Errorf("%w: want three dot-separated segments", ErrMalformedToken)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrTokenInvalid, claims.TokenType)
	}
	return claims, nil
}

// Verify is the non-throwing wrapper over [Manager.Decode]: it reports
// whether the token is valid and never returns partial results.
func (m *Manager) Verify(tokenStr string) bool {
	_, err := m.Decode(tokenStr)
	return err == nil
}
