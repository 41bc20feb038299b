package authservice

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/taskboard/backend/authsvc"
	"github.com/twinj/uuid"
)

type AccessToken struct {
	UUID string
	Hash string
}

type RefreshToken struct {
	AccessUUID  string
	RefreshUUID string
	Hash        string
}

// Identity is the subject extracted from a verified token.
type Identity struct {
	TokenUUID string
	UserID    uint64
	Username  string
}

type Tokenizer interface {
	Generate(userID uint64, username string) (*AccessToken, *RefreshToken, error)
	Parse(token string) (Identity, error)
	ParseRefresh(token string) (Identity, error)
}

type tokenizer struct{}

func NewTokenizer() Tokenizer {
	return &tokenizer{}
}

func (t *tokenizer) Generate(userID uint64, username string) (*AccessToken, *RefreshToken, error) {
	access, err := generateAccessToken(userID, username)
	if err != nil {
		return nil, nil, err
	}

	refresh, err := generateRefreshToken(userID, username, access.UUID)
	if err != nil {
		return nil, nil, err
	}

	return access, refresh, nil
}

// Parse verifies signature and expiry of an access token and returns its
// subject. Expired, malformed and badly signed tokens fail with distinct
// errors so transports can tell them apart.
func (t *tokenizer) Parse(token string) (Identity, error) {
	claims, err := parseClaims(token, authsvc.AccessSecret)
	if err != nil {
		return Identity{}, err
	}

	return identityFromClaims(claims, "uuid")
}

func (t *tokenizer) ParseRefresh(token string) (Identity, error) {
	claims, err := parseClaims(token, authsvc.RefreshSecret)
	if err != nil {
		return Identity{}, err
	}

	return identityFromClaims(claims, "refresh_uuid")
}

var (
	uuidV4  = uuid.NewV4
	uuidV5  = uuid.NewV5
	timeNow = time.Now
)

func generateAccessToken(userID uint64, username string) (*AccessToken, error) {
	id := uuidV4().String()
	expiry := timeNow().Add(AccessTokenExpiry()).Unix()

	claims := jwt.MapClaims{
		"uuid":     id,
		"user_id":  userID,
		"username": username,
		"exp":      expiry,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hash, err := t.SignedString([]byte(authsvc.AccessSecret))
	if err != nil {
		return nil, err
	}

	return &AccessToken{id, hash}, nil
}

func generateRefreshToken(userID uint64, username, accessUUID string) (*RefreshToken, error) {
	refreshUUID := uuidV5(uuid.NameSpaceURL, accessUUID).String()
	expiry := timeNow().Add(RefreshTokenExpiry()).Unix()

	claims := jwt.MapClaims{
		"access_uuid":  accessUUID,
		"refresh_uuid": refreshUUID,
		"user_id":      userID,
		"username":     username,
		"exp":          expiry,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hash, err := t.SignedString([]byte(authsvc.RefreshSecret))
	if err != nil {
		return nil, err
	}

	return &RefreshToken{accessUUID, refreshUUID, hash}, nil
}

func parseClaims(token, secret string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, authsvc.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, authsvc.ErrTokenExpired
			case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				return nil, authsvc.ErrSignatureInvalid
			default:
				return nil, authsvc.ErrTokenMalformed
			}
		}
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, authsvc.ErrTokenMalformed
	}

	return claims, nil
}

func identityFromClaims(claims jwt.MapClaims, uuidKey string) (Identity, error) {
	id, ok := claims[uuidKey].(string)
	if !ok {
		return Identity{}, authsvc.ErrClaimsInvalid
	}

	userID, err := strconv.ParseUint(fmt.Sprintf("%.f", claims["user_id"]), 10, 64)
	if err != nil {
		return Identity{}, authsvc.ErrClaimsInvalid
	}

	username, ok := claims["username"].(string)
	if !ok {
		return Identity{}, authsvc.ErrClaimsInvalid
	}

	return Identity{TokenUUID: id, UserID: userID, Username: username}, nil
}

func AccessTokenExpiry() time.Duration {
	return time.Minute * 30
}

func RefreshTokenExpiry() time.Duration {
	return time.Hour * 24 * 7
}
