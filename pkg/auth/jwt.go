package auth

import (
	"errors"
	"time"

	appErr "truco-service/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

const seatSubject = "seat"

// SeatClaims binds a transport identity to one seat in one room.
type SeatClaims struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Signer) GenerateSeatToken(playerID, roomCode string) (string, error) {
	now := s.now()
	claims := SeatClaims{
		PlayerID: playerID,
		RoomCode: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   seatSubject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Signer) ParseSeatToken(tokenString string) (*SeatClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SeatClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErr.ErrInvalidToken
	}
	claims, ok := token.Claims.(*SeatClaims)
	if !ok || !token.Valid || claims.Subject != seatSubject || claims.PlayerID == "" {
		return nil, appErr.ErrInvalidToken
	}
	return claims, nil
}
