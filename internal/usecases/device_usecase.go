package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"elevex/internal/repository"
)

var ErrDeviceLimitReached = errors.New("device limit reached for plan")

// DeviceStore tracks linked devices.
type DeviceStore interface {
	CountForUser(ctx context.Context, userID string) (int, error)
	Add(ctx context.Context, d repository.LinkedDevice) error
	ListForUser(ctx context.Context, userID string) ([]repository.LinkedDevice, error)
	Remove(ctx context.Context, userID, id string) error
}

type pairClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// DeviceUsecase links devices to accounts via short-lived pairing tokens
// rendered as QR codes, honoring the plan's device limit.
type DeviceUsecase struct {
	devices  DeviceStore
	users    UserStore
	resolver *PolicyResolver
	secret   []byte
	tokenTTL time.Duration
}

func NewDeviceUsecase(devices DeviceStore, users UserStore, resolver *PolicyResolver, secret string, tokenTTL time.Duration) *DeviceUsecase {
	return &DeviceUsecase{devices: devices, users: users, resolver: resolver, secret: []byte(secret), tokenTTL: tokenTTL}
}

// PairingQR issues a pairing token for the user and renders it as a QR PNG.
func (d *DeviceUsecase) PairingQR(ctx context.Context, userID string) ([]byte, error) {
	claims := pairClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(d.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return nil, fmt.Errorf("sign pairing token: %w", err)
	}
	png, err := qrcode.Encode(token, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode pairing qr: %w", err)
	}
	return png, nil
}

// Link redeems a pairing token and registers the device. The device limit
// comes from the account's stored plan and is checked at redemption time,
// not at token issue.
func (d *DeviceUsecase) Link(ctx context.Context, token, deviceName string) (repository.LinkedDevice, error) {
	claims := &pairClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil || !parsed.Valid {
		return repository.LinkedDevice{}, fmt.Errorf("invalid pairing token")
	}

	user, err := d.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return repository.LinkedDevice{}, err
	}
	plan, err := d.resolver.Resolve(ctx, user.Plan)
	if err != nil {
		return repository.LinkedDevice{}, err
	}
	count, err := d.devices.CountForUser(ctx, claims.UserID)
	if err != nil {
		return repository.LinkedDevice{}, err
	}
	if count >= plan.DeviceLimit {
		return repository.LinkedDevice{}, ErrDeviceLimitReached
	}

	dev := repository.LinkedDevice{
		ID:       uuid.NewString(),
		UserID:   claims.UserID,
		Name:     deviceName,
		LinkedAt: time.Now().UTC(),
	}
	if err := d.devices.Add(ctx, dev); err != nil {
		return repository.LinkedDevice{}, err
	}
	return dev, nil
}

// List returns the user's linked devices.
func (d *DeviceUsecase) List(ctx context.Context, userID string) ([]repository.LinkedDevice, error) {
	return d.devices.ListForUser(ctx, userID)
}

// Unlink removes one of the user's own devices.
func (d *DeviceUsecase) Unlink(ctx context.Context, userID, deviceID string) error {
	return d.devices.Remove(ctx, userID, deviceID)
}
