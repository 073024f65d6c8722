package sharetokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"bonvet-api/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// Motivos internos de Validate. El handler público los colapsa todos
	// en una sola respuesta opaca; la distinción existe para logs y tests.
	ErrTokenNotFound = errors.New("share token not found")
	ErrTokenRevoked  = errors.New("share token revoked")
	ErrTokenExpired  = errors.New("share token expired")
)

type Service struct {
	repo Repository
	log  logger.Logger

	ttl     time.Duration
	baseURL string

	now      func() time.Time
	newToken func() (string, error)
}

type Options struct {
	TTL     time.Duration
	BaseURL string
	Logger  logger.Logger
	Now     func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Options{})
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     repo,
		log:      log,
		ttl:      opts.TTL,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		now:      now,
		newToken: newTokenValue,
	}
}

// Now expone el reloj del servicio para que los handlers calculen tiempos
// restantes con la misma fuente que las expiraciones.
func (s *Service) Now() time.Time {
	return s.now()
}

// CreateOutput es el resultado de CreateForPet; el handler le suma el PNG
// del QR renderizado.
type CreateOutput struct {
	Token            ShareToken
	AccessURL        string
	ExpiresInMinutes int
}

// CreateForPet revoca cualquier token activo de la mascota y emite uno nuevo.
// La desactivación y el insert son una sola unidad atómica del repo, así dos
// creaciones concurrentes sobre la misma mascota nunca dejan dos activos.
func (s *Service) CreateForPet(ctx context.Context, petID, createdByIP string) (CreateOutput, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return CreateOutput{}, ErrInvalidInput
	}

	value, err := s.newToken()
	if err != nil {
		return CreateOutput{}, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	t := ShareToken{
		ID:          uuid.NewString(),
		Token:       value,
		PetID:       petID,
		ExpiresAt:   now.Add(s.ttl),
		IsActive:    true,
		CreatedByIP: strings.TrimSpace(createdByIP),
		CreatedAt:   now,
	}

	if err := s.repo.InsertExclusive(ctx, t); err != nil {
		return CreateOutput{}, err
	}

	return CreateOutput{
		Token:            t,
		AccessURL:        s.baseURL + "/qr/access/" + t.Token,
		ExpiresInMinutes: int(s.ttl.Minutes()),
	}, nil
}

// Validate es multi-uso: validar no consume el token; sigue sirviendo hasta
// vencer o ser revocado. El update de last_used_at es best-effort: si falla
// se loguea y la lectura igual sale bien.
func (s *Service) Validate(ctx context.Context, token string) (ShareToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ShareToken{}, ErrTokenNotFound
	}

	t, err := s.repo.GetByToken(ctx, token)
	if errors.Is(err, ErrTokenNotFound) {
		return ShareToken{}, ErrTokenNotFound
	}
	if err != nil {
		return ShareToken{}, fmt.Errorf("get share token: %w", err)
	}

	now := s.now()
	if !t.IsActive {
		return ShareToken{}, ErrTokenRevoked
	}
	if t.Expired(now) {
		return ShareToken{}, ErrTokenExpired
	}

	if err := s.repo.TouchLastUsed(ctx, token, now); err != nil {
		s.log.Warn("share token last_used_at update failed", map[string]any{
			"pet_id": t.PetID,
			"err":    err.Error(),
		})
	} else {
		t.LastUsedAt = &now
	}

	return t, nil
}

// Deactivate es idempotente: sobre un token ya inactivo devuelve found=true
// sin error. found=false solo si el token no existe.
func (s *Service) Deactivate(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	return s.repo.DeactivateByToken(ctx, token)
}

// DeactivateAllForPet revoca todos los tokens activos de la mascota.
func (s *Service) DeactivateAllForPet(ctx context.Context, petID string) (int, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.DeactivateAllForPet(ctx, petID)
}

func (s *Service) ListActive(ctx context.Context, petID string) ([]ShareToken, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByPet(ctx, petID, s.now())
}

// SweepExpired borra filas vencidas. Es mantenimiento puro: un token vencido
// ya falla Validate aunque la fila siga existiendo; esto solo acota el
// crecimiento de la tabla.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// newTokenValue genera 32 bytes aleatorios (256 bits) en hex.
func newTokenValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
