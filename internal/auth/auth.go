package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/store"
	"github.com/yourorg/credenciales/internal/validation"
)

// MinPasswordLength es el largo mínimo de contraseña al registrarse.
const MinPasswordLength = 8

// Claims son los datos que viajan en el JWT.
type Claims struct {
	Email string      `json:"email"`
	Rol   models.Role `json:"rol"`
	jwt.RegisteredClaims
}

// Tokens firma y verifica JWT HS256.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(u models.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		Email: u.Email,
		Rol:   u.Rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifica firma, algoritmo y vencimiento. Cualquier falla es
// Unauthorized.
func (t *Tokens) Parse(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Claims{}, apperr.Wrap(apperr.Unauthorized, err, "token inválido o vencido")
	}
	if claims.Subject == "" {
		return Claims{}, apperr.New(apperr.Unauthorized, "token sin usuario")
	}
	return claims, nil
}

type userRepository interface {
	Insert(ctx context.Context, u models.User) error
	Get(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// Service registra invitados y autentica usuarios.
type Service struct {
	users  userRepository
	tokens *Tokens
	log    *zap.Logger
	cost   int
}

func NewService(users userRepository, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

func (s *Service) Tokens() *Tokens { return s.tokens }

// Register crea una cuenta de invitado y devuelve su token.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.LoginResponse, error) {
	u, err := s.CreateUser(ctx, req, models.RoleInvitado)
	if err != nil {
		return models.LoginResponse{}, err
	}
	return s.respond(u)
}

// CreateUser valida y guarda un usuario con el rol indicado. El CLI lo usa
// para crear administradores.
func (s *Service) CreateUser(ctx context.Context, req models.RegisterRequest, rol models.Role) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	nombre := validation.CleanText(req.Nombre)

	errs := validation.Errors{}
	if errs.Required("email", email) {
		if _, err := mail.ParseAddress(email); err != nil {
			errs.Add("email", "email inválido")
		}
	}
	errs.Name("nombre", nombre)
	if len(req.Password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("debe tener al menos %d caracteres", MinPasswordLength))
	}
	if err := errs.Err(); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Internal, err, "")
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Nombre:       nombre,
		PasswordHash: string(hash),
		Rol:          rol,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, apperr.New(apperr.Conflict, "el email %s ya está registrado", email)
		}
		return models.User{}, apperr.Wrap(apperr.Internal, err, "")
	}
	s.log.Info("usuario registrado", zap.String("id", u.ID), zap.String("rol", string(rol)))
	return u, nil
}

// Login compara la contraseña con bcrypt. No distingue email inexistente de
// contraseña incorrecta.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return models.LoginResponse{}, apperr.Invalid(map[string]string{
			"email":    "campo obligatorio",
			"password": "campo obligatorio",
		})
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.LoginResponse{}, invalidCredentials()
	}
	if err != nil {
		return models.LoginResponse{}, apperr.Wrap(apperr.Internal, err, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return models.LoginResponse{}, invalidCredentials()
	}
	return s.respond(u)
}

// Me devuelve el usuario del token.
func (s *Service) Me(ctx context.Context, id string) (models.User, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.New(apperr.Unauthorized, "el usuario ya no existe")
	}
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Internal, err, "")
	}
	return u, nil
}

func (s *Service) respond(u models.User) (models.LoginResponse, error) {
	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return models.LoginResponse{}, apperr.Wrap(apperr.Internal, err, "")
	}
	return models.LoginResponse{Token: token, User: u.DTO(), ExpiresAt: expires}, nil
}

func invalidCredentials() error {
	return apperr.New(apperr.Unauthorized, "credenciales inválidas")
}
