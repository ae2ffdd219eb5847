package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for password hashing
	BcryptCost = 10

	// DefaultTokenExpiration applies when no expiry is configured
	DefaultTokenExpiration = 12 * time.Hour

	// MinPasswordLength is the shortest accepted staff password
	MinPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// StaffService authenticates staff and manages their accounts
type StaffService interface {
	Login(ctx context.Context, username, password string) (token string, staff *domain.Staff, err error)
	CreateStaff(ctx context.Context, username, password, displayName, role string) (*domain.Staff, error)
	ValidateToken(tokenString string) (*Claims, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error)
}

// Claims represents the JWT claims
type Claims struct {
	StaffID uuid.UUID `json:"staff_id"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

type staffService struct {
	store       repository.Store
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewStaffService creates a new instance of StaffService
func NewStaffService(store repository.Store, jwtSecret string, tokenExpiry time.Duration) StaffService {
	if tokenExpiry <= 0 {
		tokenExpiry = DefaultTokenExpiration
	}
	return &staffService{
		store:       store,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

// Login authenticates a staff member and returns a signed access token
func (s *staffService) Login(ctx context.Context, username, password string) (string, *domain.Staff, error) {
	staff, err := s.store.Repos().Staff.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, storeErr("find staff", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(staff)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, staff, nil
}

// CreateStaff creates a new staff account with a hashed password
func (s *staffService) CreateStaff(ctx context.Context, username, password, displayName, role string) (*domain.Staff, error) {
	username = strings.TrimSpace(username)
	if role == "" {
		role = domain.RoleUser
	}

	issues := domain.NewValidationError()
	if username == "" {
		issues.Add("username is required")
	}
	if len(password) < MinPasswordLength {
		issues.Add("password must be at least %d characters", MinPasswordLength)
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		issues.Add("unknown role %q", role)
	}
	if err := issues.OrNil(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	staff := &domain.Staff{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashed),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Repos().Staff.Create(ctx, staff); err != nil {
		return nil, storeErr("create staff", err)
	}

	return staff, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *staffService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetStaffByID retrieves a staff account by ID
func (s *staffService) GetStaffByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	staff, err := s.store.Repos().Staff.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find staff", err)
	}
	return staff, nil
}

// generateAccessToken signs a token carrying the staff ID and role
func (s *staffService) generateAccessToken(staff *domain.Staff) (string, error) {
	now := time.Now()
	claims := &Claims{
		StaffID: staff.ID,
		Role:    staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
