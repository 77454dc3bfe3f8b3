package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	cost     int
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, cost: bcrypt.DefaultCost}
}

// RegisterUser crea un usuario vendedor: hashea password con bcrypt y persiste. Devuelve ErrEmailAlreadyExists si el email ya existe.
// Otros roles solo se otorgan con AssignRole o EnsureAdmin.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	user, err := uc.createUser(ctx, in, entity.RoleVendedor)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (uc *AuthUseCase) createUser(ctx context.Context, in dto.RegisterRequest, role string) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := in.Name
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AssignRole cambia el rol de un usuario existente. El token vigente conserva el rol anterior hasta expirar.
func (uc *AuthUseCase) AssignRole(ctx context.Context, userID string, in dto.AssignRoleRequest) (*dto.UserResponse, error) {
	if !entity.IsValidRole(in.Role) {
		return nil, domain.NewValidationError("role", in.Role, "debe ser admin, bodeguero o vendedor")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.userRepo.UpdateRole(ctx, userID, in.Role); err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return toUserResponse(user), nil
}

// EnsureAdmin garantiza que exista un admin con ese email: lo crea o, si ya está registrado, lo promueve.
// La contraseña de una cuenta existente no se toca.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		user, err := uc.createUser(ctx, dto.RegisterRequest{Email: email, Password: password}, entity.RoleAdmin)
		if err != nil {
			return nil, err
		}
		return toUserResponse(user), nil
	}
	if existing.Role == entity.RoleAdmin {
		return toUserResponse(existing), nil
	}
	return uc.AssignRole(ctx, existing.ID, dto.AssignRoleRequest{Role: entity.RoleAdmin})
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
