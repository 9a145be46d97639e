package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"storyhub/internal/config"
	"storyhub/internal/identity"
	"storyhub/internal/models"
	"storyhub/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, req repository.CreateUserRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	IdentityFromToken(tokenString string) (identity.Identity, error)
}

type authService struct {
	userRepo  repository.UserRepository
	publisher ChangePublisher
	cfg       *config.Config
	log       zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, publisher ChangePublisher, cfg *config.Config, log zerolog.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Register creates an account. The bootstrap admin email gets the admin role
// at creation; every other account starts as an author.
func (s *authService) Register(ctx context.Context, req repository.CreateUserRequest) (*models.User, error) {
	existingUser, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err == nil && existingUser != nil {
		return nil, fmt.Errorf("%s: %w", req.Email, repository.ErrEmailTaken)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	refreshToken, refreshTokenExpiry := s.generateRefreshToken()

	role := models.RoleAuthor
	if s.cfg.AdminEmail != "" && strings.EqualFold(strings.TrimSpace(req.Email), s.cfg.AdminEmail) {
		role = models.RoleAdmin
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.Split(req.Email, "@")[0]
	}

	user := &models.User{
		Email:                  req.Email,
		DisplayName:            displayName,
		Role:                   role,
		RefreshToken:           refreshToken,
		RefreshTokenExpiryTime: refreshTokenExpiry,
	}

	err = s.userRepo.CreateUser(ctx, user, req.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	s.log.Info().Str("user_id", user.UserID).Str("role", string(role)).Msg("Пользователь зарегистрирован")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, userChange(user.UserID)); err != nil {
			s.log.Warn().Err(err).Msg("Не удалось опубликовать изменение")
		}
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка генерации access token: %w", err)
	}

	refreshToken, refreshTokenExpiry := s.generateRefreshToken()

	err = s.userRepo.UpdateRefreshToken(ctx, user.UserID, refreshToken, refreshTokenExpiry)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка сохранения refresh token: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка генерации access token: %w", err)
	}

	newRefreshToken, refreshTokenExpiry := s.generateRefreshToken()

	err = s.userRepo.UpdateRefreshToken(ctx, user.UserID, newRefreshToken, refreshTokenExpiry)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка обновления refresh token: %w", err)
	}

	return user, accessToken, newRefreshToken, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.UserID,
		"email":  user.Email,
		"name":   user.DisplayName,
		"role":   string(user.Role),
		"exp":    time.Now().Add(s.cfg.AccessTokenDuration).Unix(),
		"iat":    time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return tokenString, nil
}

func (s *authService) generateRefreshToken() (string, time.Time) {
	return uuid.New().String(), time.Now().Add(s.cfg.RefreshTokenDuration)
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return token, nil
}

// IdentityFromToken reads the caller identity out of a signed access token.
func (s *authService) IdentityFromToken(tokenString string) (identity.Identity, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return identity.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Identity{}, fmt.Errorf("%w: неверный формат claims", ErrInvalidToken)
	}

	userID, _ := claims["userId"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	if userID == "" || !models.Role(role).Valid() {
		return identity.Identity{}, fmt.Errorf("%w: неполные claims", ErrInvalidToken)
	}

	return identity.Identity{
		UserID:      userID,
		Email:       email,
		DisplayName: name,
		Role:        models.Role(role),
	}, nil
}
