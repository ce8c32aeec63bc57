package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/service"
	"care-booking-marketplace/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrUserNotFound         = errors.New("user not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrLicenseAlreadyExists = errors.New("license number already exists")
	ErrAccountInactive      = errors.New("account is inactive")
)

// AccessTokenKey is the Redis key marking an access token as not revoked
func AccessTokenKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("access_token:%s:%s", userID.String(), tokenID)
}

// RefreshTokenKey is the Redis key marking a refresh token as not revoked
func RefreshTokenKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("refresh_token:%s:%s", userID.String(), tokenID)
}

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	RegisterProvider(ctx context.Context, req *dto.RegisterProviderRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authUsecase struct {
	db                  *gorm.DB
	log                 *logrus.Logger
	userRepo            repository.UserRepository
	providerProfileRepo repository.ProviderProfileRepository
	patientProfileRepo  repository.PatientProfileRepository
	auditService        service.AuditService
	jwtService          *jwt.JWTService
	redisClient         *redis.Client
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	providerProfileRepo repository.ProviderProfileRepository,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
) AuthUsecase {
	return &authUsecase{
		db:                  db,
		log:                 log,
		userRepo:            userRepo,
		providerProfileRepo: providerProfileRepo,
		patientProfileRepo:  patientProfileRepo,
		auditService:        auditService,
		jwtService:          jwtService,
		redisClient:         redisClient,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	user, err := u.newUser(req.Email, req.Password, req.FullName, entity.RoleIDPatient)
	if err != nil {
		return nil, err
	}

	profile := &entity.PatientProfile{
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
	if req.Latitude != nil && req.Longitude != nil {
		profile.Latitude = req.Latitude
		profile.Longitude = req.Longitude
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.createUser(ctx, tx, user); err != nil {
			return err
		}

		profile.UserID = user.ID
		if err := u.patientProfileRepo.Create(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to create patient profile: %+v", err)
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &user.ID, entity.AuditActionUserRegister, "user", user.ID.String(),
			map[string]interface{}{"email": user.Email, "role": entity.RolePatient})
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Patient registered: id=%s", user.ID)
	user.PatientProfile = profile
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) RegisterProvider(ctx context.Context, req *dto.RegisterProviderRequest) (*dto.UserResponse, error) {
	user, err := u.newUser(req.Email, req.Password, req.FullName, entity.RoleIDProvider)
	if err != nil {
		return nil, err
	}

	services, err := json.Marshal(req.Services)
	if err != nil {
		return nil, err
	}

	profile := &entity.ProviderProfile{
		Title:          req.Title,
		LicenseNumber:  req.LicenseNumber,
		Specialization: req.Specialization,
		Biography:      req.Biography,
		Services:       datatypes.JSON(services),
	}
	if req.Latitude != nil && req.Longitude != nil {
		profile.Latitude = req.Latitude
		profile.Longitude = req.Longitude
	}
	if req.HourlyRate != nil {
		profile.HourlyRate = *req.HourlyRate
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.createUser(ctx, tx, user); err != nil {
			return err
		}

		profile.UserID = user.ID
		if err := u.providerProfileRepo.Create(ctx, tx, profile); err != nil {
			if isDuplicateKeyError(err, "license_number") {
				return ErrLicenseAlreadyExists
			}
			u.log.Warnf("Failed to create provider profile: %+v", err)
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &user.ID, entity.AuditActionUserRegister, "user", user.ID.String(),
			map[string]interface{}{"email": user.Email, "role": entity.RoleProvider})
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Provider registered: id=%s", user.ID)
	user.ProviderProfile = profile
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) newUser(email, password, fullName string, roleID int) (*entity.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	active := true
	return &entity.User{
		Email:    email,
		Password: string(hashedPassword),
		FullName: fullName,
		RoleID:   roleID,
		IsActive: &active,
	}, nil
}

func (u *authUsecase) createUser(ctx context.Context, tx *gorm.DB, user *entity.User) error {
	if err := u.userRepo.Create(ctx, tx, user); err != nil {
		if isDuplicateKeyError(err, "email") || errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailAlreadyExists
		}
		if isForeignKeyError(err, "role") {
			return ErrRoleNotFound
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// Find user by email (read-only, no transaction needed)
	user, err := u.userRepo.FindByEmail(ctx, u.db, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, ErrAccountInactive
	}

	tokens, err := u.issueTokens(ctx, user.ID, user.Email, user.RoleID)
	if err != nil {
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, u.db, &user.ID, entity.AuditActionUserLogin, "user", user.ID.String(), nil); err != nil {
		u.log.Warnf("Failed to record login of %s: %+v", user.ID, err)
	}

	return tokens, nil
}

// Logout revokes the access token and, when given, the refresh token
func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error {
	keys := []string{AccessTokenKey(userID, accessTokenID)}

	if refreshToken != "" {
		claims, err := u.jwtService.Parse(refreshToken, jwt.RefreshToken)
		if err == nil && claims.UserID == userID {
			keys = append(keys, RefreshTokenKey(userID, claims.TokenID))
		}
	}

	if err := u.redisClient.Del(ctx, keys...).Err(); err != nil {
		u.log.Warnf("Failed to delete tokens: %+v", err)
		return err
	}

	if err := u.auditService.LogDelete(ctx, u.db, &userID, entity.AuditActionUserLogout, "user", userID.String(), nil); err != nil {
		u.log.Warnf("Failed to record logout of %s: %+v", userID, err)
	}
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.Parse(req.RefreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Refresh tokens are single use: deleting the key both checks and revokes it.
	deleted, err := u.redisClient.Del(ctx, RefreshTokenKey(claims.UserID, claims.TokenID)).Result()
	if err != nil {
		u.log.Warnf("Failed to consume refresh token: %+v", err)
		return nil, err
	}
	if deleted == 0 {
		return nil, ErrTokenRevoked
	}

	return u.issueTokens(ctx, claims.UserID, claims.Email, claims.RoleID)
}

func (u *authUsecase) issueTokens(ctx context.Context, userID uuid.UUID, email string, roleID int) (*dto.TokenResponse, error) {
	access, err := u.jwtService.Issue(jwt.AccessToken, userID, email, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refresh, err := u.jwtService.Issue(jwt.RefreshToken, userID, email, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	// Store tokens in Redis
	pipe := u.redisClient.TxPipeline()
	pipe.Set(ctx, AccessTokenKey(userID, access.ID), "valid", access.TTL)
	pipe.Set(ctx, RefreshTokenKey(userID, refresh.ID), "valid", refresh.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		u.log.Warnf("Failed to store tokens in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  access.Signed,
		RefreshToken: refresh.Signed,
		ExpiresIn:    int64(access.TTL.Seconds()),
	}, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}
