package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/competency-advisor/internal/data/dberr"
	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/platform/sessioncache"
)

const maxBcryptBytes = 72

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errInvalidSession     = errors.New("invalid or expired session")
)

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Employee  *types.Employee `json:"employee"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate resolves a token to an employee id; ok is false for
	// unknown, revoked and expired tokens.
	Authenticate(ctx context.Context, token string) (employeeID int64, ok bool, err error)
	SetContextFromToken(ctx context.Context, token string) (context.Context, error)
	Logout(ctx context.Context, token string) error
	CreateEmployee(ctx context.Context, email, password, firstName, lastName string) (*types.Employee, error)
	GetEmployee(ctx context.Context, employeeID int64) (*types.Employee, error)
	SetPassword(ctx context.Context, email, password string) error
	// PruneSessions deletes expired session rows and returns how many.
	PruneSessions(ctx context.Context) (int64, error)
	SessionTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	employeeRepo repos.EmployeeRepo
	sessionRepo  repos.SessionRepo
	cache        sessioncache.Cache
	jwtSecretKey []byte
	sessionTTL   time.Duration
	now          func() time.Time
}

func NewAuthService(
	log *logger.Logger,
	employeeRepo repos.EmployeeRepo,
	sessionRepo repos.SessionRepo,
	cache sessioncache.Cache,
	jwtSecretKey string,
	sessionTTL time.Duration,
) AuthService {
	if cache == nil {
		cache = sessioncache.Nop{}
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		employeeRepo: employeeRepo,
		sessionRepo:  sessionRepo,
		cache:        cache,
		jwtSecretKey: []byte(jwtSecretKey),
		sessionTTL:   sessionTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) SessionTTL() time.Duration { return as.sessionTTL }

func (as *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_credentials", nil)
	}
	emp, err := as.employeeRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		return nil, internalError("load_employee_failed", err)
	}
	if emp == nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", errInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.Password), truncatePassword(password)); err != nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", errInvalidCredentials)
	}

	now := as.now()
	session := &types.EmployeeSession{
		Token:      uuid.New().String(),
		EmployeeID: emp.ID,
		ExpiresAt:  now.Add(as.sessionTTL),
	}
	if _, err := as.sessionRepo.Create(dbctx.New(ctx), session); err != nil {
		return nil, internalError("create_session_failed", err)
	}
	signed, err := as.sign(emp.ID, session.Token, now, session.ExpiresAt)
	if err != nil {
		return nil, internalError("sign_token_failed", err)
	}
	if err := as.cache.Set(ctx, session.Token, emp.ID, as.sessionTTL); err != nil {
		as.log.Warn("Session cache set failed", "error", err)
	}
	as.log.Info("Employee logged in", "employee_id", emp.ID, "session_id", session.Token)
	return &LoginResult{Token: signed, ExpiresAt: session.ExpiresAt, Employee: emp}, nil
}

func (as *authService) sign(employeeID int64, sessionID string, now, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(employeeID, 10),
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}

// parse validates signature and, unless skipExpiry, expiry.
func (as *authService) parse(token string, skipExpiry bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.now),
	}
	if skipExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return as.jwtSecretKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("token missing session claims")
	}
	return claims, nil
}

func (as *authService) Authenticate(ctx context.Context, token string) (int64, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false, nil
	}
	claims, err := as.parse(token, false)
	if err != nil {
		as.log.Debug("Rejected token", "error", err)
		return 0, false, nil
	}
	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject <= 0 {
		return 0, false, nil
	}

	if id, ok, err := as.cache.Get(ctx, claims.ID); err != nil {
		as.log.Warn("Session cache get failed", "error", err)
	} else if ok {
		if id != subject {
			return 0, false, nil
		}
		return id, true, nil
	}

	session, err := as.sessionRepo.GetActive(dbctx.New(ctx), claims.ID, as.now())
	if err != nil {
		return 0, false, internalError("load_session_failed", err)
	}
	if session == nil || session.EmployeeID != subject {
		return 0, false, nil
	}
	if ttl := session.ExpiresAt.Sub(as.now()); ttl > 0 {
		if err := as.cache.Set(ctx, claims.ID, session.EmployeeID, ttl); err != nil {
			as.log.Warn("Session cache set failed", "error", err)
		}
	}
	return session.EmployeeID, true, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	id, ok, err := as.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}
	if !ok {
		return ctx, apierr.New(http.StatusUnauthorized, "unauthorized", errInvalidSession)
	}
	claims, _ := as.parse(token, true)
	rd := &ctxutil.RequestData{TokenString: token, EmployeeID: id}
	if claims != nil {
		rd.SessionID = claims.ID
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

// Logout revokes the session even if the token has already expired.
func (as *authService) Logout(ctx context.Context, token string) error {
	claims, err := as.parse(strings.TrimSpace(token), true)
	if err != nil {
		return apierr.New(http.StatusUnauthorized, "unauthorized", errInvalidSession)
	}
	if err := as.cache.Delete(ctx, claims.ID); err != nil {
		as.log.Warn("Session cache delete failed", "error", err)
	}
	if err := as.sessionRepo.Delete(dbctx.New(ctx), claims.ID); err != nil {
		return internalError("logout_failed", err)
	}
	return nil
}

func (as *authService) CreateEmployee(ctx context.Context, email, password, firstName, lastName string) (*types.Employee, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.New(http.StatusBadRequest, "invalid_email", nil)
	}
	if len(password) < 8 {
		return nil, apierr.New(http.StatusBadRequest, "weak_password", errors.New("password must be at least 8 characters"))
	}
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError("hash_password_failed", err)
	}
	emp, err := as.employeeRepo.Create(dbctx.New(ctx), &types.Employee{
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	})
	if err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, apierr.New(http.StatusConflict, "email_taken", err)
		}
		return nil, internalError("create_employee_failed", err)
	}
	return emp, nil
}

func (as *authService) GetEmployee(ctx context.Context, employeeID int64) (*types.Employee, error) {
	emp, err := as.employeeRepo.GetByID(dbctx.New(ctx), employeeID)
	if err != nil {
		return nil, internalError("load_employee_failed", err)
	}
	if emp == nil {
		return nil, apierr.New(http.StatusNotFound, "employee_not_found", nil)
	}
	return emp, nil
}

func (as *authService) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < 8 {
		return apierr.New(http.StatusBadRequest, "weak_password", errors.New("password must be at least 8 characters"))
	}
	dbc := dbctx.New(ctx)
	emp, err := as.employeeRepo.GetByEmail(dbc, email)
	if err != nil {
		return internalError("load_employee_failed", err)
	}
	if emp == nil {
		return apierr.New(http.StatusNotFound, "employee_not_found", nil)
	}
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return internalError("hash_password_failed", err)
	}
	if err := as.employeeRepo.UpdatePassword(dbc, emp.ID, string(hash)); err != nil {
		return internalError("update_password_failed", err)
	}
	as.log.Info("Password updated", "employee_id", emp.ID)
	return nil
}

func (as *authService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := as.sessionRepo.DeleteExpired(dbctx.New(ctx), as.now())
	if err != nil {
		return 0, internalError("prune_sessions_failed", err)
	}
	return n, nil
}

// truncatePassword keeps the first 72 bytes, the most bcrypt reads.
func truncatePassword(p string) []byte {
	b := []byte(p)
	if len(b) > maxBcryptBytes {
		b = b[:maxBcryptBytes]
	}
	return b
}
