package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"admissions-advisor/internal/model"
	"admissions-advisor/internal/pkg/jwtutil"
	"admissions-advisor/internal/repository"
)

var (
	ErrStaffExists       = errors.New("username or email already in use")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrStaffDisabled     = errors.New("staff account is deactivated")
	ErrNotAdmin          = errors.New("admin role required")
	ErrAlreadyBootstrap  = errors.New("office already has staff accounts")
	ErrStaffNotFound     = errors.New("staff account not found")
)

const minPasswordLen = 8

// AuthService manages admissions-office accounts. There is no public signup:
// Bootstrap creates the first admin while the staff table is empty, and every
// later account is created by an admin. Deactivated accounts cannot log in,
// and the document API re-checks the flag on every request.
type AuthService struct {
	staffRepo     *repository.StaffRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

type StaffInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token string
	Staff *model.Staff
}

func NewAuthService(staffRepo *repository.StaffRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		staffRepo:     staffRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Bootstrap creates the office's first account as admin. It only works while
// no staff exist; afterwards accounts come from CreateStaff.
func (s *AuthService) Bootstrap(input StaffInput) (*AuthResult, error) {
	count, err := s.staffRepo.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyBootstrap
	}

	input.Role = model.StaffRoleAdmin
	staff, err := s.createAccount(input)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(staff)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Staff: staff}, nil
}

// CreateStaff adds an account on behalf of an admin. No token is issued; the
// new member logs in with the credentials handed to them.
func (s *AuthService) CreateStaff(actorID uint, input StaffInput) (*model.Staff, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = model.StaffRoleOfficer
	}
	if !model.ValidStaffRole(input.Role) {
		return nil, ErrInvalidInput
	}
	return s.createAccount(input)
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	staff, err := s.staffRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	if !staff.Active {
		return nil, ErrStaffDisabled
	}

	token, err := s.issueToken(staff)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Staff: staff}, nil
}

// Deactivate disables an account. Admin only; admins cannot deactivate
// themselves, so the office always keeps at least one working admin.
func (s *AuthService) Deactivate(actorID, staffID uint) error {
	if err := s.requireAdmin(actorID); err != nil {
		return err
	}
	if actorID == staffID {
		return ErrInvalidInput
	}

	target, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrStaffNotFound
	}
	return s.staffRepo.SetActive(staffID, false)
}

func (s *AuthService) ListStaff(actorID uint) ([]model.Staff, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	return s.staffRepo.List()
}

func (s *AuthService) GetStaffByID(id uint) (*model.Staff, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.staffRepo.GetByID(id)
}

// IsActive reports whether the account still exists and is enabled. The JWT
// middleware calls this so a deactivation takes effect before token expiry.
func (s *AuthService) IsActive(id uint) (bool, error) {
	staff, err := s.staffRepo.GetByID(id)
	if err != nil {
		return false, err
	}
	return staff != nil && staff.Active, nil
}

func (s *AuthService) createAccount(input StaffInput) (*model.Staff, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if username == "" || email == "" || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}

	for _, lookup := range []func() (*model.Staff, error){
		func() (*model.Staff, error) { return s.staffRepo.GetByUsername(username) },
		func() (*model.Staff, error) { return s.staffRepo.GetByEmail(email) },
	} {
		existing, err := lookup()
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrStaffExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	staff := &model.Staff{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         input.Role,
		Active:       true,
	}
	if err := s.staffRepo.Create(staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *AuthService) requireAdmin(actorID uint) error {
	actor, err := s.staffRepo.GetByID(actorID)
	if err != nil {
		return err
	}
	if actor == nil || !actor.Active {
		return ErrStaffDisabled
	}
	if actor.Role != model.StaffRoleAdmin {
		return ErrNotAdmin
	}
	return nil
}

func (s *AuthService) issueToken(staff *model.Staff) (string, error) {
	return jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, staff.ID, staff.Username, staff.Role)
}
