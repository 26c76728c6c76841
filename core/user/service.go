package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.KindNotFound, "user not found")
	ErrEmailExists        = core.NewError(core.KindConflict, "a user with this email already exists")
	ErrInvalidCredentials = core.NewError(core.KindInvalidInput, "invalid credentials")
	ErrAccountDeactivated = core.NewError(core.KindForbidden, "account deactivated")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		UpdatePassword(ctx context.Context, id, passwordHash string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Register creates a student or instructor account.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	return svc.create(ctx, nu.Name, nu.Email, nu.Password, nu.Role)
}

// CreateUser creates an account with any role. It skips the registration password policy.
func (svc *Service) CreateUser(ctx context.Context, name, email, pwd, role string) (User, error) {
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	if err := svc.validate.Var(email, "required,email"); err != nil {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "email", Error: "invalid email"})
	}
	if name == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	if pwd == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: "this field is required"})
	}
	if !(core.Principal{Role: role}).HasAnyRole(core.AllRoles...) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}
	return svc.create(ctx, name, email, pwd, role)
}

func (svc *Service) create(ctx context.Context, name, email, pwd, role string) (User, error) {
	now := core.Now()
	usr := User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate checks the credentials and returns the matching active user.
func (svc *Service) Authenticate(ctx context.Context, lr LoginRequest) (User, error) {
	if err := lr.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByEmail(ctx, lr.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(lr.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// ResetPassword sets a new password for the user identified by email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdatePassword(ctx, usr.ID, usr.PasswordHash)
}
