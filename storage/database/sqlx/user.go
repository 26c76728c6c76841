package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/user"
)

const userColumns = "id, name, email, role, is_active, password_hash, created_at, updated_at"

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)
	usr.ID = uuid.New().String()
	usr.CreatedAt = usr.CreatedAt.UTC()
	usr.UpdatedAt = usr.UpdatedAt.UTC()

	q := exe.Rebind("INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := exe.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		return user.User{}, trapUniqueErr(err, user.ErrEmailExists, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, exe core.DBExecutor, where string, arg interface{}) (user.User, error) {
	var usr user.User
	q := exe.Rebind("SELECT " + userColumns + " FROM users WHERE " + where + " = ?")
	if err := exe.GetContext(ctx, &usr, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by "+where)
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, repo.getExec(exec), "id", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, repo.getExec(exec), "email", email)
}

func (repo userRepository) UpdatePassword(ctx context.Context, id, passwordHash string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, passwordHash, core.Now(), id)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	return mustAffect(res, user.ErrNotFound)
}
