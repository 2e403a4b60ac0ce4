package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"

	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) create(ctx context.Context, u *model.User) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(&u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("user %q already exists", u.Email)
	}

	return err
}

func (r repository) findById(ctx context.Context, id uint) (*model.User, error) {
	var u *model.User
	err := r.db.
		WithContext(ctx).
		First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find user with id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user with id %d: %v", id, err)
	}
	return u, nil
}

func (r repository) findByEmail(ctx context.Context, email string) (*model.User, error) {
	var u *model.User
	err := r.db.
		WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find user with email %q", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user with email %q: %v", email, err)
	}
	return u, nil
}

func (r repository) findOrCreate(ctx context.Context, user *model.User) (*model.User, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	var u *model.User
	err := r.db.
		WithContext(ctx).
		Where(model.User{Email: user.Email}).
		Attrs(model.User{Name: user.Name}).
		FirstOrCreate(&u).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find or create user %q: %v", user.Email, err)
	}
	return u, nil
}
