package user

import (
	"context"
	"strings"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository userRepository) *Service {
	return &Service{repository: repository}
}

type userRepository interface {
	create(ctx context.Context, u *model.User) error
	findById(ctx context.Context, id uint) (*model.User, error)
	findByEmail(ctx context.Context, email string) (*model.User, error)
	findOrCreate(ctx context.Context, user *model.User) (*model.User, error)
}

// Service keeps the users known to tally. Signing up and signing in is done by an identity provider,
// tally only needs a name and an email to show who's who within a group.
type Service struct {
	repository userRepository
}

func (s Service) Create(ctx context.Context, name, email string) (*model.User, error) {
	user, err := newUser(name, email)
	if err != nil {
		return nil, err
	}

	if err := s.repository.create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s Service) FindById(ctx context.Context, id uint) (*model.User, error) {
	return s.repository.findById(ctx, id)
}

func (s Service) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repository.findByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// FindOrCreate returns the user with the given email creating it if needed. The name of an existing
// user is left as is.
func (s Service) FindOrCreate(ctx context.Context, name, email string) (*model.User, error) {
	user, err := newUser(name, email)
	if err != nil {
		return nil, err
	}

	return s.repository.findOrCreate(ctx, user)
}

func newUser(name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, errdef.NewBadRequest("user name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, errdef.NewBadRequest("invalid email %q", email)
	}

	return &model.User{Name: name, Email: email}, nil
}
