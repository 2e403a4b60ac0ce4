package group

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"
	"github.com/tally-app/tally/pkg/rule"

	"github.com/gosimple/slug"
	"golang.org/x/exp/slices"
)

const (
	joinCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeLength      = 6
	joinCodeMaxAttempts = 10
	minNameLength       = 3
	maxNameLength       = 50
	maxDescriptionLen   = 200
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, groupRepository groupRepository) *Service {
	return &Service{
		logger:          logger,
		groupRepository: groupRepository,
	}
}

type groupRepository interface {
	find(ctx context.Context, id uint) (*model.Group, error)
	findWithDetails(ctx context.Context, id uint) (*model.Group, error)
	findByJoinCode(ctx context.Context, joinCode string) (*model.Group, error)
	joinCodeExists(ctx context.Context, joinCode string) (bool, error)
	findAllByUser(ctx context.Context, userID uint) ([]membership, error)
	create(ctx context.Context, group *model.Group) error
	addMember(ctx context.Context, member *model.Member) error
}

// Service manages groups and their roster of members.
type Service struct {
	logger          *slog.Logger
	groupRepository groupRepository
}

// Find returns the group with its members.
func (s *Service) Find(ctx context.Context, id uint) (*model.Group, error) {
	return s.groupRepository.find(ctx, id)
}

// RequireMember returns the group with its members if userID is one of them.
func (s *Service) RequireMember(ctx context.Context, groupID, userID uint) (*model.Group, error) {
	group, err := s.groupRepository.find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !group.IsMember(userID) {
		return nil, errdef.NewForbidden("access denied: user %d is not a member of group %d", userID, groupID)
	}

	return group, nil
}

// FindWithMembers returns the group with its rules and its members ordered by total points. Only
// members of the group can see it.
func (s *Service) FindWithMembers(ctx context.Context, groupID, requesterID uint) (*model.Group, error) {
	group, err := s.groupRepository.findWithDetails(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !group.IsMember(requesterID) {
		return nil, errdef.NewForbidden("access denied: user %d is not a member of group %d", requesterID, groupID)
	}

	slices.SortStableFunc(group.Members, func(a, b model.Member) int {
		return b.TotalPoints - a.TotalPoints
	})

	return group, nil
}

// Summary is a group as seen by one of its members.
type Summary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	JoinCode    string    `json:"joinCode"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	MemberCount int64     `json:"memberCount"`
	UserPoints  int       `json:"userPoints"`
}

// FindAllByUser returns the groups the user is a member of, newest first.
func (s *Service) FindAllByUser(ctx context.Context, userID uint) ([]Summary, error) {
	memberships, err := s.groupRepository.findAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(memberships))
	for i, m := range memberships {
		summaries[i] = Summary{
			ID:          m.ID,
			Name:        m.Name,
			Slug:        m.Slug,
			Description: m.Description,
			JoinCode:    m.JoinCode,
			IsActive:    m.IsActive,
			CreatedAt:   m.CreatedAt,
			MemberCount: m.MemberCount,
			UserPoints:  m.UserPoints,
		}
	}

	return summaries, nil
}

// Create creates a group with the given rules. The creator becomes its first member.
func (s *Service) Create(ctx context.Context, creator *model.User, name, description string, rules []model.Rule) (*model.Group, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return nil, errdef.NewBadRequest("group name must be between %d and %d characters", minNameLength, maxNameLength)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, errdef.NewBadRequest("group description must be at most %d characters", maxDescriptionLen)
	}
	for _, r := range rules {
		if err := rule.Validate(r); err != nil {
			return nil, err
		}
	}

	joinCode, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	group := &model.Group{
		Name:        name,
		Slug:        slug.Make(name),
		Description: description,
		JoinCode:    joinCode,
		CreatedBy:   creator.ID,
		IsActive:    true,
		Members: []model.Member{
			{
				UserID: creator.ID,
				Name:   creator.Name,
				Email:  creator.Email,
			},
		},
		Rules: rules,
	}

	if err := s.groupRepository.create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Created group", "groupId", group.ID, "rules", len(rules))
	return group, nil
}

func (s *Service) uniqueJoinCode(ctx context.Context) (string, error) {
	for range joinCodeMaxAttempts {
		code, err := generateJoinCode()
		if err != nil {
			return "", err
		}

		exists, err := s.groupRepository.joinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique join code in %d attempts", joinCodeMaxAttempts)
}

func generateJoinCode() (string, error) {
	var sb strings.Builder
	alphabetSize := big.NewInt(int64(len(joinCodeAlphabet)))
	for range joinCodeLength {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %v", err)
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Join adds user to the group with the given join code. Name and email of the user are kept as they
// are at the time of joining.
func (s *Service) Join(ctx context.Context, joinCode string, user *model.User) (*model.Group, error) {
	group, err := s.groupRepository.findByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(joinCode)))
	if err != nil {
		return nil, err
	}

	if !group.IsActive {
		return nil, errdef.NewForbidden("group %d is not active", group.ID)
	}

	if group.IsMember(user.ID) {
		return nil, errdef.NewDuplicated("user %d is already a member of group %d", user.ID, group.ID)
	}

	member := &model.Member{
		GroupID: group.ID,
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
	}
	if err := s.groupRepository.addMember(ctx, member); err != nil {
		return nil, err
	}
	group.Members = append(group.Members, *member)

	s.logger.InfoContext(ctx, "User joined group", "groupId", group.ID, "userId", user.ID)
	return group, nil
}
