package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tally-app/tally/pkg/group"
	"github.com/tally-app/tally/pkg/model"
	"github.com/tally-app/tally/pkg/user"
)

type seedFile struct {
	Users  []seedUser  `yaml:"users"`
	Groups []seedGroup `yaml:"groups"`
}

type seedUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type seedGroup struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Creator is the email of the user creating the group
	Creator string `yaml:"creator"`
	// Members are the emails of the users joining the group
	Members []string   `yaml:"members"`
	Rules   []seedRule `yaml:"rules"`
}

type seedRule struct {
	Description   string `yaml:"description"`
	Points        int    `yaml:"points"`
	VetoThreshold uint   `yaml:"vetoThreshold"`
}

type seeder struct {
	logger       *slog.Logger
	userService  *user.Service
	groupService *group.Service
}

// seed creates the users of file unless they exist and then the groups. Users are returned in the
// order of the file.
func (s seeder) seed(ctx context.Context, file seedFile) ([]*model.User, error) {
	users := make([]*model.User, len(file.Users))
	for i, u := range file.Users {
		created, err := s.userService.FindOrCreate(ctx, u.Name, u.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %q: %w", u.Email, err)
		}
		users[i] = created
	}

	lookup := func(email string) (*model.User, error) {
		u, err := s.userService.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("unknown user %q: %w", email, err)
		}
		return u, nil
	}

	for _, g := range file.Groups {
		creator, err := lookup(g.Creator)
		if err != nil {
			return nil, err
		}

		rules := make([]model.Rule, len(g.Rules))
		for i, r := range g.Rules {
			rules[i] = model.Rule{
				Description:   r.Description,
				Points:        r.Points,
				VetoThreshold: r.VetoThreshold,
			}
		}

		created, err := s.groupService.Create(ctx, creator, g.Name, g.Description, rules)
		if err != nil {
			return nil, fmt.Errorf("failed to seed group %q: %w", g.Name, err)
		}

		for _, email := range g.Members {
			member, err := lookup(email)
			if err != nil {
				return nil, err
			}
			if _, err := s.groupService.Join(ctx, created.JoinCode, member); err != nil {
				return nil, fmt.Errorf("failed to add %q to group %q: %w", email, g.Name, err)
			}
		}

		s.logger.InfoContext(ctx, "Seeded group", "name", created.Name, "joinCode", created.JoinCode, "members", len(g.Members)+1, "rules", len(rules))
	}

	return users, nil
}
