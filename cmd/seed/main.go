// Seeds users and groups with their house rules from a YAML file and prints an access token per
// user. Meant for development and demos, running it twice fails on the already existing groups.
//
//	DATABASE_DRIVER=sqlite JWT_SECRET=secret go run ./cmd/seed -file seed.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tally-app/tally/pkg/config"
	"github.com/tally-app/tally/pkg/group"
	"github.com/tally-app/tally/pkg/storage"
	"github.com/tally-app/tally/pkg/token/helper"
	"github.com/tally-app/tally/pkg/user"

	"gopkg.in/yaml.v3"
)

func main() {
	path := flag.String("file", "", "Path to the YAML file describing users and groups")
	tokenTTL := flag.Int("token-ttl", 24*60*60, "Seconds until the printed access tokens expire")
	flag.Parse()

	if err := run(*path, *tokenTTL); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string, tokenTTL int) error {
	if path == "" {
		return fmt.Errorf("missing -file")
	}
	secret, ok := os.LookupEnv("JWT_SECRET")
	if !ok {
		return fmt.Errorf("required environment variable %q not set", "JWT_SECRET")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %v", path, err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %q: %v", path, err)
	}

	databaseConfig, err := config.NewDatabase()
	if err != nil {
		return err
	}
	logger := slog.Default()
	db, err := storage.NewDatabase(logger, databaseConfig)
	if err != nil {
		return err
	}

	s := seeder{
		logger:       logger,
		userService:  user.NewService(user.NewRepository(db)),
		groupService: group.NewService(logger, group.NewRepository(db)),
	}
	users, err := s.seed(context.Background(), file)
	if err != nil {
		return err
	}

	for _, u := range users {
		token, err := helper.GenerateAccessToken(u.ID, secret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", u.Email, token.SignedString)
	}
	return nil
}
