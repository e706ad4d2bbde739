// Command token registers campus identities and issues their access tokens.
//
//	token -enrollment 2024001                      issue a token for an existing identity
//	token -create -name "Ana" -enrollment 2024001 -unit eng -sub-unit cs -level 3
//	token -create -name "Guard" -enrollment S-01 -role security
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/auth"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/config"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/database"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	create := flag.Bool("create", false, "Register the identity before issuing the token")
	name := flag.String("name", "", "Display name (with -create)")
	enrollment := flag.String("enrollment", "", "Enrollment number")
	email := flag.String("email", "", "Email (with -create)")
	role := flag.String("role", string(domain.RoleMember), "member, admin or security (with -create)")
	unit := flag.String("unit", "", "Unit tag (with -create)")
	subUnit := flag.String("sub-unit", "", "Sub-unit tag (with -create)")
	level := flag.String("level", "", "Level tag (with -create)")
	flag.Parse()

	if strings.TrimSpace(*enrollment) == "" {
		return errors.New("-enrollment is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer pool.Close()

	identities := repository.NewIdentityRepository(pool)

	var identity *domain.Identity
	if *create {
		identity, err = newIdentity(*name, *enrollment, *email, *role, *unit, *subUnit, *level)
		if err != nil {
			return err
		}
		if err := identities.Create(ctx, identity); err != nil {
			return fmt.Errorf("failed to create identity: %w", err)
		}
	} else {
		identity, err = identities.GetByEnrollmentNumber(ctx, *enrollment)
		if err != nil {
			return fmt.Errorf("failed to find identity %q: %w", *enrollment, err)
		}
	}

	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	token, err := tokens.GenerateToken(identity.ID, identity.Role)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Printf("IDENTITY_ID=%s\nROLE=%s\nTOKEN=%s\n", identity.ID, identity.Role, token)
	return nil
}

func newIdentity(name, enrollment, email, role, unit, subUnit, level string) (*domain.Identity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("-name is required with -create")
	}

	r := domain.Role(role)
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	tags := domain.Tags{}
	for kind, value := range map[domain.TagKind]string{
		domain.TagUnit:    unit,
		domain.TagSubUnit: subUnit,
		domain.TagLevel:   level,
	} {
		if value = strings.TrimSpace(value); value != "" {
			tags[kind] = value
		}
	}

	return &domain.Identity{
		Name:             strings.TrimSpace(name),
		EnrollmentNumber: strings.TrimSpace(enrollment),
		Email:            strings.TrimSpace(email),
		Role:             r,
		Tags:             tags,
	}, nil
}
