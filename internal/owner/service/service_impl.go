package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/breakeven/internal/auth/password"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/pkg/db"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("owner.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Owner, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, domain.ErrInvalidPassword
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	owner := &domain.Owner{
		ID:           oid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		BusinessName: strings.TrimSpace(req.BusinessName),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, owner); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("owner created", zap.String("owner_id", owner.ID.String()))
	return owner, nil
}

func (s *Service) Get(ctx context.Context, id oid.ID) (*domain.Owner, error) {
	if id.IsZero() {
		return nil, domain.ErrNotFound
	}
	owner, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domain.ErrNotFound
	}
	return owner, nil
}

func (s *Service) Active(ctx context.Context, id oid.ID) (*domain.Owner, error) {
	owner, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owner.IsActive {
		return nil, domain.ErrInactive
	}
	return owner, nil
}

func (s *Service) Authenticate(ctx context.Context, email, pw string) (*domain.Owner, error) {
	owner, err := s.repo.FindByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.PasswordHash == "" || !password.Verify(pw, owner.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !owner.IsActive {
		return nil, domain.ErrInactive
	}
	return owner, nil
}
