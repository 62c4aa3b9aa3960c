// Package invite turns single-use tokens into fully provisioned accounts:
// an identity at the external provider, exactly one role row, and a library
// profile. Cleanup on partial failure is ordered compensation (delete the
// identity), not a transaction; single-use correctness rests on the store's
// conditional-update guards.
package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/identity"
	redisstore "github.com/nt8816/bibliotecai-core/internal/store/redis"
)

const (
	// tempEmailDomain hosts the synthetic auth emails of aluno accounts,
	// whose credential is their matricula.
	tempEmailDomain = "temp.bibliotecai.com"

	minCredentialLen = 6

	defaultInviteTTL = 7 * 24 * time.Hour
)

// IdentityProvider abstracts the external identity provider's admin API.
// *identity.Client satisfies this interface.
type IdentityProvider interface {
	CreateUser(ctx context.Context, p identity.CreateUserParams) (*identity.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// EventPublisher abstracts the provisioning-event fanout.
// *redis.PubSub satisfies this interface.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Service performs invite issuance and redemption. Every invocation is a
// stateless request/response; racing redemptions of one token are resolved
// solely by the store's row guards.
type Service struct {
	invites      domain.InviteRepository
	adminInvites domain.AdminInviteRepository
	roles        domain.RoleRepository
	profiles     domain.ProfileRepository
	schools      domain.SchoolRepository
	idp          IdentityProvider
	events       EventPublisher // nil disables event publishing
}

func NewService(
	invites domain.InviteRepository,
	adminInvites domain.AdminInviteRepository,
	roles domain.RoleRepository,
	profiles domain.ProfileRepository,
	schools domain.SchoolRepository,
	idp IdentityProvider,
	events EventPublisher,
) *Service {
	return &Service{
		invites:      invites,
		adminInvites: adminInvites,
		roles:        roles,
		profiles:     profiles,
		schools:      schools,
		idp:          idp,
		events:       events,
	}
}

// RedeemInput carries a generic invite redemption. Staff roles submit
// Email+Password; aluno submits Matricula, from which both are synthesized.
type RedeemInput struct {
	Token     string
	Name      string
	Email     string
	Password  string
	Matricula string
}

// RedeemResult is what the caller needs to complete sign-in. AuthPassword is
// only set for aluno, whose generated credential the caller cannot know.
type RedeemResult struct {
	UserID       uuid.UUID
	Role         domain.Role
	AuthEmail    string
	AuthPassword string
}

// Redeem validates a generic invite token and provisions the account.
func (s *Service) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	inv, err := s.invites.GetRedeemable(ctx, strings.TrimSpace(input.Token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invite.Redeem: %w", ErrInvalidOrExpiredToken)
		}
		return nil, fmt.Errorf("invite.Redeem: %w", err)
	}

	if !inv.Role.Assignable() {
		return nil, fmt.Errorf("invite.Redeem: %w: %q", ErrRoleNotAllowed, inv.Role)
	}

	authEmail, password, matricula, err := deriveCredentials(inv.Role, input)
	if err != nil {
		return nil, fmt.Errorf("invite.Redeem: %w", err)
	}

	user, err := s.provision(ctx, provisionParams{
		role:      inv.Role,
		schoolID:  inv.SchoolID,
		name:      input.Name,
		authEmail: authEmail,
		password:  password,
		matricula: matricula,
	})
	if err != nil {
		return nil, fmt.Errorf("invite.Redeem: %w", err)
	}

	// Token bookkeeping is best-effort: the account is already committed, so
	// a failed consumption is logged and the reuse risk accepted rather than
	// unwinding a valid user.
	if err := s.invites.MarkUsed(ctx, inv.ID, user.ID); err != nil {
		log.Warn().Err(err).
			Str("invite_id", inv.ID.String()).
			Str("user_id", user.ID.String()).
			Msg("invite: failed to mark token consumed")
	}

	s.publishProvisioned(ctx, inv.SchoolID, user.ID, inv.Role, authEmail)

	result := &RedeemResult{UserID: user.ID, Role: inv.Role, AuthEmail: authEmail}
	if inv.Role == domain.RoleAluno {
		result.AuthPassword = password
	}
	return result, nil
}

// AdminRedeemInput carries a gestor invite redemption.
type AdminRedeemInput struct {
	Token    string
	Name     string
	Email    string
	Password string
}

// AdminRedeemResult reports the onboarded tenant-admin account.
type AdminRedeemResult struct {
	UserID          uuid.UUID
	Email           string
	Role            domain.Role
	TenantSubdomain string
}

// RedeemAdmin validates a gestor invite through the privileged lookup and
// provisions the tenant-admin account. On success it consumes the token and
// claims the school's gestor pointer, first writer wins.
func (s *Service) RedeemAdmin(ctx context.Context, input AdminRedeemInput) (*AdminRedeemResult, error) {
	ictx, err := s.adminInvites.LookupContext(ctx, strings.TrimSpace(input.Token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invite.RedeemAdmin: %w", ErrInvalidOrExpiredToken)
		}
		return nil, fmt.Errorf("invite.RedeemAdmin: %w", err)
	}

	authEmail, password, _, err := deriveCredentials(domain.RoleGestor, RedeemInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("invite.RedeemAdmin: %w", err)
	}

	user, err := s.provision(ctx, provisionParams{
		role:      domain.RoleGestor,
		schoolID:  ictx.SchoolID,
		name:      input.Name,
		authEmail: authEmail,
		password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("invite.RedeemAdmin: %w", err)
	}

	if err := s.adminInvites.Consume(ctx, strings.TrimSpace(input.Token), user.ID); err != nil {
		log.Warn().Err(err).
			Str("user_id", user.ID.String()).
			Msg("invite: failed to consume admin invite; a concurrent redemption may have won")
	}

	claimed, err := s.schools.ClaimGestor(ctx, ictx.SchoolID, user.ID)
	if err != nil {
		log.Warn().Err(err).
			Str("escola_id", ictx.SchoolID.String()).
			Msg("invite: failed to claim gestor pointer")
	} else if !claimed {
		log.Debug().
			Str("escola_id", ictx.SchoolID.String()).
			Msg("invite: gestor pointer already claimed")
	}

	s.publishProvisioned(ctx, ictx.SchoolID, user.ID, domain.RoleGestor, authEmail)

	return &AdminRedeemResult{
		UserID:          user.ID,
		Email:           authEmail,
		Role:            domain.RoleGestor,
		TenantSubdomain: ictx.Subdomain,
	}, nil
}

// CreateInvite issues a generic invite for one of the assignable roles.
func (s *Service) CreateInvite(ctx context.Context, schoolID uuid.UUID, role domain.Role, ttl time.Duration) (*domain.Invite, error) {
	if !role.Assignable() {
		return nil, fmt.Errorf("invite.CreateInvite: %w: %q", ErrRoleNotAllowed, role)
	}
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invite.CreateInvite: %w", err)
	}

	now := time.Now()
	inv := &domain.Invite{
		ID:        uuid.New(),
		Token:     token,
		Role:      role,
		SchoolID:  schoolID,
		ExpiresAt: now.Add(ttl),
		Active:    true,
		CreatedAt: now,
	}

	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invite.CreateInvite: %w", err)
	}

	return inv, nil
}

// CreateAdminInvite issues a gestor invite for onboarding a school's
// tenant admin.
func (s *Service) CreateAdminInvite(ctx context.Context, schoolID uuid.UUID, subdomain string, ttl time.Duration) (*domain.AdminInvite, error) {
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invite.CreateAdminInvite: %w", err)
	}

	now := time.Now()
	inv := &domain.AdminInvite{
		ID:        uuid.New(),
		Token:     token,
		SchoolID:  schoolID,
		Subdomain: strings.ToLower(strings.TrimSpace(subdomain)),
		ExpiresAt: now.Add(ttl),
		Active:    true,
		CreatedAt: now,
	}

	if err := s.adminInvites.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invite.CreateAdminInvite: %w", err)
	}

	return inv, nil
}

// ListInvites returns a school's invites, consumed ones included.
func (s *Service) ListInvites(ctx context.Context, schoolID uuid.UUID) ([]*domain.Invite, error) {
	invites, err := s.invites.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("invite.ListInvites: %w", err)
	}
	return invites, nil
}

// deriveCredentials validates and normalizes the credential pair for a role.
// Aluno synthesizes both from the matricula; everyone else submits them.
func deriveCredentials(role domain.Role, input RedeemInput) (authEmail, password, matricula string, err error) {
	if role == domain.RoleAluno {
		matricula = strings.TrimSpace(input.Matricula)
		if matricula == "" {
			return "", "", "", ErrIncompleteCredentials
		}
		if len(matricula) < minCredentialLen {
			return "", "", "", ErrWeakCredential
		}
		return matricula + "@" + tempEmailDomain, matricula, matricula, nil
	}

	authEmail = strings.ToLower(strings.TrimSpace(input.Email))
	password = input.Password
	if authEmail == "" || password == "" {
		return "", "", "", ErrIncompleteCredentials
	}
	if len(password) < minCredentialLen {
		return "", "", "", ErrWeakCredential
	}
	return authEmail, password, "", nil
}

type provisionParams struct {
	role      domain.Role
	schoolID  uuid.UUID
	name      string
	authEmail string
	password  string
	matricula string
}

// provision runs the identity → role → profile saga. The only compensation
// is deleting the identity created in the first step; role and profile
// writes from a failed attempt are cleaned up by the defensive purge on the
// next one.
func (s *Service) provision(ctx context.Context, p provisionParams) (*identity.User, error) {
	var user *identity.User

	var sg saga

	sg.add("create-identity",
		func(ctx context.Context) error {
			u, err := s.idp.CreateUser(ctx, identity.CreateUserParams{
				Email:    p.authEmail,
				Password: p.password,
				Name:     p.name,
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrIdentityCreationFailed, err)
			}
			user = u
			return nil
		},
		func(ctx context.Context) error {
			return s.idp.DeleteUser(ctx, user.ID)
		},
	)

	sg.add("assign-role",
		func(ctx context.Context) error {
			if err := s.roles.DeleteOthers(ctx, user.ID, p.role); err != nil {
				return fmt.Errorf("%w: %v", ErrRoleAssignmentFailed, err)
			}
			if err := s.roles.Upsert(ctx, user.ID, p.role); err != nil {
				return fmt.Errorf("%w: %v", ErrRoleAssignmentFailed, err)
			}
			return nil
		},
		nil,
	)

	sg.add("provision-profile",
		func(ctx context.Context) error {
			err := s.provisionProfile(ctx, user.ID, p)
			if err != nil && !errors.Is(err, ErrMatriculaAlreadyLinked) {
				return fmt.Errorf("%w: %v", ErrProfileProvisioningFailed, err)
			}
			return err
		},
		nil,
	)

	if err := sg.execute(ctx); err != nil {
		return nil, err
	}

	return user, nil
}

// provisionProfile resolves the profile record for a freshly created
// identity. There is no uniqueness constraint on user_id at the storage
// layer, so the lookup-before-write ordering here is what prevents
// duplicates.
func (s *Service) provisionProfile(ctx context.Context, userID uuid.UUID, p provisionParams) error {
	existing, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		existing.Name = p.name
		existing.Email = p.authEmail
		existing.Type = p.role
		existing.SchoolID = p.schoolID
		if p.matricula != "" {
			existing.Matricula = p.matricula
		}
		return s.profiles.Update(ctx, existing)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	// Aluno invites may match a pre-imported roster profile by matricula.
	if p.role == domain.RoleAluno {
		roster, rerr := s.profiles.GetByMatricula(ctx, p.schoolID, p.matricula)
		switch {
		case rerr == nil:
			if roster.UserID != nil {
				if *roster.UserID == userID {
					return nil
				}
				return ErrMatriculaAlreadyLinked
			}
			if berr := s.profiles.BindUser(ctx, roster.ID, userID); berr != nil {
				if errors.Is(berr, domain.ErrConflict) {
					return ErrMatriculaAlreadyLinked
				}
				return berr
			}
			return nil
		case !errors.Is(rerr, domain.ErrNotFound):
			return rerr
		}
	}

	now := time.Now()
	return s.profiles.Create(ctx, &domain.Profile{
		ID:        uuid.New(),
		UserID:    &userID,
		Name:      p.name,
		Email:     p.authEmail,
		Type:      p.role,
		SchoolID:  p.schoolID,
		Matricula: p.matricula,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// provisionedEvent is the payload published to the realtime fanout after a
// successful redemption.
type provisionedEvent struct {
	Event     string    `json:"event"`
	UserID    uuid.UUID `json:"user_id"`
	SchoolID  uuid.UUID `json:"escola_id"`
	Role      string    `json:"role"`
	AuthEmail string    `json:"auth_email"`
	At        time.Time `json:"at"`
}

func (s *Service) publishProvisioned(ctx context.Context, schoolID, userID uuid.UUID, role domain.Role, authEmail string) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(provisionedEvent{
		Event:     "user.provisioned",
		UserID:    userID,
		SchoolID:  schoolID,
		Role:      string(role),
		AuthEmail: authEmail,
		At:        time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("invite: marshal provisioned event")
		return
	}

	if err := s.events.Publish(ctx, redisstore.ProvisioningChannel(schoolID), payload); err != nil {
		log.Warn().Err(err).
			Str("escola_id", schoolID.String()).
			Msg("invite: failed to publish provisioned event")
	}
}
