package service

import (
	"context"
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/sirupsen/logrus"

	"ticket-office/internal/auth"
	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/entity"
)

type userService struct {
	users      repository.UserRepository
	identity   IdentityResolver
	tokens     *auth.TokenCodec
	activation *auth.ActivationCodec
	mailer     Mailer
}

func NewUserService(users repository.UserRepository, identity IdentityResolver, tokens *auth.TokenCodec, activation *auth.ActivationCodec, mailer Mailer) UserService {
	return &userService{
		users:      users,
		identity:   identity,
		tokens:     tokens,
		activation: activation,
		mailer:     mailer,
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	if !govalidator.IsEmail(req.Email) {
		return "", entity.ErrInvalidEmail
	}
	if req.Role != nil {
		if !entity.ValidRole(*req.Role) || *req.Role == entity.RoleAdmin {
			return "", entity.ErrInvalidRequest
		}
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", entity.ErrUserAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", err
	}

	user := &entity.User{
		Email:        &req.Email,
		PasswordHash: &hash,
		Name:         req.Name,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	code, err := s.activation.Generate(req.Email)
	if err != nil {
		return "", err
	}

	body := fmt.Sprintf("Welcome! Confirm your address with this code: %s", code)
	if err := s.mailer.Send(req.Email, "Confirm your account", body); err != nil {
		logrus.WithField("email", req.Email).WithError(err).Error("failed to send activation mail")
	}

	return code, nil
}

func (s *userService) Activate(ctx context.Context, code string) error {
	email, err := s.activation.Parse(code)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return entity.ErrInvalidToken
	}

	return s.users.MarkVerified(ctx, email)
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (string, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if user == nil || user.PasswordHash == nil {
		return "", entity.ErrWrongCredentials
	}

	if user.LoginFailCount >= entity.LoginFailLimit {
		return "", entity.ErrAccountBlocked
	}

	if !auth.CheckPassword(req.Password, *user.PasswordHash) {
		count, incErr := s.users.IncrementLoginFail(ctx, user.ID)
		if incErr != nil {
			return "", incErr
		}
		if count >= entity.LoginFailLimit {
			logrus.WithField("user_id", user.ID).Warn("account blocked after repeated login failures")
		}
		return "", entity.ErrWrongCredentials
	}

	if !user.Verified {
		return "", entity.ErrEmailNotValidated
	}

	if user.LoginFailCount > 0 {
		if err := s.users.SetLoginFailCount(ctx, user.ID, 0); err != nil {
			return "", err
		}
	}

	return s.tokens.Generate(user.ID)
}

func (s *userService) ReadSelf(ctx context.Context, creds entity.Credentials) (*entity.User, error) {
	ident, err := s.identity.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, ident.UserID)
}

func (s *userService) Get(ctx context.Context, creds entity.Credentials, id int64) (*entity.User, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}

	// Existence first: a scoped id that resolves to nothing is an unknown
	// item regardless of who asks.
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canReadUser(caller, id) {
		return nil, entity.ErrNotAllowed
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, creds entity.Credentials) ([]*entity.User, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canListUsers(caller) {
		return nil, entity.ErrNotAllowed
	}
	return s.users.GetAll(ctx)
}

func (s *userService) Update(ctx context.Context, creds entity.Credentials, id int64, req *UpdateUserRequest) (*entity.User, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canUpdateUser(caller, id) {
		return nil, entity.ErrNotAllowed
	}

	if presentFields(req) != 1 {
		return nil, entity.ErrOneFieldAtATime
	}

	switch {
	case req.Password != nil:
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
			return nil, err
		}

	case req.Role != nil:
		if !entity.ValidRole(*req.Role) {
			return nil, entity.ErrInvalidRequest
		}
		// Anyone may pick up a first role; only admins hand out admin.
		if *req.Role == entity.RoleAdmin && caller.RoleOrEmpty() != entity.RoleAdmin {
			return nil, entity.ErrNotAllowed
		}
		if target.Role != nil {
			return nil, entity.ErrRoleCantChange
		}
		if err := s.users.UpdateRole(ctx, id, *req.Role); err != nil {
			return nil, err
		}

	case req.Block != nil:
		if caller.RoleOrEmpty() != entity.RoleAdmin {
			return nil, entity.ErrNotAllowed
		}
		count := 0
		if *req.Block {
			count = entity.LoginFailLimit
		}
		if err := s.users.SetLoginFailCount(ctx, id, count); err != nil {
			return nil, err
		}

	case req.Name != nil:
		if err := s.users.UpdateName(ctx, id, *req.Name); err != nil {
			return nil, err
		}
	}

	return s.users.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, creds entity.Credentials, id int64) (*entity.User, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canDeleteUser(caller, id) {
		return nil, entity.ErrNotAllowed
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) caller(ctx context.Context, creds entity.Credentials) (*entity.User, error) {
	ident, err := s.identity.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, ident.UserID)
}

func presentFields(req *UpdateUserRequest) int {
	n := 0
	if req.Password != nil {
		n++
	}
	if req.Role != nil {
		n++
	}
	if req.Block != nil {
		n++
	}
	if req.Name != nil {
		n++
	}
	return n
}
