package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/logging"
	red "ai-assistant-backend/internal/infra/redis"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase covers accounts: self-service registration and login, device
// accounts, activation code redemption and admin management.
type UserUseCase interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	RegisterDevice(ctx context.Context, macAddress string) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (*model.User, error)
	Charge(ctx context.Context, userID, code string) (*model.User, error)

	Create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, page, perPage int) ([]*model.User, int, error)
	EnsureAdmin(ctx context.Context, username, email, password string) (*model.User, bool, error)
}

// LoginLimiter is satisfied by redis.RateLimiter.
type LoginLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

type UserOptions struct {
	LoginAttempts int
	LoginWindow   time.Duration
	BcryptCost    int
}

type userUC struct {
	users   repository.UserRepository
	codes   repository.ActivationCodeRepository
	limiter LoginLimiter
	tm      repository.TransactionManager
	opts    UserOptions
	log     *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	codes repository.ActivationCodeRepository,
	limiter LoginLimiter,
	tm repository.TransactionManager,
	opts UserOptions,
	logger *zerolog.Logger,
) *userUC {
	if opts.LoginAttempts <= 0 {
		opts.LoginAttempts = 5
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = 15 * time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &userUC{
		users:   users,
		codes:   codes,
		limiter: limiter,
		tm:      tm,
		opts:    opts,
		log:     logger,
	}
}

func (u *userUC) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()
	return u.create(ctx, username, email, password, model.RoleUser)
}

// RegisterDevice creates an account whose username and password are both the
// device MAC address.
func (u *userUC) RegisterDevice(ctx context.Context, macAddress string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterDevice")()
	mac := strings.TrimSpace(macAddress)
	if mac == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.create(ctx, mac, deviceEmail(mac), mac, model.RoleUser)
}

func (u *userUC) Create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Create")()
	return u.create(ctx, username, email, password, role)
}

func (u *userUC) create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	if password == "" {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := u.hash(password)
	if err != nil {
		return nil, err
	}
	nu, err := model.NewUser("", strings.TrimSpace(username), strings.TrimSpace(email), hash, role)
	if err != nil {
		return nil, err
	}

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.users.FindByUsername(ctx, tx, nu.Username); err == nil {
			return domain.ErrUsernameTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		if _, err := u.users.FindByEmail(ctx, tx, nu.Email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return u.users.Save(ctx, tx, nu)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", nu.ID).Str("role", string(nu.Role)).Msg("user created")
	return nu, nil
}

// Authenticate checks the password and counts attempts per username. A
// successful login clears the counter.
func (u *userUC) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Authenticate")()

	key := red.LoginAttemptKey(username)
	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, key, u.opts.LoginAttempts, u.opts.LoginWindow)
		if err != nil {
			// Fail open: the limiter guards brute force, it must not lock everyone out.
			u.log.Warn().Err(err).Msg("login rate limiter unavailable")
		} else if !ok {
			return nil, domain.ErrTooManyAttempts
		}
	}

	usr, err := u.users.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.HashedPassword), []byte(password)) != nil {
		return nil, domain.ErrPasswordIncorrect
	}
	if u.limiter != nil {
		_ = u.limiter.Reset(ctx, key)
	}
	return usr, nil
}

func (u *userUC) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.users.FindByUsername(ctx, repository.NoTX, username)
}

func (u *userUC) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.ChangePassword")()

	usr, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.HashedPassword), []byte(oldPassword)) != nil {
		return nil, domain.ErrPasswordIncorrect
	}
	if newPassword != confirmPassword {
		return nil, domain.ErrPasswordNotMatch
	}
	if newPassword == "" {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := u.hash(newPassword)
	if err != nil {
		return nil, err
	}
	usr.HashedPassword = hash
	usr.UpdatedAt = time.Now()
	if err := u.users.Save(ctx, repository.NoTX, usr); err != nil {
		return nil, err
	}
	return usr, nil
}

// Charge redeems an activation code and extends the user's access by the
// code's quota. The code row is locked for the duration of the transaction.
func (u *userUC) Charge(ctx context.Context, userID, code string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Charge")()

	var charged *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ac, err := u.codes.FindByCode(ctx, tx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if err := ac.Redeem(); err != nil {
			return err
		}
		usr, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.codes.Save(ctx, tx, ac); err != nil {
			return err
		}
		usr.Extend(ac.QuotaDays)
		usr.UpdatedAt = time.Now()
		if err := u.users.Save(ctx, tx, usr); err != nil {
			return err
		}
		charged = usr
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", userID).Time("expiration_date", charged.ExpirationDate).Msg("activation code redeemed")
	return charged, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Update")()

	var updated *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := u.applyPatch(usr, patch); err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, usr); err != nil {
			return err
		}
		updated = usr
		return nil
	})
	return updated, err
}

func (u *userUC) applyPatch(usr *model.User, p model.UserPatch) error {
	if p.Username != nil {
		if strings.TrimSpace(*p.Username) == "" {
			return domain.ErrInvalidArgument
		}
		usr.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		if !strings.Contains(*p.Email, "@") {
			return domain.ErrInvalidArgument
		}
		usr.Email = strings.TrimSpace(*p.Email)
	}
	if p.Password != nil {
		hash, err := u.hash(*p.Password)
		if err != nil {
			return err
		}
		usr.HashedPassword = hash
	}
	if p.FullName != nil {
		v := *p.FullName
		usr.FullName = &v
	}
	if p.Disabled != nil {
		usr.Disabled = *p.Disabled
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return domain.ErrInvalidArgument
		}
		usr.Role = *p.Role
	}
	if p.ExpirationDate != nil {
		usr.ExpirationDate = *p.ExpirationDate
	}
	usr.UpdatedAt = time.Now()
	return nil
}

func (u *userUC) Delete(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Delete")()
	usr, err := u.users.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := u.users.Delete(ctx, repository.NoTX, id); err != nil {
		return nil, err
	}
	return usr, nil
}

func (u *userUC) List(ctx context.Context, page, perPage int) ([]*model.User, int, error) {
	offset, limit := pageBounds(page, perPage)
	users, err := u.users.List(ctx, repository.NoTX, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// EnsureAdmin creates the bootstrap superadmin unless the username exists.
// The bool reports whether a user was created.
func (u *userUC) EnsureAdmin(ctx context.Context, username, email, password string) (*model.User, bool, error) {
	usr, err := u.users.FindByUsername(ctx, repository.NoTX, username)
	if err == nil {
		return usr, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}
	usr, err = u.create(ctx, username, email, password, model.RoleSuperAdmin)
	if err != nil {
		return nil, false, err
	}
	return usr, true, nil
}

func (u *userUC) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), u.opts.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func deviceEmail(mac string) string {
	return strings.NewReplacer(":", "", "-", "").Replace(strings.ToLower(mac)) + "@device.local"
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
	// MaxPage keeps (page-1)*perPage far from int overflow.
	MaxPage = 1_000_000
)

// pageBounds turns 1-based page numbers into offset/limit.
func pageBounds(page, perPage int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return (page - 1) * perPage, perPage
}
