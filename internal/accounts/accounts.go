// Package accounts gère les comptes clients et administrateurs: inscription,
// connexion, profil, favoris et création de l'admin initial.
package accounts

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
	"ghee_back_end/internal/utils"
)

// StatusCache garde le drapeau isActive des comptes entre deux requêtes.
type StatusCache interface {
	Get(ctx context.Context, kind, id string) (active bool, found bool)
	Set(ctx context.Context, kind, id string, active bool)
	Invalidate(ctx context.Context, kind, id string)
}

type Deps struct {
	Users    store.UserStore
	Admins   store.AdminStore
	Products store.ProductStore
	Tokens   *auth.Tokens
	Status   StatusCache // optionnel
}

type Service struct {
	users    store.UserStore
	admins   store.AdminStore
	products store.ProductStore
	tokens   *auth.Tokens
	status   StatusCache
	now      func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		users:    d.Users,
		admins:   d.Admins,
		products: d.Products,
		tokens:   d.Tokens,
		status:   d.Status,
		now:      time.Now,
	}
	if s.status == nil {
		s.status = nopStatus{}
	}
	return s
}

var validate = validator.New()

// Session est la réponse d'une connexion réussie.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Account   any       `json:"account"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validateIdentity(name, email string, errs *apperr.FieldErrors) {
	if n := len([]rune(name)); n < 2 || n > 50 {
		errs.Add("Name must be between 2 and 50 characters")
	}
	if validate.Var(email, "required,email,max=100") != nil {
		errs.Add("Please provide a valid email")
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	var errs apperr.FieldErrors
	validateIdentity(in.Name, in.Email, &errs)
	if len(in.Password) < 6 {
		errs.Add("Password must be at least 6 characters")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}
	u := &models.User{
		Name:       in.Name,
		Email:      in.Email,
		Password:   hash,
		Phone:      in.Phone,
		Role:       models.RoleUser,
		IsActive:   true,
		Favourites: []primitive.ObjectID{},
	}
	err = s.users.CreateUser(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("User already exists with this email")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to create user", err)
	}

	log.Printf("👤 Nouveau client: %s", u.Email)
	return s.session(u.ID, auth.TypeUser, u)
}

func (s *Service) Login(ctx context.Context, in Credentials) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("Failed to load user", err)
	}
	if u == nil || !checkPassword(in.Password, u.Password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}
	return s.session(u.ID, auth.TypeUser, u)
}

func (s *Service) AdminLogin(ctx context.Context, in Credentials) (*Session, error) {
	a, err := s.admins.GetAdminByEmail(ctx, normalizeEmail(in.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("Failed to load admin", err)
	}
	if a == nil || !checkPassword(in.Password, a.Password) {
		log.Printf("❌ Échec connexion admin: %s", normalizeEmail(in.Email))
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if !a.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}

	now := s.now()
	a.LastLogin = &now
	if err := s.admins.UpdateAdmin(ctx, a); err != nil {
		log.Printf("⚠️ lastLogin non enregistré pour %s: %v", a.Email, err)
	}
	log.Printf("🔑 Connexion admin: %s", a.Email)
	return s.session(a.ID, auth.TypeAdmin, a)
}

func checkPassword(password, hash string) bool {
	ok, err := utils.VerifyPassword(password, hash)
	return err == nil && ok
}

func (s *Service) session(id primitive.ObjectID, kind string, account any) (*Session, error) {
	token, expires, err := s.tokens.Issue(id.Hex(), kind)
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}
	return &Session{Token: token, ExpiresAt: expires, Account: account}, nil
}

// BootstrapAdmin crée le compte superadmin de la configuration s'il n'existe pas.
func (s *Service) BootstrapAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		log.Println("⚠️ ADMIN_EMAIL/ADMIN_PASSWORD absents, aucun admin initial créé")
		return nil
	}

	_, err := s.admins.GetAdminByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	a := &models.Admin{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hash,
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}
	if err := s.admins.CreateAdmin(ctx, a); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return err
	}
	log.Printf("✅ Admin initial créé: %s", email)
	return nil
}

// IsActive dit si le compte d'un jeton est toujours actif. Le résultat est
// mis en cache quelques minutes.
func (s *Service) IsActive(ctx context.Context, kind, id string) (bool, error) {
	if active, found := s.status.Get(ctx, kind, id); found {
		return active, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	var active bool
	switch kind {
	case auth.TypeUser:
		u, err := s.users.GetUser(ctx, oid)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		active = u.IsActive
	case auth.TypeAdmin:
		a, err := s.admins.GetAdmin(ctx, oid)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		active = a.IsActive
	default:
		return false, nil
	}

	s.status.Set(ctx, kind, id, active)
	return active, nil
}

type nopStatus struct{}

func (nopStatus) Get(context.Context, string, string) (bool, bool) { return false, false }
func (nopStatus) Set(context.Context, string, string, bool)        {}
func (nopStatus) Invalidate(context.Context, string, string)       {}
