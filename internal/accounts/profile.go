package accounts

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/auth"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
	"ghee_back_end/internal/utils"
)

func (s *Service) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load user", err)
	}
	return u, nil
}

type ProfileInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
}

func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}

	var errs apperr.FieldErrors
	validateIdentity(u.Name, u.Email, &errs)
	if len([]rune(u.Address)) > 200 {
		errs.Add("Address cannot exceed 200 characters")
	}
	if in.Password != nil && len(*in.Password) < 6 {
		errs.Add("Password must be at least 6 characters")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal("Failed to hash password", err)
		}
		u.Password = hash
	}

	err = s.users.UpdateUser(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Email is already in use")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to update profile", err)
	}
	return u, nil
}

// ListFavourites retourne les produits favoris encore actifs, dans l'ordre d'ajout.
func (s *Service) ListFavourites(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []models.Product{}
	if len(u.Favourites) == 0 {
		return out, nil
	}
	byID, err := s.products.GetProducts(ctx, u.Favourites)
	if err != nil {
		return nil, apperr.Internal("Failed to load favourites", err)
	}
	for _, id := range u.Favourites {
		if p, ok := byID[id]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Service) AddFavourite(ctx context.Context, userID, productID primitive.ObjectID) ([]models.Product, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.IsActive) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load product", err)
	}

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasFavourite(productID) {
		u.Favourites = append(u.Favourites, productID)
		if err := s.users.UpdateUser(ctx, u); err != nil {
			return nil, apperr.Internal("Failed to update favourites", err)
		}
	}
	return s.ListFavourites(ctx, userID)
}

func (s *Service) RemoveFavourite(ctx context.Context, userID, productID primitive.ObjectID) ([]models.Product, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := u.Favourites[:0]
	for _, id := range u.Favourites {
		if id != productID {
			kept = append(kept, id)
		}
	}
	if len(kept) != len(u.Favourites) {
		u.Favourites = kept
		if err := s.users.UpdateUser(ctx, u); err != nil {
			return nil, apperr.Internal("Failed to update favourites", err)
		}
	}
	return s.ListFavourites(ctx, userID)
}

func (s *Service) AdminProfile(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	a, err := s.admins.GetAdmin(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Admin not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load admin", err)
	}
	return a, nil
}

func (s *Service) ListUsers(ctx context.Context, query string, page store.Page) (store.OffsetPage[models.User], error) {
	items, total, err := s.users.ListUsers(ctx, store.UserFilter{Query: strings.TrimSpace(query)}, page)
	if err != nil {
		return store.OffsetPage[models.User]{}, apperr.Internal("Failed to list users", err)
	}
	return store.NewOffsetPage(items, total, page), nil
}

// SetUserActive active ou désactive un client; ses jetons en cours sont
// refusés dès l'invalidation du cache.
func (s *Service) SetUserActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, apperr.Internal("Failed to update user", err)
	}
	s.status.Invalidate(ctx, auth.TypeUser, id.Hex())
	log.Printf("👤 Client %s actif=%v", u.Email, active)
	return u, nil
}
