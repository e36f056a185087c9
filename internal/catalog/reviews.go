package catalog

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview n'accepte qu'un avis par client, et seulement après un achat.
func (s *Service) AddReview(ctx context.Context, productID primitive.ObjectID, user *models.User, in ReviewInput) (*models.Review, error) {
	var errs apperr.FieldErrors
	if in.Rating < 1 || in.Rating > 5 {
		errs.Add("Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if n := len([]rune(comment)); n < 3 || n > 500 {
		errs.Add("Comment must be between 3 and 500 characters")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	p, err := s.Load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.NotFound("Product not found")
	}

	if s.purchases != nil {
		bought, err := s.purchases.HasPurchased(ctx, user.ID, productID)
		if err != nil {
			return nil, apperr.Internal("Failed to check purchase history", err)
		}
		if !bought {
			return nil, apperr.Forbidden("You can only review products you have purchased")
		}
	}

	r := &models.Review{
		Product:  productID,
		User:     user.ID,
		UserName: user.Name,
		Rating:   in.Rating,
		Comment:  comment,
	}
	err = s.reviews.CreateReview(ctx, r)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("You have already reviewed this product")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to save review", err)
	}

	rating, err := s.reviews.ProductRating(ctx, productID)
	if err != nil {
		return nil, apperr.Internal("Failed to compute rating", err)
	}
	avg := math.Round(rating.Average*10) / 10
	if err := s.products.SetRating(ctx, productID, avg, rating.Count); err != nil {
		return nil, apperr.Internal("Failed to update rating", err)
	}
	s.cache.Invalidate(ctx, productID)
	return r, nil
}

func (s *Service) ListReviews(ctx context.Context, productID primitive.ObjectID, page store.Page) (store.OffsetPage[models.Review], error) {
	items, total, err := s.reviews.ListReviews(ctx, productID, page)
	if err != nil {
		return store.OffsetPage[models.Review]{}, apperr.Internal("Failed to load reviews", err)
	}
	return store.NewOffsetPage(items, total, page), nil
}
