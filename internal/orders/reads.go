package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/services"
	"ghee_back_end/internal/store"
)

type ItemView struct {
	models.OrderItem
	ProductDetail *models.ProductSummary `json:"productDetail,omitempty"`
}

// OrderView est la commande renvoyée aux clients, produits et client détaillés.
type OrderView struct {
	*models.Order
	Items    []ItemView          `json:"items"`
	Customer *models.UserSummary `json:"customer,omitempty"`
}

// View charge en parallèle les produits et le client d'une commande.
func (s *Service) View(ctx context.Context, o *models.Order) (*OrderView, error) {
	views, err := s.expand(ctx, []models.Order{*o})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) expand(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	var productIDs []primitive.ObjectID
	userIDs := make(map[primitive.ObjectID]struct{})
	for _, o := range orders {
		for _, item := range o.Items {
			productIDs = append(productIDs, item.Product)
		}
		userIDs[o.User] = struct{}{}
	}

	var products map[primitive.ObjectID]*models.Product
	users := make(map[primitive.ObjectID]*models.User, len(userIDs))
	usersCh := make(chan *models.User, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	if len(productIDs) > 0 {
		g.Go(func() error {
			var err error
			products, err = s.products.GetProducts(gctx, productIDs)
			return err
		})
	}
	for id := range userIDs {
		id := id
		g.Go(func() error {
			u, err := s.users.GetUser(gctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			usersCh <- u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("Failed to load order details", err)
	}
	close(usersCh)
	for u := range usersCh {
		users[u.ID] = u
	}

	views := make([]OrderView, len(orders))
	for i := range orders {
		o := &orders[i]
		v := OrderView{Order: o, Items: make([]ItemView, len(o.Items))}
		for j, item := range o.Items {
			v.Items[j] = ItemView{OrderItem: item}
			if p, ok := products[item.Product]; ok {
				summary := p.Summary()
				v.Items[j].ProductDetail = &summary
			}
		}
		if u, ok := users[o.User]; ok {
			summary := u.Summary()
			v.Customer = &summary
		}
		views[i] = v
	}
	return views, nil
}

// Get retourne une commande à son propriétaire ou à un admin.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID, by Requester) (*OrderView, error) {
	o, err := s.authorized(ctx, id, by)
	if err != nil {
		return nil, err
	}
	return s.View(ctx, o)
}

func (s *Service) authorized(ctx context.Context, id primitive.ObjectID, by Requester) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !by.IsAdmin() && !o.IsOwnedBy(by.ID) {
		return nil, apperr.Forbidden("Not authorized to view this order")
	}
	return o, nil
}

func (s *Service) ListMine(ctx context.Context, userID primitive.ObjectID, page store.Page) (store.OffsetPage[OrderView], error) {
	return s.list(ctx, store.OrderFilter{User: userID}, page)
}

func (s *Service) ListAll(ctx context.Context, f store.OrderFilter, page store.Page) (store.OffsetPage[OrderView], error) {
	var errs apperr.FieldErrors
	if f.Status != "" && !models.OneOf(f.Status, models.OrderStatuses) {
		errs.Add(enumError("status", models.OrderStatuses))
	}
	if f.PaymentStatus != "" && !models.OneOf(f.PaymentStatus, models.PaymentStatuses) {
		errs.Add(enumError("paymentStatus", models.PaymentStatuses))
	}
	if f.PaymentMethod != "" && !models.OneOf(f.PaymentMethod, models.PaymentMethods) {
		errs.Add(enumError("paymentMethod", models.PaymentMethods))
	}
	if err := errs.Err(); err != nil {
		return store.OffsetPage[OrderView]{}, err
	}
	return s.list(ctx, f, page)
}

func (s *Service) list(ctx context.Context, f store.OrderFilter, page store.Page) (store.OffsetPage[OrderView], error) {
	items, total, err := s.orders.ListOrders(ctx, f, page)
	if err != nil {
		return store.OffsetPage[OrderView]{}, apperr.Internal("Failed to list orders", err)
	}
	views, err := s.expand(ctx, items)
	if err != nil {
		return store.OffsetPage[OrderView]{}, err
	}
	return store.NewOffsetPage(views, total, page), nil
}

func (s *Service) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.orders.OrderStats(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to compute order stats", err)
	}
	return stats, nil
}

// ProofURL retourne une URL signée temporaire vers la preuve de paiement.
func (s *Service) ProofURL(ctx context.Context, id primitive.ObjectID, by Requester) (string, time.Time, error) {
	o, err := s.authorized(ctx, id, by)
	if err != nil {
		return "", time.Time{}, err
	}
	if o.PaymentProof == nil {
		return "", time.Time{}, apperr.NotFound("No payment proof for this order")
	}
	url, err := s.proofs.PresignedURL(ctx, o.PaymentProof.ObjectKey, services.ProofURLTTL)
	if err != nil {
		return "", time.Time{}, apperr.Internal("Failed to sign payment proof URL", err)
	}
	return url, s.now().Add(services.ProofURLTTL), nil
}

// Invoice rend la facture PDF et le nom de fichier à proposer.
func (s *Service) Invoice(ctx context.Context, id primitive.ObjectID, by Requester) ([]byte, string, error) {
	o, err := s.authorized(ctx, id, by)
	if err != nil {
		return nil, "", err
	}
	if o.Status == models.OrderStatusCancelled {
		return nil, "", apperr.State("No invoice for a cancelled order")
	}
	if s.invoices == nil {
		return nil, "", apperr.Internal("Invoice rendering is not configured", nil)
	}
	pdf, err := s.invoices.Render(ctx, o)
	if err != nil {
		return nil, "", apperr.Internal("Failed to render invoice", err)
	}
	return pdf, fmt.Sprintf("invoice-%s.pdf", o.OrderNumber), nil
}
