package orders

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/services"
)

type PlaceItem struct {
	ProductID string `json:"product"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderInput est la commande déjà décodée (JSON ou multipart).
type PlaceOrderInput struct {
	UserID          primitive.ObjectID
	Items           []PlaceItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	PaymentProof    *services.ProofUpload
}

var proofContentTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

type validItem struct {
	productID primitive.ObjectID
	size      string
	quantity  int
}

// validatePlacement vérifie la forme de la commande sans toucher au stock.
func validatePlacement(in *PlaceOrderInput) ([]validItem, error) {
	if in.UserID.IsZero() {
		return nil, apperr.Unauthorized("Authentication required")
	}

	var errs apperr.FieldErrors
	if len(in.Items) == 0 {
		errs.Add("Order must contain at least one item")
	}

	items := make([]validItem, 0, len(in.Items))
	for i, item := range in.Items {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			errs.Addf("Item %d: invalid product id", i+1)
		}
		if item.Quantity <= 0 {
			errs.Addf("Item %d: quantity must be a positive integer", i+1)
		}
		size := strings.TrimSpace(item.Size)
		if size == "" {
			errs.Addf("Item %d: size is required", i+1)
		}
		items = append(items, validItem{productID: id, size: size, quantity: item.Quantity})
	}

	validateAddress(&in.ShippingAddress, &errs)

	method := strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = models.PaymentMethodCOD
	}
	if !models.OneOf(method, models.PaymentMethods) {
		errs.Add(enumError("payment method", models.PaymentMethods))
	}
	in.PaymentMethod = method

	if method == models.PaymentMethodOnline {
		switch proof := in.PaymentProof; {
		case proof == nil || proof.Body == nil || proof.Size <= 0:
			errs.Add("Payment proof is required for online payments")
		case proof.Size > services.MaxProofSize:
			errs.Addf("Payment proof cannot exceed %d MB", services.MaxProofSize>>20)
		case proof.ContentType != "" && !models.OneOf(proof.ContentType, proofContentTypes):
			errs.Add("Payment proof must be a JPEG, PNG, WEBP image or a PDF")
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type reservation struct {
	productID primitive.ObjectID
	quantity  int
}

// Place valide le panier, réserve le stock ligne par ligne et enregistre la
// commande. Tout échec rend le stock déjà réservé.
func (s *Service) Place(ctx context.Context, in PlaceOrderInput) (*OrderView, error) {
	items, err := validatePlacement(&in)
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		ID:                        primitive.NewObjectID(),
		OrderNumber:               s.newOrderNumber(),
		User:                      in.UserID,
		ShippingAddress:           in.ShippingAddress,
		Status:                    models.OrderStatusPending,
		PaymentMethod:             in.PaymentMethod,
		PaymentStatus:             models.PaymentStatusPending,
		PaymentVerificationStatus: models.VerificationPending,
	}
	actor := Requester{ID: in.UserID, Kind: models.RoleUser}.Actor()

	var reserved []reservation
	fail := func(err error) (*OrderView, error) {
		s.release(ctx, o, reserved, actor, "placement failed")
		return nil, err
	}

	for _, item := range items {
		line, err := s.reserve(ctx, o, item, actor)
		if err != nil {
			return fail(err)
		}
		reserved = append(reserved, reservation{productID: item.productID, quantity: item.quantity})
		o.Items = append(o.Items, line)
	}
	o.TotalAmount = o.ComputeTotal().InexactFloat64()

	if in.PaymentMethod == models.PaymentMethodOnline {
		proof, err := s.proofs.Put(ctx, o.OrderNumber, *in.PaymentProof)
		if err != nil {
			return fail(apperr.Internal("Failed to store payment proof", err))
		}
		o.PaymentProof = proof
	}

	if err := s.orders.CreateOrder(ctx, o); err != nil {
		if o.PaymentProof != nil {
			if derr := s.proofs.Delete(ctx, o.PaymentProof.ObjectKey); derr != nil {
				log.Printf("⚠️ Preuve orpheline %s: %v", o.PaymentProof.ObjectKey, derr)
			}
		}
		return fail(apperr.Internal("Failed to create order", err))
	}

	log.Printf("🛒 Commande %s créée: %d articles, total %.2f (%s)", o.OrderNumber, o.ItemCount(), o.TotalAmount, o.PaymentMethod)
	s.publish(ctx, models.EventOrderPlaced, o)
	s.notify(o, s.notifier.OrderPlaced)

	return s.View(ctx, o)
}

// reserve contrôle une ligne puis décrémente le stock de façon atomique.
func (s *Service) reserve(ctx context.Context, o *models.Order, item validItem, actor string) (models.OrderItem, error) {
	p, err := s.catalog.Load(ctx, item.productID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.OrderItem{}, apperr.NotFound(fmt.Sprintf("Product not found: %s", item.productID.Hex()))
		}
		return models.OrderItem{}, err
	}
	if !p.IsActive {
		return models.OrderItem{}, apperr.Validationf("Product %s is currently unavailable", p.Name)
	}
	if !p.HasStock(item.quantity) {
		return models.OrderItem{}, insufficientStock(p.Name, p.Stock, item.quantity)
	}
	price, ok := s.catalog.ResolvePrice(p, item.size)
	if !ok {
		return models.OrderItem{}, apperr.Validationf("Size %s not available for %s", item.size, p.Name)
	}

	_, err = s.catalog.AdjustStock(ctx, p.ID, -item.quantity, catalog.StockChange{
		Type:   models.MovementReserve,
		Reason: "order " + o.OrderNumber,
		Order:  &o.ID,
		Actor:  actor,
	})
	if apperr.Is(err, apperr.KindConflict) {
		// une autre commande a pris le stock entre la lecture et la décrémentation
		available := 0
		if fresh, lerr := s.catalog.Load(ctx, p.ID); lerr == nil {
			available = fresh.Stock
		}
		return models.OrderItem{}, insufficientStock(p.Name, available, item.quantity)
	}
	if err != nil {
		return models.OrderItem{}, err
	}

	return models.OrderItem{
		Product:  p.ID,
		Name:     p.Name,
		Size:     item.size,
		Quantity: item.quantity,
		Price:    price,
	}, nil
}

func insufficientStock(name string, available, requested int) error {
	return &apperr.Error{
		Kind:    apperr.KindConflict,
		Message: fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", name, available, requested),
	}
}

// release rend le stock réservé. Les erreurs sont loggées: l'appelant a déjà
// une erreur à retourner.
func (s *Service) release(ctx context.Context, o *models.Order, reserved []reservation, actor, reason string) {
	for _, r := range reserved {
		_, err := s.catalog.AdjustStock(ctx, r.productID, r.quantity, catalog.StockChange{
			Type:   models.MovementRestock,
			Reason: reason + " " + o.OrderNumber,
			Order:  &o.ID,
			Actor:  actor,
		})
		if err != nil {
			log.Printf("❌ Restock %s (+%d) impossible pour %s: %v", r.productID.Hex(), r.quantity, o.OrderNumber, err)
		}
	}
}
