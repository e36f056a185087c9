package orders

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
)

// UpdateShipping modifie l'adresse de livraison du client tant que la
// commande n'est pas expédiée.
func (s *Service) UpdateShipping(ctx context.Context, id primitive.ObjectID, patch ShippingPatch, by Requester) (*OrderView, error) {
	if patch.empty() {
		return nil, apperr.Validation("No shipping fields to update")
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(by.ID) {
		return nil, apperr.Forbidden("Not authorized to update this order")
	}
	if !o.CanEditShipping() {
		return nil, apperr.Statef("Cannot update shipping address for order with status: %s", o.Status)
	}

	addr := o.ShippingAddress
	patch.apply(&addr)
	var errs apperr.FieldErrors
	validateAddress(&addr, &errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	o.ShippingAddress = addr
	if err := s.save(ctx, o, o.Status); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventOrderUpdated, o)
	return s.View(ctx, o)
}

// Cancel est l'annulation côté client: le stock est rendu et la commande
// supprimée.
func (s *Service) Cancel(ctx context.Context, id primitive.ObjectID, by Requester) error {
	o, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !o.IsOwnedBy(by.ID) {
		return apperr.Forbidden("Not authorized to cancel this order")
	}
	if !o.CanCancel() {
		return apperr.Statef("Cannot cancel order with status: %s", o.Status)
	}
	if err := s.HardDeleteOrder(ctx, o, by); err != nil {
		return err
	}
	s.notify(o, s.notifier.OrderCancelled)
	return nil
}
