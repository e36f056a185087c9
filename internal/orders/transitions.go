package orders

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/store"
)

// StatusUpdate porte les trois champs modifiables par un admin; au moins un
// doit être fourni.
type StatusUpdate struct {
	Status                    *string `json:"status"`
	PaymentStatus             *string `json:"paymentStatus"`
	PaymentVerificationStatus *string `json:"paymentVerificationStatus"`
}

func (u *StatusUpdate) normalize() error {
	if u.Status == nil && u.PaymentStatus == nil && u.PaymentVerificationStatus == nil {
		return apperr.Validation("At least one of status, paymentStatus or paymentVerificationStatus is required")
	}

	var errs apperr.FieldErrors
	check := func(v *string, field string, allowed []string) {
		if v == nil {
			return
		}
		*v = strings.ToLower(strings.TrimSpace(*v))
		if !models.OneOf(*v, allowed) {
			errs.Add(enumError(field, allowed))
		}
	}
	check(u.Status, "status", models.OrderStatuses)
	check(u.PaymentStatus, "paymentStatus", models.PaymentStatuses)
	check(u.PaymentVerificationStatus, "paymentVerificationStatus", models.VerificationStatuses)
	return errs.Err()
}

// errOrderChanged: une autre requête a modifié le statut entre lecture et écriture.
var errOrderChanged = apperr.State("Order was modified by another request, please reload it")

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, err := s.orders.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load order", err)
	}
	return o, nil
}

// UpdateStatus applique une transition admin. Le statut n'avance que vers
// l'avant; passer à cancelled rend le stock et garde la commande.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, upd StatusUpdate, by Requester) (*OrderView, error) {
	if err := upd.normalize(); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OrderStatusCancelled {
		return nil, apperr.State("Cannot update a cancelled order")
	}

	now := s.now()
	prevStatus := o.Status
	cancelling := false

	if upd.Status != nil && *upd.Status != o.Status {
		target := *upd.Status
		switch {
		case o.Status == models.OrderStatusDelivered:
			return nil, apperr.Statef("Cannot change status of a delivered order to %s", target)
		case target == models.OrderStatusCancelled:
			cancelling = true
		case models.StatusRank(target) < models.StatusRank(o.Status):
			return nil, apperr.Statef("Cannot move order from %s back to %s", o.Status, target)
		default:
			o.Status = target
			if target == models.OrderStatusDelivered && o.DeliveredAt == nil {
				o.DeliveredAt = &now
			}
		}
	}
	if upd.PaymentStatus != nil {
		o.PaymentStatus = *upd.PaymentStatus
		if o.PaymentStatus == models.PaymentStatusPaid && o.PaidAt == nil {
			o.PaidAt = &now
		}
	}
	if upd.PaymentVerificationStatus != nil {
		o.PaymentVerificationStatus = *upd.PaymentVerificationStatus
	}

	if cancelling {
		if err := s.retire(ctx, o, prevStatus, by); err != nil {
			return nil, err
		}
		return s.View(ctx, o)
	}

	if err := s.save(ctx, o, prevStatus); err != nil {
		return nil, err
	}
	log.Printf("📋 Commande %s: statut %s, paiement %s, vérification %s",
		o.OrderNumber, o.Status, o.PaymentStatus, o.PaymentVerificationStatus)
	s.publish(ctx, models.EventOrderUpdated, o)
	if o.Status != prevStatus {
		s.notify(o, s.notifier.OrderStatusChanged)
	}
	return s.View(ctx, o)
}

// RetireOrder annule une commande côté admin: le stock est rendu et la
// commande reste enregistrée avec le statut cancelled.
func (s *Service) RetireOrder(ctx context.Context, id primitive.ObjectID, by Requester) (*OrderView, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case models.OrderStatusCancelled:
		return nil, apperr.State("Order is already cancelled")
	case models.OrderStatusDelivered:
		return nil, apperr.State("Cannot cancel a delivered order")
	}
	if err := s.retire(ctx, o, o.Status, by); err != nil {
		return nil, err
	}
	return s.View(ctx, o)
}

// retire enregistre le statut cancelled à condition que le statut stocké soit
// encore from. Seul l'appel qui gagne cette écriture rend le stock.
func (s *Service) retire(ctx context.Context, o *models.Order, from string, by Requester) error {
	now := s.now()
	o.Status = models.OrderStatusCancelled
	o.CancelledAt = &now
	if err := s.save(ctx, o, from); err != nil {
		return err
	}

	s.release(ctx, o, reservationsOf(o), by.Actor(), "order cancelled")
	log.Printf("🚫 Commande %s annulée par %s, stock rendu", o.OrderNumber, by.Actor())
	s.publish(ctx, models.EventOrderUpdated, o)
	s.notify(o, s.notifier.OrderCancelled)
	return nil
}

// HardDeleteOrder supprime une commande encore annulable puis rend le stock
// de chaque ligne. Si un autre appel l'a déjà annulée, rien n'est rendu.
func (s *Service) HardDeleteOrder(ctx context.Context, o *models.Order, by Requester) error {
	if err := s.remove(ctx, o, models.CancellableStatuses...); err != nil {
		return err
	}
	s.release(ctx, o, reservationsOf(o), by.Actor(), "order deleted")
	log.Printf("🗑️ Commande %s supprimée par %s, stock rendu", o.OrderNumber, by.Actor())
	return nil
}

// RemoveOrder supprime une commande sans toucher au stock.
func (s *Service) RemoveOrder(ctx context.Context, id primitive.ObjectID, by Requester) error {
	o, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, o); err != nil {
		return err
	}
	log.Printf("🗑️ Commande %s supprimée par %s", o.OrderNumber, by.Actor())
	return nil
}

func (s *Service) remove(ctx context.Context, o *models.Order, statuses ...string) error {
	err := s.orders.DeleteOrder(ctx, o.ID, statuses...)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Order not found")
	}
	if errors.Is(err, store.ErrStale) {
		return errOrderChanged
	}
	if err != nil {
		return apperr.Internal("Failed to delete order", err)
	}
	if o.PaymentProof != nil {
		if err := s.proofs.Delete(ctx, o.PaymentProof.ObjectKey); err != nil {
			log.Printf("⚠️ Preuve %s non supprimée: %v", o.PaymentProof.ObjectKey, err)
		}
	}
	s.publish(ctx, models.EventOrderDeleted, o)
	return nil
}

// save écrit o si son statut stocké vaut toujours from.
func (s *Service) save(ctx context.Context, o *models.Order, from string) error {
	err := s.orders.UpdateOrder(ctx, o, from)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Order not found")
	}
	if errors.Is(err, store.ErrStale) {
		return errOrderChanged
	}
	if err != nil {
		return apperr.Internal("Failed to update order", err)
	}
	return nil
}

func reservationsOf(o *models.Order) []reservation {
	out := make([]reservation, 0, len(o.Items))
	for _, item := range o.Items {
		out = append(out, reservation{productID: item.Product, quantity: item.Quantity})
	}
	return out
}
