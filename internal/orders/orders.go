// Package orders porte le cycle de vie d'une commande: passage avec réservation
// du stock, transitions de statut admin et actions du client sur sa commande.
package orders

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/catalog"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/services"
	"ghee_back_end/internal/store"
)

// ProofStorage garde les preuves de paiement des commandes ONLINE.
type ProofStorage interface {
	Put(ctx context.Context, orderNumber string, upload services.ProofUpload) (*models.PaymentProof, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Notifier interface {
	OrderPlaced(ctx context.Context, o *models.Order, u *models.User) error
	OrderStatusChanged(ctx context.Context, o *models.Order, u *models.User) error
	OrderCancelled(ctx context.Context, o *models.Order, u *models.User) error
}

type Publisher interface {
	Publish(ctx context.Context, ev models.OrderEvent)
}

type InvoiceRenderer interface {
	Render(ctx context.Context, o *models.Order) ([]byte, error)
}

type Deps struct {
	Orders   store.OrderStore
	Users    store.UserStore
	Products store.ProductStore
	Catalog  *catalog.Service
	Proofs   ProofStorage
	Notifier Notifier        // optionnel
	Events   Publisher       // optionnel
	Invoices InvoiceRenderer // optionnel
}

type Service struct {
	orders   store.OrderStore
	users    store.UserStore
	products store.ProductStore
	catalog  *catalog.Service
	proofs   ProofStorage
	notifier Notifier
	events   Publisher
	invoices InvoiceRenderer

	now       func() time.Time
	notifyCtx func() (context.Context, context.CancelFunc)
}

func New(d Deps) *Service {
	s := &Service{
		orders:   d.Orders,
		users:    d.Users,
		products: d.Products,
		catalog:  d.Catalog,
		proofs:   d.Proofs,
		notifier: d.Notifier,
		events:   d.Events,
		invoices: d.Invoices,
		now:      time.Now,
		notifyCtx: func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 30*time.Second)
		},
	}
	if s.notifier == nil {
		s.notifier = services.LogNotifier{}
	}
	if s.proofs == nil {
		s.proofs = services.NewProofStore(nil, "")
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	return s
}

// Requester identifie l'auteur d'une requête authentifiée.
type Requester struct {
	ID   primitive.ObjectID
	Kind string // user ou admin
}

func (r Requester) IsAdmin() bool { return r.Kind == models.RoleAdmin }

// Actor est la forme courte enregistrée dans le journal de stock.
func (r Requester) Actor() string {
	if r.ID.IsZero() {
		return "system"
	}
	return r.Kind + ":" + r.ID.Hex()
}

// newOrderNumber produit une référence lisible GHEE-AAAAMMJJ-XXXXXX.
func (s *Service) newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "GHEE-" + s.now().Format("20060102") + "-" + suffix
}

func (s *Service) publish(ctx context.Context, kind string, o *models.Order) {
	s.events.Publish(ctx, models.NewOrderEvent(kind, o))
}

// notify envoie l'email hors de la requête; un échec est seulement loggé.
func (s *Service) notify(o *models.Order, send func(context.Context, *models.Order, *models.User) error) {
	snapshot := *o
	snapshot.Items = append([]models.OrderItem(nil), o.Items...)

	go func() {
		ctx, cancel := s.notifyCtx()
		defer cancel()

		u, err := s.users.GetUser(ctx, snapshot.User)
		if err != nil {
			log.Printf("⚠️ Client introuvable pour la notification %s: %v", snapshot.OrderNumber, err)
		}
		if err := send(ctx, &snapshot, u); err != nil {
			log.Printf("⚠️ Notification commande %s non envoyée: %v", snapshot.OrderNumber, err)
		}
	}()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.OrderEvent) {}
