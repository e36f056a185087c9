package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"ghee_back_end/internal/models"
)

const OrderEventsChannel = "orders:events"

// OrderEvents diffuse les événements commande vers le flux admin. Avec Redis
// les événements passent par PUBLISH/SUBSCRIBE et atteignent toutes les
// instances; sans Redis un hub local sert les abonnés du processus.
type OrderEvents struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[chan models.OrderEvent]struct{}
}

func NewOrderEvents(rdb *redis.Client) *OrderEvents {
	return &OrderEvents{rdb: rdb, subs: make(map[chan models.OrderEvent]struct{})}
}

func (e *OrderEvents) Publish(ctx context.Context, ev models.OrderEvent) {
	if e.rdb == nil {
		e.broadcast(ev)
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := e.rdb.Publish(ctx, OrderEventsChannel, data).Err(); err != nil {
		log.Printf("⚠️ Erreur publication événement %s: %v", ev.Type, err)
	}
}

// Subscribe retourne un canal d'événements fermé quand ctx se termine.
func (e *OrderEvents) Subscribe(ctx context.Context) <-chan models.OrderEvent {
	out := make(chan models.OrderEvent, 16)

	if e.rdb == nil {
		e.mu.Lock()
		e.subs[out] = struct{}{}
		e.mu.Unlock()
		go func() {
			<-ctx.Done()
			e.mu.Lock()
			delete(e.subs, out)
			e.mu.Unlock()
			close(out)
		}()
		return out
	}

	pubsub := e.rdb.Subscribe(ctx, OrderEventsChannel)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.OrderEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				default:
					// abonné trop lent, l'événement est perdu
				}
			}
		}
	}()
	return out
}

func (e *OrderEvents) broadcast(ev models.OrderEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
