package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ghee_back_end/internal/models"
)

var ErrSearchDisabled = errors.New("client Elasticsearch non initialisé")

// ProductIndex maintient l'index de recherche produits. MongoDB reste la
// source de vérité: la recherche retourne des identifiants, relus ensuite.
type ProductIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewProductIndex(es *elasticsearch.Client, index string) *ProductIndex {
	return &ProductIndex{es: es, index: index}
}

func (x *ProductIndex) Enabled() bool { return x != nil && x.es != nil }

type productDocument struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Index indexe ou remplace un produit.
func (x *ProductIndex) Index(ctx context.Context, p *models.Product) {
	if !x.Enabled() {
		return
	}

	data, err := json.Marshal(productDocument{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	})
	if err != nil {
		return
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: p.ID.Hex(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	}
}

func (x *ProductIndex) Remove(ctx context.Context, id primitive.ObjectID) {
	if !x.Enabled() {
		return
	}
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id.Hex(), Refresh: "true"}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		log.Println("❌ Erreur suppression Elastic:", err)
		return
	}
	defer res.Body.Close()
}

// Search cherche sur nom, description et catégorie; seuls les produits actifs
// sont retournés sauf si includeInactive.
func (x *ProductIndex) Search(ctx context.Context, query string, includeInactive bool, from, size int) ([]primitive.ObjectID, int64, error) {
	if !x.Enabled() {
		return nil, 0, ErrSearchDisabled
	}

	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "description", "category^2"},
				"fuzziness": "AUTO",
			},
		},
	}
	if !includeInactive {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"isActive": true}},
		}
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"from":    from,
		"size":    size,
		"_source": false,
		"query":   map[string]interface{}{"bool": boolQuery},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, 0, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index:          []string{x.index},
		Body:           &buf,
		TrackTotalHits: true,
	}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("elasticsearch: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, 0, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := primitive.ObjectIDFromHex(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, r.Hits.Total.Value, nil
}
