package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"essence_back_end/internal/models"
)

// ProductDocument - fiche indexée dans Elasticsearch
type ProductDocument struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Notes    []string `json:"notes"`
	Variants []string `json:"variants"`
	MinPrice float64  `json:"min_price"`
	IsActive bool     `json:"is_active"`
}

func NewProductDocument(p *models.Product) ProductDocument {
	doc := ProductDocument{
		ID:       p.ID.String(),
		Name:     p.Name,
		Category: p.Category,
		Notes:    p.Notes,
		IsActive: p.IsActive,
	}
	for i, v := range p.Variants {
		doc.Variants = append(doc.Variants, v.Name+" "+v.Type)
		if i == 0 || v.Price < doc.MinPrice {
			doc.MinPrice = v.Price
		}
	}
	return doc
}

// ProductSearch - indexation et recherche plein texte des parfums
type ProductSearch struct {
	es    *elasticsearch.Client
	index string
}

func NewProductSearch(es *elasticsearch.Client, index string) *ProductSearch {
	return &ProductSearch{es: es, index: index}
}

// Index indexe (ou réindexe) un produit
func (s *ProductSearch) Index(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(NewProductDocument(p))
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic a refusé %s: %s", p.Name, res.String())
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

// SearchQuery construit la requête : multi_match flou sur nom, notes et variantes,
// limitée aux produits actifs et éventuellement à une catégorie
func SearchQuery(query, category string, size int) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
	}
	if category = strings.TrimSpace(category); category != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"category": category}})
	}

	return map[string]interface{}{
		"size":    size,
		"_source": []string{"id"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"name^3", "notes^2", "variants"},
						"fuzziness": "AUTO",
					},
				},
				"filter": filters,
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				ID string `json:"id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ParseSearchIDs extrait les IDs produits d'une réponse de recherche, dans l'ordre de pertinence
func ParseSearchIDs(body io.Reader) ([]string, error) {
	var r searchResponse
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}
	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		if h.Source.ID != "" {
			ids = append(ids, h.Source.ID)
		}
	}
	return ids, nil
}

// Search retourne les IDs des produits correspondants
func (s *ProductSearch) Search(ctx context.Context, query, category string, size int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("recherche vide")
	}
	if size <= 0 || size > 50 {
		size = 20
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(SearchQuery(query, category, size)); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{s.index}, Body: &buf}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("❌ Elasticsearch erreur: %s", res.String())
		return nil, errors.New("index non trouvé ou vide")
	}
	return ParseSearchIDs(res.Body)
}
