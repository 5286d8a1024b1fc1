package offer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"essence_back_end/internal/models"
	"essence_back_end/internal/offers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	items []*models.Offer
}

func (m *memStore) List(_ context.Context, activeOnly bool) ([]models.Offer, error) {
	out := []models.Offer{}
	for _, o := range m.items {
		if !activeOnly || o.IsActive {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, o *models.Offer) error {
	if err := offers.Validate(o); err != nil {
		return err
	}
	o.ID = primitive.NewObjectID()
	m.items = append(m.items, o)
	return nil
}

func (m *memStore) SetQuantity(_ context.Context, id string, qty int) (*models.Offer, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantité négative", offers.ErrInvalidOffer)
	}
	for _, o := range m.items {
		if o.ID.Hex() == id {
			o.Quantity = qty
			return o, nil
		}
	}
	return nil, offers.ErrOfferNotFound
}

func newRouter(store Store) *gin.Engine {
	h := NewHandler(store)
	r := gin.New()
	r.GET("/offers", h.GetOffers)
	r.GET("/offers/all", h.AdminGetOffers)
	r.POST("/offers", h.CreateOffer)
	r.PUT("/offers/:id/quantity", h.UpdateQuantity)
	return r
}

func send(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetOffers(t *testing.T) {
	store := &memStore{items: []*models.Offer{
		{ID: primitive.NewObjectID(), ItemName: "Coffret Oud", IsActive: true},
		{ID: primitive.NewObjectID(), ItemName: "Ancienne offre"},
	}}

	r := newRouter(store)
	w := send(r, http.MethodGet, "/offers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.NotContains(t, w.Body.String(), "Ancienne offre")

	w = send(r, http.MethodGet, "/offers/all", nil)
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestCreateOffer(t *testing.T) {
	store := &memStore{}
	r := newRouter(store)

	w := send(r, http.MethodPost, "/offers", gin.H{"item_name": "Coffret Musc", "size": "3x10ml", "mrp": 49.9, "quantity": 12, "is_active": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, store.items, 1)
	assert.Equal(t, 12, store.items[0].Quantity)

	w = send(r, http.MethodPost, "/offers", gin.H{"item_name": " ", "mrp": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateQuantity(t *testing.T) {
	o := &models.Offer{ID: primitive.NewObjectID(), ItemName: "Coffret Oud", Quantity: 2, IsActive: true}
	r := newRouter(&memStore{items: []*models.Offer{o}})
	path := "/offers/" + o.ID.Hex() + "/quantity"

	w := send(r, http.MethodPut, path, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, o.Quantity)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPut, path, gin.H{"quantity": -3}).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPut, path, gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodPut, "/offers/"+primitive.NewObjectID().Hex()+"/quantity", gin.H{"quantity": 1}).Code)
}
