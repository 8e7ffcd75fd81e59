//go:build integration

package integration

import (
	"net/http"
	"testing"
)

type getCartResponse struct {
	Success bool         `json:"success"`
	Data    cartResponse `json:"data"`
}

type cartResponse struct {
	ID     string            `json:"id"`
	UserID string            `json:"userId"`
	Items  []cartItemRequest `json:"items"`
}

func TestGetCart_Seeded(t *testing.T) {
	resp := doGet(t, "/carts/cart-demo-1")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[getCartResponse](t, resp)
	if !body.Success {
		t.Error("expected success=true")
	}
	if body.Data.ID != "cart-demo-1" {
		t.Errorf("cart id: got %q, want %q", body.Data.ID, "cart-demo-1")
	}
	if body.Data.UserID != "user-demo-1" {
		t.Errorf("user id: got %q, want %q", body.Data.UserID, "user-demo-1")
	}
	if len(body.Data.Items) != 2 {
		t.Errorf("items: got %d, want 2", len(body.Data.Items))
	}
}

func TestGetCart_Unknown(t *testing.T) {
	resp := doGet(t, "/carts/no-such-cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
