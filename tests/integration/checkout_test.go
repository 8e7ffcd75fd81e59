//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestInitiate_EmptyCart(t *testing.T) {
	req := initiateRequest{
		UserID:    "user-demo-1",
		CartID:    "cart-demo-1",
		CartItems: []cartItemRequest{},
	}
	resp := doPost(t, "/checkout/initiate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestInitiate_ZeroQuantity(t *testing.T) {
	req := initiateRequest{
		UserID: "user-demo-1",
		CartID: "cart-demo-1",
		CartItems: []cartItemRequest{
			{ProductID: "prod-tee-logo", Quantity: 0},
		},
	}
	resp := doPost(t, "/checkout/initiate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestInitiate_UnknownProduct(t *testing.T) {
	req := initiateRequest{
		UserID: "user-demo-1",
		CartID: "cart-demo-1",
		CartItems: []cartItemRequest{
			{ProductID: "prod-does-not-exist", Quantity: 1},
		},
	}
	resp := doPost(t, "/checkout/initiate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// The test environment points the payment gateway at a closed port, so a
// well-formed initiate request must fail with a generic error and leave no
// order behind.
func TestInitiate_GatewayUnreachable(t *testing.T) {
	const userID = "user-gateway-down"

	req := initiateRequest{
		UserID: userID,
		CartID: "cart-demo-1",
		CartItems: []cartItemRequest{
			{ProductID: "prod-tee-logo", Quantity: 2},
		},
	}
	resp := doPost(t, "/checkout/initiate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Success {
		t.Error("expected success=false")
	}
	if strings.Contains(body.Message, "127.0.0.1") || strings.Contains(body.Message, "connection") {
		t.Errorf("gateway detail leaked to client: %q", body.Message)
	}

	// No pending order may exist for this user.
	listResp := doGet(t, "/orders/user/"+userID)
	defer listResp.Body.Close()

	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", listResp.StatusCode)
	}
	list := decodeJSON[listOrdersResponse](t, listResp)
	if len(list.Data) != 0 {
		t.Errorf("expected no orders, got %d", len(list.Data))
	}
}

func TestCapture_MissingOrderID(t *testing.T) {
	resp := doPost(t, "/checkout/capture", captureRequest{
		PaymentID: "PAY-1",
		PayerID:   "PAYER-1",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCapture_UnknownOrder(t *testing.T) {
	resp := doPost(t, "/checkout/capture", captureRequest{
		OrderID:   "00000000-0000-0000-0000-000000000000",
		PaymentID: "PAY-1",
		PayerID:   "PAYER-1",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Success {
		t.Error("expected success=false")
	}
}
