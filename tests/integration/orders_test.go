//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestGetOrder_Unknown(t *testing.T) {
	resp := doGet(t, "/orders/11111111-1111-1111-1111-111111111111")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListOrders_UnknownUser(t *testing.T) {
	resp := doGet(t, "/orders/user/no-such-user")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[listOrdersResponse](t, resp)
	if !body.Success {
		t.Error("expected success=true")
	}
	if len(body.Data) != 0 {
		t.Errorf("expected empty list, got %d orders", len(body.Data))
	}
}
