package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storemaster/internal/app"
	"storemaster/internal/config"
	"storemaster/internal/database"
	"storemaster/internal/payment"
)

// fakeGateway approves every order and captures with a fixed status.
type fakeGateway struct {
	capture payment.CaptureStatus
	created int
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	g.created++
	id := fmt.Sprintf("ORDER-%d", g.created)
	return &payment.Order{ID: id, ApprovalURL: "https://paypal.test/approve?token=" + id}, nil
}

func (g *fakeGateway) CaptureOrder(_ context.Context, _ string) (payment.CaptureStatus, error) {
	return g.capture, nil
}

// setupApp builds the full application on a private in-memory SQLite database.
func setupApp(t *testing.T, gateway payment.Gateway) *fiber.App {
	t.Helper()

	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	application, err := app.New(app.Options{
		Config:  config.Defaults(),
		DB:      db,
		Gateway: gateway,
		Quiet:   true,
	})
	require.NoError(t, err)
	return application
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, application *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := application.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func signUpOwner(t *testing.T, application *fiber.App, username string) (string, string) {
	t.Helper()

	status, body := doJSON(t, application, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
		"role":            "StoreOwner",
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	details := user["storeOwnerDetails"].(map[string]any)
	return body["token"].(string), details["storeId"].(string)
}

func TestAuthSignUpAndLogin(t *testing.T) {
	application := setupApp(t, &fakeGateway{capture: payment.CaptureCompleted})

	token, storeID := signUpOwner(t, application, "testuser")
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, storeID)

	// Duplicate registration
	status, body := doJSON(t, application, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username":        "testuser",
		"email":           "testuser@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
		"role":            "StoreOwner",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	// Login by username and by email
	for _, identifier := range []string{"testuser", "testuser@example.com"} {
		status, body = doJSON(t, application, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"identifier": identifier,
			"password":   "password123",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["token"])
	}

	status, _ = doJSON(t, application, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"identifier": "testuser",
		"password":   "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "testuser", body["user"].(map[string]any)["username"])
}

func TestSignUpValidationErrors(t *testing.T) {
	application := setupApp(t, nil)

	status, body := doJSON(t, application, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username":        "shorty",
		"email":           "not-an-email",
		"password":        "password123",
		"confirmPassword": "different123",
		"role":            "Customer",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])
	fields := body["errors"].(map[string]any)
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "ConfirmPassword")
}

func TestPremiumSignUpRequiresPayment(t *testing.T) {
	gateway := &fakeGateway{capture: payment.CaptureCompleted}
	application := setupApp(t, gateway)

	status, body := doJSON(t, application, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username":        "premium",
		"email":           "premium@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
		"role":            "StoreOwner",
		"plan":            "Premium",
		"paymentMethod":   "PayPal",
		"paypalEmail":     "payer@example.com",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "https://paypal.test/approve?token=ORDER-1", body["approvalUrl"])
	assert.Nil(t, body["token"])

	login := map[string]any{"identifier": "premium", "password": "password123"}
	status, _ = doJSON(t, application, http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/auth/paypal/return?token=ORDER-1&PayerID=X", "", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "Completed", body["subscription"].(map[string]any)["status"])

	// A repeated callback settles nothing new.
	status, _ = doJSON(t, application, http.MethodGet, "/api/v1/auth/paypal/return?token=ORDER-1", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, application, http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
}

func TestPayPalCallbacks(t *testing.T) {
	application := setupApp(t, &fakeGateway{capture: payment.CaptureFailed})

	status, _ := doJSON(t, application, http.MethodGet, "/api/v1/auth/paypal/return", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, application, http.MethodGet, "/api/v1/auth/paypal/return?token=UNKNOWN", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, application, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username":        "unlucky",
		"email":           "unlucky@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
		"role":            "StoreOwner",
		"plan":            "Premium",
		"paymentMethod":   "PayPal",
		"paypalEmail":     "payer@example.com",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, application, http.MethodGet, "/api/v1/auth/paypal/return?token=ORDER-1", "", nil)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "Failed", body["subscription"].(map[string]any)["status"])
}

func TestProductLifecycle(t *testing.T) {
	application := setupApp(t, nil)
	token, storeID := signUpOwner(t, application, "merchant")

	status, body := doJSON(t, application, http.MethodPost, "/api/v1/products", token, map[string]any{
		"title":    "Classic Tee",
		"category": "Apparel",
		"price":    "19.99",
		"images":   []string{"https://cdn.example.com/tee.png"},
		"variants": []map[string]any{
			{"name": "Color", "values": []string{"Red", "Blue"}},
			{"name": "Size", "values": []string{"S", "M", "L"}},
		},
	})
	require.Equal(t, http.StatusCreated, status, body)
	product := body["product"].(map[string]any)
	productID := product["id"].(string)
	assert.Equal(t, storeID, product["storeId"])
	combinations := product["variantCombinations"].([]any)
	require.Len(t, combinations, 6)
	first := combinations[0].(map[string]any)
	assert.Equal(t, map[string]any{"Color": "Red", "Size": "S"}, first["attributes"])
	sku := first["sku"].(string)
	assert.True(t, strings.HasPrefix(sku, "classic-tee-"+storeID+"-0-"), sku)
	assert.Equal(t, float64(0), product["totalStock"])

	status, body = doJSON(t, application, http.MethodPatch, "/api/v1/products/"+productID+"/combinations/"+sku, token, map[string]any{
		"stock": 7,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(7), body["product"].(map[string]any)["totalStock"])

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/products/"+productID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(7), body["product"].(map[string]any)["totalStock"])

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/stores/"+storeID+"/products", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["products"], 1)

	status, body = doJSON(t, application, http.MethodPut, "/api/v1/products/"+productID, token, map[string]any{
		"title":    "Classic Tee v2",
		"variants": []map[string]any{},
	})
	require.Equal(t, http.StatusOK, status, body)
	updated := body["product"].(map[string]any)
	assert.Equal(t, "Classic Tee v2", updated["title"])
	assert.Empty(t, updated["variantCombinations"])
	assert.Equal(t, float64(0), updated["totalStock"])

	status, body = doJSON(t, application, http.MethodDelete, "/api/v1/products/"+productID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["message"], "deleted successfully")

	status, _ = doJSON(t, application, http.MethodGet, "/api/v1/products/"+productID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductOwnership(t *testing.T) {
	application := setupApp(t, nil)
	ownerToken, _ := signUpOwner(t, application, "owner")
	otherToken, otherStore := signUpOwner(t, application, "intruder")

	status, body := doJSON(t, application, http.MethodPost, "/api/v1/products", ownerToken, map[string]any{
		"title":    "Mug",
		"category": "Kitchen",
		"price":    "8.50",
		"images":   []string{"https://cdn.example.com/mug.png"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	productID := body["product"].(map[string]any)["id"].(string)

	status, _ = doJSON(t, application, http.MethodDelete, "/api/v1/products/"+productID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, application, http.MethodPut, "/api/v1/products/"+productID, otherToken, map[string]any{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/products/"+productID, otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Mug", body["product"].(map[string]any)["title"])

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/stores/"+otherStore+"/products", otherToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["products"])

	status, _ = doJSON(t, application, http.MethodGet, "/api/v1/stores/no-such-store/products", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductEndpointsWithoutAuth(t *testing.T) {
	application := setupApp(t, nil)

	status, body := doJSON(t, application, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	status, _ = doJSON(t, application, http.MethodPost, "/api/v1/products", "", map[string]any{"title": "Unauthorized"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, application, http.MethodGet, "/api/v1/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStoreAndSetupGuide(t *testing.T) {
	application := setupApp(t, nil)
	token, storeID := signUpOwner(t, application, "shopkeeper")

	status, body := doJSON(t, application, http.MethodPut, "/api/v1/stores/"+storeID, token, map[string]any{
		"name":       "Corner Shop",
		"phone":      "+1 555 0100 200",
		"categories": []string{"Electronics"},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Corner Shop", body["store"].(map[string]any)["name"])

	status, body = doJSON(t, application, http.MethodPut, "/api/v1/stores/"+storeID, token, map[string]any{"phone": "abc"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["errors"], "Phone")

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/users/setup-guide", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["setupGuide"], 4)

	status, body = doJSON(t, application, http.MethodPut, "/api/v1/users/setup-guide/2", token, map[string]any{"isCompleted": true})
	require.Equal(t, http.StatusOK, status, body)
	step := body["setupGuide"].([]any)[1].(map[string]any)
	assert.Equal(t, true, step["isCompleted"])

	status, _ = doJSON(t, application, http.MethodPut, "/api/v1/users/setup-guide/9", token, map[string]any{"isCompleted": true})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestApplications(t *testing.T) {
	application := setupApp(t, nil)
	token, _ := signUpOwner(t, application, "employer")

	status, body := doJSON(t, application, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	ownerID := body["user"].(map[string]any)["id"].(string)

	status, body = doJSON(t, application, http.MethodPost, "/api/v1/applications", "", map[string]any{
		"applicantName": "Jane Doe",
		"jobPosition":   "Cashier",
		"storeOwnerId":  ownerID,
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = doJSON(t, application, http.MethodGet, "/api/v1/applications", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["applications"], 1)

	status, _ = doJSON(t, application, http.MethodGet, "/api/v1/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
