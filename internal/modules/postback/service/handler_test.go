package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.ReplaceLogger(zap.NewNop())
}

type staticSecrets map[string]string

func (s staticSecrets) APISecret(userID string) (string, bool) {
	secret, ok := s[userID]
	return secret, ok
}

func signedPostback(t *testing.T, secret string) models.Postback {
	t.Helper()
	pb := models.Postback{
		OrderID:        "order-1",
		UserID:         "u1",
		Status:         models.StatusComplete,
		Variety:        models.VarietyRegular,
		FilledQuantity: 49,
		AveragePrice:   200,
		Token:          1,
		OrderTimestamp: "2026-09-01 10:00:00",
	}
	sum := sha256.Sum256([]byte(pb.OrderID + pb.OrderTimestamp + secret))
	pb.Checksum = hex.EncodeToString(sum[:])
	return pb
}

func post(t *testing.T, h *Handler, pb models.Postback) *httptest.ResponseRecorder {
	t.Helper()
	body, err := sonic.Marshal(pb)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/postback", strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlerAcceptsSignedPostback(t *testing.T) {
	queue := make(chan models.Postback, 1)
	h := NewHandler(staticSecrets{"u1": "secret"}, queue)

	w := post(t, h, signedPostback(t, "secret"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "order details received.", w.Body.String())

	got := <-queue
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, models.StatusComplete, got.Status)
	assert.Equal(t, 49, got.FilledQuantity)
}

func TestHandlerRejectsBadChecksum(t *testing.T) {
	queue := make(chan models.Postback, 1)
	h := NewHandler(staticSecrets{"u1": "secret"}, queue)

	pb := signedPostback(t, "wrong-secret")
	w := post(t, h, pb)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, queue)
}

func TestHandlerRejectsUnknownUser(t *testing.T) {
	queue := make(chan models.Postback, 1)
	h := NewHandler(staticSecrets{}, queue)

	w := post(t, h, signedPostback(t, "secret"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, queue)
}

func TestHandlerRejectsBadPayload(t *testing.T) {
	queue := make(chan models.Postback, 1)
	h := NewHandler(staticSecrets{"u1": "secret"}, queue)

	req := httptest.NewRequest(http.MethodPost, "/postback", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, queue)
}

func TestHandlerRejectsNonPost(t *testing.T) {
	h := NewHandler(staticSecrets{}, make(chan models.Postback, 1))

	req := httptest.NewRequest(http.MethodGet, "/postback", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
