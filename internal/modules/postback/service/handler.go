package service

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"

	"github.com/bytedance/sonic"
)

// SecretResolver maps a user id to the API secret its postback checksums are
// signed with.
type SecretResolver interface {
	APISecret(userID string) (string, bool)
}

// Handler accepts broker order notifications, verifies their signature and
// queues them for reconciliation. The enqueue blocks: a notification is
// never dropped once accepted.
type Handler struct {
	secrets SecretResolver
	queue   chan<- models.Postback
}

func NewHandler(secrets SecretResolver, queue chan<- models.Postback) *Handler {
	return &Handler{secrets: secrets, queue: queue}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}

	var pb models.Postback
	if err := sonic.Unmarshal(body, &pb); err != nil {
		logger.Error("postback decode failed: %v", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	secret, ok := h.secrets.APISecret(pb.UserID)
	if !ok {
		logger.Error("postback for unknown user %s discarded", pb.UserID)
		http.Error(w, "unknown user", http.StatusForbidden)
		return
	}
	if !verifyChecksum(pb, secret) {
		logger.Error("postback checksum mismatch: user=%s order=%s", pb.UserID, pb.OrderID)
		http.Error(w, "checksum mismatch", http.StatusForbidden)
		return
	}

	h.queue <- pb
	_, _ = w.Write([]byte("order details received."))
}

// verifyChecksum checks the broker's signature: hex sha256 over the order
// id, the order timestamp and the account's API secret, concatenated.
func verifyChecksum(pb models.Postback, secret string) bool {
	sum := sha256.Sum256([]byte(pb.OrderID + pb.OrderTimestamp + secret))
	return hex.EncodeToString(sum[:]) == pb.Checksum
}
