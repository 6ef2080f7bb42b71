package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streamshare/streamshare/pkg/coalesce"
	"github.com/streamshare/streamshare/pkg/logger"
	"github.com/streamshare/streamshare/pkg/urlsign"
	"github.com/streamshare/streamshare/pkg/wsocket"
)

// closeTryAgainLater is the WebSocket close code for transient server
// overload (RFC 6455 section 7.4.2 registry).
const closeTryAgainLater = 1013

type handler struct {
	broker   *coalesce.Broker
	signer   *urlsign.Signer
	signTTL  time.Duration
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func newHandler(broker *coalesce.Broker, signer *urlsign.Signer, signTTL time.Duration, log *slog.Logger) *handler {
	return &handler{
		broker:  broker,
		signer:  signer,
		signTTL: signTTL,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 32768,
			// Share tokens are self-authenticating, so cross-origin browser
			// clients are allowed.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// share upgrades the request to a WebSocket and attaches it as a
// subscriber to the coalesced stream for the sealed locator in "u" and
// the optional byte range in "range". Token verification happens before
// the upgrade so rejected requests cost a plain 4xx, not a socket.
func (h *handler) share(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("u")
	rangeDesc := r.URL.Query().Get("range")

	locator, err := h.signer.Verify(token, time.Now())
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, urlsign.ErrTokenExpired) {
			status = http.StatusGone
		}
		http.Error(w, err.Error(), status)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Debug("websocket upgrade failed", logger.Error(err))
		return
	}

	conn := wsocket.New(ws)
	if err := h.broker.Join(locator, rangeDesc, conn); err != nil {
		h.log.Warn("join rejected", logger.Error(err))
		_ = conn.Close(closeTryAgainLater, "session capacity reached")
	}
}

// stats serves the broker's dedup accounting snapshot.
func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.broker.Stats()); err != nil {
		h.log.Debug("stats encode failed", logger.Error(err))
	}
}

type signRequest struct {
	Locator string `json:"locator"`
}

type signResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// sign mints a sealed share token for a raw locator. Only mounted when
// SIGN_ENDPOINT_ENABLED is set.
func (h *handler) sign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Locator == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expiresAt := time.Now().Add(h.signTTL)
	token, err := h.signer.Seal(req.Locator, expiresAt)
	if err != nil {
		http.Error(w, "sealing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(signResponse{Token: token, ExpiresAt: expiresAt})
}
