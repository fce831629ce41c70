package ws

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
	"nhooyr.io/websocket"
)

// Handler upgrades GET /ws. Sockets start unbound; identity is attached by
// the setup event.
type Handler struct {
	hub            *Hub
	chats          ChatAuthorizer
	verifier       TokenVerifier
	originPatterns []string
}

func NewHandler(hub *Hub, chats ChatAuthorizer, verifier TokenVerifier, originPatterns []string) *Handler {
	return &Handler{hub: hub, chats: chats, verifier: verifier, originPatterns: originPatterns}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Warn().Err(err).Msg("ws: accept failed")
		return
	}

	client := newClient(h.hub, conn, h.chats, h.verifier, upgradeToken(r))
	log.Info().Str("client", client.id).Str("remote", r.RemoteAddr).Msg("ws: client connected")

	client.run(r.Context())
}

// upgradeToken returns the token offered on the upgrade request: the token
// query parameter, a bearer header, or the token cookie.
func upgradeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if token := middleware.BearerToken(r); token != "" {
		return token
	}
	if c, err := r.Cookie(middleware.TokenCookie); err == nil {
		return c.Value
	}
	return ""
}
