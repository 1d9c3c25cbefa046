package httpapi

import (
	"io"
	"net/http"

	"github.com/Miura55/freee-labor-bot/internal/server/line"
)

// handleCallback receives LINE webhook deliveries. Every parsed delivery is
// acknowledged with 200; failures of single events are only logged.
func (r *Router) handleCallback(w http.ResponseWriter, req *http.Request) {
	r.limitBody(w, req)
	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	hook, err := line.ParseWebhook(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid webhook body"})
		return
	}

	logger := r.logger.With("request_id", getRequestID(req.Context()))
	if hook.IsConnectionCheck() {
		logger.Info("webhook connection check")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	for _, ev := range hook.Events {
		if err := r.services.Conversation.HandleEvent(req.Context(), ev); err != nil {
			logger.Error("handle event", "type", ev.Type, "user_id", ev.Source.UserID, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
