package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
	redisstore "github.com/nt8816/bibliotecai-core/internal/store/redis"
)

// EventSubscriber abstracts the provisioning-event fanout for the SSE
// stream. *redis.PubSub satisfies this interface.
type EventSubscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// eventsHandler streams a school's provisioning events to staff dashboards
// as server-sent events, one `data:` frame per Redis message.
type eventsHandler struct {
	events EventSubscriber
}

func newEventsHandler(events EventSubscriber) *eventsHandler {
	return &eventsHandler{events: events}
}

func (h *eventsHandler) provisioning(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "schoolID"))
	if err != nil {
		http.Error(w, `{"title":"Bad Request","status":400,"detail":"invalid school id"}`, http.StatusBadRequest)
		return
	}

	// Staff are pinned to the school in their token; platform admins may
	// watch any school.
	if role, _ := middleware.RoleFromContext(r.Context()); role != middleware.RoleAdmin {
		own, ok := middleware.SchoolIDFromContext(r.Context())
		if !ok || own != schoolID {
			http.Error(w, `{"title":"Forbidden","status":403,"detail":"cannot watch another school"}`, http.StatusForbidden)
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"title":"Internal Server Error","status":500,"detail":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	ch, cleanup, err := h.events.Subscribe(r.Context(), redisstore.ProvisioningChannel(schoolID))
	if err != nil {
		log.Error().Err(err).Str("escola_id", schoolID.String()).Msg("events: subscribe failed")
		http.Error(w, `{"title":"Internal Server Error","status":500,"detail":"subscription failed"}`, http.StatusInternalServerError)
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, open := <-ch:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
