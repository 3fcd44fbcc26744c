// internal/app/features/realtime/handler.go
//
// Package realtime pushes published-donation changes to clients as
// server-sent events.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	publisheddonationstore "github.com/mealbridge/mealbridge/internal/app/store/publisheddonations"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

type Handler struct {
	Store     *publisheddonationstore.Store
	Heartbeat time.Duration
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Store: publisheddonationstore.New(db), Heartbeat: heartbeatInterval, Log: logger}
}

type event struct {
	Op       string                    `json:"op"`
	ID       primitive.ObjectID        `json:"id"`
	Donation *models.PublishedDonation `json:"donation,omitempty"`
}

// ServePublishedDonations streams changes until the client goes away.
func (h *Handler) ServePublishedDonations(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		apierr.Write(w, http.StatusInternalServerError, "Streaming is not supported.")
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cs, err := h.Store.Watch(ctx)
	if err != nil {
		if publisheddonationstore.IsChangeStreamUnsupported(err) {
			apierr.Fail(w, h.Log, "watch published donations",
				apierr.New(apierr.ErrUnavailable, "Live updates need a replica set."))
			return
		}
		apierr.Fail(w, h.Log, "watch published donations", err)
		return
	}

	events := make(chan event)
	go func() {
		defer close(events)
		defer cs.Close(context.WithoutCancel(ctx))
		for cs.Next(ctx) {
			var ce publisheddonationstore.ChangeEvent
			if err := cs.Decode(&ce); err != nil {
				h.Log.Warn("decode change event failed", zap.Error(err))
				continue
			}
			select {
			case events <- event{Op: ce.Op, ID: ce.Key.ID, Donation: ce.Document}:
			case <-ctx.Done():
				return
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			h.Log.Warn("change stream ended", zap.Error(err))
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Log.Warn("marshal change event failed", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Op, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
