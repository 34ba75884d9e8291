package tracking

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves the pixel, click redirect, and provider webhook endpoints.
type Handler struct {
	sink Sink
}

func NewHandler(sink Sink) *Handler {
	return &Handler{sink: sink}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/track/open/{token}", h.HandleOpen)
	r.Get("/track/click/{token}", h.HandleClick)
	r.Post("/webhooks/events", h.HandleWebhook)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records an open and serves the pixel. A malformed token still
// gets the pixel: tracking failures must never break the email render.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	tok, err := DecodeToken(chi.URLParam(r, "token"))
	if err != nil {
		h.servePixel(w)
		return
	}

	h.sink.Record(r.Context(), Event{
		EventType:   "opened",
		CampaignID:  tok.CampaignID,
		RecipientID: tok.RecipientID,
		IPAddress:   realIP(r),
		UserAgent:   r.UserAgent(),
		Timestamp:   time.Now().UTC(),
	})

	log.Printf("[tracking.Handler] OPEN campaign=%s recipient=%s", tok.CampaignID, tok.RecipientID)
	h.servePixel(w)
}

// HandleClick records a click and redirects to the original URL.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	tok, err := DecodeToken(chi.URLParam(r, "token"))
	if err != nil {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" || !strings.HasPrefix(target, "http") {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}

	h.sink.Record(r.Context(), Event{
		EventType:   "clicked",
		CampaignID:  tok.CampaignID,
		RecipientID: tok.RecipientID,
		LinkURL:     target,
		IPAddress:   realIP(r),
		UserAgent:   r.UserAgent(),
		Timestamp:   time.Now().UTC(),
	})

	log.Printf("[tracking.Handler] CLICK campaign=%s recipient=%s url=%s", tok.CampaignID, tok.RecipientID, target)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleWebhook ingests provider delivery callbacks (delivered, bounced).
// The body is a JSON array of events; unknown event types are skipped so a
// provider adding new types does not start bouncing the whole batch.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var events []Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	accepted := 0
	for _, evt := range events {
		if !evt.EventType.Valid() || evt.RecipientID == "" {
			continue
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		h.sink.Record(r.Context(), evt)
		accepted++
	}

	log.Printf("[tracking.Handler] webhook batch: %d/%d accepted", accepted, len(events))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"accepted": accepted})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
