package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/propstream/internal/logger"
	"github.com/marmos91/propstream/pkg/itemkey"
	"github.com/marmos91/propstream/pkg/metrics"
	"github.com/marmos91/propstream/pkg/readpipeline"
	"github.com/marmos91/propstream/pkg/storeerr"
	"github.com/marmos91/propstream/pkg/writepipeline"
)

// Handlers holds the pipelines backing propstream's HTTP surface.
type Handlers struct {
	write   *writepipeline.Pipeline
	read    *readpipeline.Pipeline
	metrics *metrics.Metrics
}

// NewHandlers constructs Handlers. metrics may be nil.
func NewHandlers(write *writepipeline.Pipeline, read *readpipeline.Pipeline, m *metrics.Metrics) *Handlers {
	return &Handlers{write: write, read: read, metrics: m}
}

// WriteItemStream handles POST /write-item-stream/{item_id}/{version}.
func (h *Handlers) WriteItemStream(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r)
	if err != nil {
		WriteStoreError(w, err)
		return
	}

	start := time.Now()
	h.metrics.WriterStarted()
	defer h.metrics.WriterFinished()

	result, err := h.write.Run(key, r.Body)
	h.metrics.ObserveWrite(result.PropertiesWritten, result.BytesAppended, len(result.Errors), time.Since(start))

	if err != nil {
		if se, ok := err.(*storeerr.StoreError); ok && se.Code == storeerr.ErrBusy {
			h.metrics.IncWriterBusy()
		}
		logger.WarnCtx(r.Context(), "write-item-stream failed", "item_id", key.ItemID, "version", key.Version, "error", err)
		WriteStoreError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, writeResponse{
		PropertiesWritten: result.PropertiesWritten,
		BytesAppended:     result.BytesAppended,
		Errors:            errorStrings(result.Errors),
	})
}

type writeResponse struct {
	PropertiesWritten int      `json:"properties_written"`
	BytesAppended     int64    `json:"bytes_appended"`
	Errors            []string `json:"errors,omitempty"`
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

// ReadItemStream handles GET /read-item-stream/{item_id}/{version}. It
// streams the item's bytes as they become available, unblocking the HTTP
// response writer on every flush so the client observes appends in real
// time rather than waiting for the full file.
func (h *Handlers) ReadItemStream(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r)
	if err != nil {
		WriteStoreError(w, err)
		return
	}

	start := time.Now()
	stream, err := h.read.Open(r.Context(), key)
	if err != nil {
		WriteStoreError(w, err)
		return
	}
	defer stream.Close()
	defer h.metrics.ReaderFinished(time.Since(start))
	h.metrics.ReaderStarted()

	w.Header().Set("Content-Type", "application/xml")
	flusher, _ := w.(http.Flusher)

	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				logger.WarnCtx(r.Context(), "read-item-stream aborted", "item_id", key.ItemID, "version", key.Version, "error", err)
			}
			return
		}
	}
}

func parseKey(r *http.Request) (itemkey.Key, error) {
	itemID := chi.URLParam(r, "item_id")
	versionText := chi.URLParam(r, "version")

	version, err := itemkey.ParseVersion(versionText)
	if err != nil {
		return itemkey.Key{}, err
	}
	return itemkey.Validate(itemID, version)
}

// Liveness handles GET /health.
func Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready.
func Readiness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
