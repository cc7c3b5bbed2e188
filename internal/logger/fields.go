package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so aggregation and
// querying tools can rely on a stable schema.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// HTTP Request
	// ========================================================================
	KeyRequestID = "request_id" // HTTP request id (chi middleware)
	KeyClientIP  = "client_ip"  // Client IP address
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // HTTP request path
	KeyStatus    = "status"     // HTTP response status code

	// ========================================================================
	// Item / Stream Identity
	// ========================================================================
	KeyItemID      = "item_id"      // Item identifier
	KeyVersion     = "version"      // Item version
	KeySubscriber  = "subscriber"   // Read-subscriber id
	KeyPropertyFor = "property_for" // Property name being processed

	// ========================================================================
	// Streaming I/O
	// ========================================================================
	KeyWatermark      = "watermark"       // SharedFile watermark (durable byte count)
	KeyOffset         = "offset"          // Reader offset into the data file
	KeyBytesWritten   = "bytes_written"   // Bytes appended to the data file
	KeyBytesRead      = "bytes_read"      // Bytes delivered to a reader
	KeyPropertiesDone = "properties_done" // Count of properties accepted in a write

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // StoreError code
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the HTTP request id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for client IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Method returns a slog.Attr for the HTTP method.
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path returns a slog.Attr for the HTTP request path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status returns a slog.Attr for an HTTP response status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// ItemID returns a slog.Attr for the item identifier.
func ItemID(id string) slog.Attr {
	return slog.String(KeyItemID, id)
}

// Version returns a slog.Attr for the item version.
func Version(v uint64) slog.Attr {
	return slog.Uint64(KeyVersion, v)
}

// Subscriber returns a slog.Attr for a read-subscriber id.
func Subscriber(id string) slog.Attr {
	return slog.String(KeySubscriber, id)
}

// PropertyFor returns a slog.Attr for the property name being processed.
func PropertyFor(name string) slog.Attr {
	return slog.String(KeyPropertyFor, name)
}

// Watermark returns a slog.Attr for a SharedFile watermark.
func Watermark(n int64) slog.Attr {
	return slog.Int64(KeyWatermark, n)
}

// Offset returns a slog.Attr for a reader offset.
func Offset(n int64) slog.Attr {
	return slog.Int64(KeyOffset, n)
}

// BytesWritten returns a slog.Attr for bytes appended.
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// BytesRead returns a slog.Attr for bytes delivered to a reader.
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// PropertiesDone returns a slog.Attr for the count of accepted properties.
func PropertiesDone(n int) slog.Attr {
	return slog.Int(KeyPropertiesDone, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric StoreError code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}
