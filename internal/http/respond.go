package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
	"github.com/kjstillabower/solar-forecast-service/internal/observability"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgPack = "application/x-msgpack"
)

// writeResponse encodes v as JSON, or as MessagePack when the request carries format=msgpack.
// MessagePack reuses the json struct tags so both encodings share field names.
// The body is encoded before the status is written so an encoding failure still
// becomes a 500.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	contentType, body, err := encode(r, v)
	if err != nil {
		observability.LoggerFromContext(r.Context(), nil).Error("encode response", zap.Int("status", status), zap.Error(err))
		contentType, body, err = encode(r, models.ErrorResponse{Error: msgInternalError})
		if err != nil {
			http.Error(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		observability.LoggerFromContext(r.Context(), nil).Debug("write response", zap.Error(err))
	}
}

func encode(r *http.Request, v any) (string, []byte, error) {
	var buf bytes.Buffer
	if r.URL.Query().Get("format") == "msgpack" {
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(v); err != nil {
			return "", nil, fmt.Errorf("encode msgpack: %w", err)
		}
		return contentTypeMsgPack, buf.Bytes(), nil
	}
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return "", nil, fmt.Errorf("encode json: %w", err)
	}
	return contentTypeJSON, buf.Bytes(), nil
}

// writeData writes the {"data": ...} success envelope.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeResponse(w, r, status, models.DataResponse{Data: data})
}

// writeError writes the {"error": "..."} envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeResponse(w, r, status, models.ErrorResponse{Error: message})
}
