package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lewisedginton/health_companion/internal/alexa"
	"github.com/lewisedginton/health_companion/pkg/logger"
)

const jsonContentType = "application/json;charset=UTF-8"

// handleAlexa is the transport adapter: read, verify, decode, dispatch, render.
func (s *Server) handleAlexa(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLoggerFromContext(ctx, s.log)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Security.MaxRequestSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("Request body too large", logger.Int64Field("limit", tooLarge.Limit))
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn("Failed to read request body", logger.ErrorField(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := s.verifier.VerifySignature(ctx, r.Header, body); err != nil {
		log.Warn("Request verification failed", logger.ErrorField(err))
		http.Error(w, "request verification failed", http.StatusBadRequest)
		return
	}

	var env alexa.RequestEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Warn("Malformed request envelope", logger.ErrorField(err))
		http.Error(w, "malformed request envelope", http.StatusBadRequest)
		return
	}
	if env.Request.Type == "" {
		log.Warn("Request envelope has no request type")
		http.Error(w, "malformed request envelope", http.StatusBadRequest)
		return
	}

	if err := s.verifier.VerifyEnvelope(&env); err != nil {
		log.Warn("Request verification failed",
			logger.ErrorField(err),
			logger.StringField("request_id", env.Request.RequestID))
		http.Error(w, "request verification failed", http.StatusBadRequest)
		return
	}

	resp := s.dispatcher.Dispatch(ctx, &env)

	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(alexa.Render(&env, resp)); err != nil {
		log.Error("Failed to write response", logger.ErrorField(err))
	}
}
