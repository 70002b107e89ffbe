package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

// EphemeralKey is a short lived credential usable in place of an API key.
type EphemeralKey struct {
	Value     string
	ExpiresAt time.Time
}

type ephemeralKeyRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice,omitzero"`
}

type ephemeralKeyResponse struct {
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

var httpClient = &http.Client{
	Transport: otelhttp.NewTransport(http.DefaultTransport),
	Timeout:   15 * time.Second,
}

// FetchEphemeralKey exchanges apiKey for a session scoped credential at
// baseURL (for example https://api.openai.com).
func FetchEphemeralKey(ctx context.Context, baseURL, apiKey, model, voice string) (*EphemeralKey, error) {
	ctx, span := tracer.Start(ctx, "fetch ephemeral key")
	defer span.End()

	body, err := json.Marshal(ephemeralKeyRequest{Model: model, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/v1/realtime/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to request ephemeral key: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("ephemeral key request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(message)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var decoded ephemeralKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		err = fmt.Errorf("failed to decode ephemeral key: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if decoded.ClientSecret.Value == "" {
		err := fmt.Errorf("ephemeral key response has no client secret")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &EphemeralKey{
		Value:     decoded.ClientSecret.Value,
		ExpiresAt: time.Unix(decoded.ClientSecret.ExpiresAt, 0),
	}, nil
}
