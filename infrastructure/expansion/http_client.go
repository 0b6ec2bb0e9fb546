// Package expansion provides concept expansion oracle clients.
package expansion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"conceptgraph-backend/application/ports"
	pkgerrors "conceptgraph-backend/pkg/errors"
	"conceptgraph-backend/pkg/utils"
)

const expandPath = "/api/v1/expand"

// HTTPClient calls the remote concept expansion service over HTTP. A circuit
// breaker guards the upstream; while open, expansions fail fast with a
// transport error and the affected node stays retryable.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPClient creates an oracle client for baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "concept-expansion-service",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("oracle circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Expand implements ports.ConceptExpander
func (c *HTTPClient) Expand(ctx context.Context, req ports.ExpansionRequest) (*ports.ExpansionResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doExpand(ctx, req)
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			return nil, pkgerrors.NewExternalError("concept expansion service",
				"temporarily unavailable, too many recent failures").WithCause(err)
		}
		return nil, err
	}

	return result.(*ports.ExpansionResponse), nil
}

func (c *HTTPClient) doExpand(ctx context.Context, req ports.ExpansionRequest) (*ports.ExpansionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode expansion request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+expandPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expansion request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.NewExternalError("concept expansion service", "request failed").WithCause(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(httpResp.Body, 4096))
		return nil, pkgerrors.NewExternalError("concept expansion service",
			fmt.Sprintf("unexpected status %d", httpResp.StatusCode))
	}

	var resp ports.ExpansionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, pkgerrors.NewExternalError("concept expansion service", "malformed response").WithCause(err)
	}

	c.logger.Debug("oracle expansion fetched",
		zap.String("concept", req.ConceptName),
		zap.Int("relatedConcepts", len(resp.RelatedConcepts)),
		zap.Int("supportingEvidence", len(resp.SupportingEvidence)),
		zap.Int("counterArguments", len(resp.CounterArguments)),
		zap.Int("crossDomain", len(resp.CrossDomain)),
		zap.Duration("duration", time.Since(start)),
	)

	return &resp, nil
}
