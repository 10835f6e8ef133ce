package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/transports/internal/graphql"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// Server is the HTTP server for the transports service.
type Server struct {
	port     int
	logger   *otelzap.Logger
	gatherer prometheus.Gatherer
	resolver *graphql.Resolver
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance. A nil gatherer serves the default registry.
func New(cfg Config, resolver *graphql.Resolver, gatherer prometheus.Gatherer, logger *otelzap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		port:     cfg.Port,
		logger:   logger,
		gatherer: gatherer,
		resolver: resolver,
	}
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// GraphQL endpoint
	mux.HandleFunc("/graphql", s.handleGraphQL)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// GraphQL request/response types
type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeErrors(w, http.StatusMethodNotAllowed, "Method not allowed, use POST")
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	doc, gqlErrs := gqlparser.LoadQuery(graphql.Schema(), req.Query)
	if len(gqlErrs) > 0 {
		msgs := make([]string, len(gqlErrs))
		for i, e := range gqlErrs {
			msgs[i] = e.Message
		}
		writeErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	op := selectOperation(doc.Operations, req.OperationName)
	if op == nil {
		writeErrors(w, http.StatusBadRequest, "Unknown operation")
		return
	}
	if op.Operation == ast.Subscription {
		writeErrors(w, http.StatusBadRequest, "Subscriptions are not supported")
		return
	}

	resp := s.execute(r.Context(), op, req.Variables)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) execute(ctx context.Context, op *ast.OperationDefinition, vars map[string]any) graphQLResponse {
	resp := graphQLResponse{Data: map[string]any{}}

	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			resp.Errors = append(resp.Errors, graphQLError{Message: "Fragments are not supported at the operation root"})
			continue
		}
		if !included(field.Directives, vars) {
			continue
		}
		key := field.Alias
		if key == "" {
			key = field.Name
		}

		value, err := s.resolveField(ctx, op.Operation, field.Name, field.ArgumentMap(vars))
		if err == nil {
			value, err = project(value, field.SelectionSet, vars)
		}
		if err != nil {
			s.logger.Ctx(ctx).Warn("GraphQL field failed", zap.String("field", field.Name), zap.Error(err))
			resp.Errors = append(resp.Errors, graphQLError{Message: err.Error(), Path: []any{key}})
			resp.Data[key] = nil
			continue
		}
		resp.Data[key] = value
	}
	return resp
}

func (s *Server) resolveField(ctx context.Context, operation ast.Operation, name string, args map[string]any) (any, error) {
	if name == "__typename" {
		if operation == ast.Mutation {
			return "Mutation", nil
		}
		return "Query", nil
	}

	if operation == ast.Mutation {
		mutation := s.resolver.Mutation()
		switch name {
		case "bookTransport":
			var input graphql.BookTransportInput
			if err := decodeArg(args["input"], &input); err != nil {
				return nil, err
			}
			return mutation.BookTransport(ctx, input)
		case "cancelTransport":
			return mutation.CancelTransport(ctx, stringArg(args, "id"))
		}
		return nil, fmt.Errorf("unsupported mutation field %q", name)
	}

	query := s.resolver.Query()
	switch name {
	case "health":
		return query.Health(ctx)
	case "environment":
		return query.Environment(ctx)
	case "platforms":
		return query.PlatformList(ctx)
	case "transportRequest":
		return query.TransportRequest(ctx, stringArg(args, "id"))
	case "transportRequestByReference":
		return query.TransportRequestByReference(ctx, stringArg(args, "platform"), stringArg(args, "reference"))
	case "transportRequests":
		var filter struct {
			Platform         *string `json:"platform"`
			IncludeCancelled *bool   `json:"includeCancelled"`
			Limit            *int    `json:"limit"`
		}
		if len(args) > 0 {
			if err := decodeArg(args, &filter); err != nil {
				return nil, err
			}
		}
		return query.TransportRequests(ctx, filter.Platform, filter.IncludeCancelled, filter.Limit)
	}
	return nil, fmt.Errorf("unsupported query field %q", name)
}

// selectOperation picks the named operation, or the only one when unnamed.
func selectOperation(ops ast.OperationList, name string) *ast.OperationDefinition {
	if name == "" {
		if len(ops) == 1 {
			return ops[0]
		}
		return nil
	}
	for _, op := range ops {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// decodeArg converts a parsed argument value into a typed input.
func decodeArg(value any, out any) error {
	if value == nil {
		return errors.New("missing argument")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("invalid argument: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid argument: %w", err)
	}
	return nil
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	resp := graphQLResponse{Errors: make([]graphQLError, len(messages))}
	for i, m := range messages {
		resp.Errors[i] = graphQLError{Message: m}
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
