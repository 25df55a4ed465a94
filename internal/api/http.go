package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clearpath-health/clearpath/internal/grpc/clearpathv1"
)

const maxBodyBytes = 1 << 20

// Gateway exposes the PriorAuth service as JSON over HTTP.
type Gateway struct {
	service clearpathv1.PriorAuthServer
	logger  *slog.Logger
}

// NewGateway wraps service.
func NewGateway(service clearpathv1.PriorAuthServer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{service: service, logger: logger}
}

type rpcFunc func(context.Context, *structpb.Struct) (*structpb.Struct, error)

// Handler returns the route table.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/sample-cases", g.unary(g.service.ListSampleCases, noRequest))
	mux.HandleFunc("POST /api/cases", g.unary(g.service.SubmitCase, bodyRequest))
	mux.HandleFunc("GET /api/cases", g.unary(g.service.ListCases, queryRequest("decision", "payer"), "limit"))
	mux.HandleFunc("GET /api/cases/{id}", g.unary(g.service.GetCase, func(r *http.Request) (*structpb.Struct, error) {
		return structpb.NewStruct(map[string]any{"case_id": r.PathValue("id")})
	}))
	mux.HandleFunc("GET /api/review-queue", g.unary(g.service.ListReviewQueue, noRequest))
	mux.HandleFunc("POST /api/review", g.unary(g.service.SubmitReview, bodyRequest))
	mux.HandleFunc("GET /api/rag-search", g.unary(g.service.SearchPolicies, queryRequest("query", "payer"), "top_k"))
	mux.HandleFunc("GET /api/stats", g.unary(g.service.GetStats, noRequest))
	return mux
}

// unary decodes the request, calls the service and writes the response.
// intParams names query parameters parsed as integers.
func (g *Gateway) unary(call rpcFunc, decode func(*http.Request) (*structpb.Struct, error), intParams ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, name := range intParams {
			raw := strings.TrimSpace(r.URL.Query().Get(name))
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, name+" must be an integer")
				return
			}
			req.Fields[name] = structpb.NewNumberValue(float64(n))
		}

		resp, err := call(r.Context(), req)
		if err != nil {
			st := status.Convert(err)
			code := httpStatus(st.Code())
			if code >= http.StatusInternalServerError {
				g.logger.Error("gateway call failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			writeError(w, code, st.Message())
			return
		}
		raw, err := protojson.Marshal(resp)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode response")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

func noRequest(*http.Request) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

func bodyRequest(r *http.Request) (*structpb.Struct, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, nil
	}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	if out.Fields == nil {
		out.Fields = map[string]*structpb.Value{}
	}
	return out, nil
}

// queryRequest copies the named string query parameters into a Struct.
func queryRequest(names ...string) func(*http.Request) (*structpb.Struct, error) {
	return func(r *http.Request) (*structpb.Struct, error) {
		out := &structpb.Struct{Fields: map[string]*structpb.Value{}}
		q := r.URL.Query()
		for _, name := range names {
			if v := strings.TrimSpace(q.Get(name)); v != "" {
				out.Fields[name] = structpb.NewStringValue(v)
			}
		}
		return out, nil
	}
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition, codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
