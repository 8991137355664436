package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
)

const (
	InterpreterServiceName = "pedidos.v1.InterpreterService"
	interpretFullMethod    = "/" + InterpreterServiceName + "/Interpret"
	requestIDMetadataKey   = "x-request-id"
)

// InterpreterServer takes and returns google.protobuf.Struct messages with
// the same keys as the HTTP API.
type InterpreterServer interface {
	Interpret(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var InterpreterServiceDesc = grpc.ServiceDesc{
	ServiceName: InterpreterServiceName,
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Interpret", Handler: interpretHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pedidos/v1/interpreter.proto",
}

func RegisterInterpreterServer(s grpc.ServiceRegistrar, srv InterpreterServer) {
	s.RegisterService(&InterpreterServiceDesc, srv)
}

func interpretHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InterpreterServer).Interpret(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: interpretFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InterpreterServer).Interpret(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// InterpreterClient calls the service from Go.
type InterpreterClient struct {
	cc grpc.ClientConnInterface
}

func NewInterpreterClient(cc grpc.ClientConnInterface) *InterpreterClient {
	return &InterpreterClient{cc: cc}
}

func (c *InterpreterClient) Interpret(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, interpretFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCService adapts the pipeline to InterpreterServer.
type GRPCService struct {
	proc   Interpreter
	logger *slog.Logger
}

func NewGRPCService(proc Interpreter, logger *slog.Logger) *GRPCService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCService{proc: proc, logger: logger}
}

func (s *GRPCService) Interpret(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requestFromStruct(in)
	if err != nil {
		return nil, err
	}
	out, err := s.proc.Interpret(ctx, req)
	if err != nil {
		if !common.IsClientError(err) {
			s.logger.Error("server.grpc.interpret_failed", "req_id", common.RequestIDFromContext(ctx), "error", err)
		}
		return nil, common.ToStatus(err)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, common.InternalErrorf("encode order: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.InternalErrorf("encode order: %v", err)
	}
	resp, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode order: %v", err)
	}
	return resp, nil
}

func requestFromStruct(in *structpb.Struct) (pipeline.Request, error) {
	var req pipeline.Request
	fields := in.GetFields()

	text, ok := fields["texto_libre"]
	if !ok {
		return req, status.Error(codes.InvalidArgument, "texto_libre es obligatorio")
	}
	sv, ok := text.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return req, status.Error(codes.InvalidArgument, "texto_libre debe ser texto")
	}
	req.Text = sv.StringValue

	if v, ok := fields["canal"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			req.Channel = k.StringValue
		case *structpb.Value_NullValue:
		default:
			return req, status.Error(codes.InvalidArgument, "canal debe ser texto")
		}
	}
	if v, ok := fields["usar_modelo"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_BoolValue:
			req.UseModel = &k.BoolValue
		case *structpb.Value_NullValue:
		default:
			return req, status.Error(codes.InvalidArgument, "usar_modelo debe ser booleano")
		}
	}
	return req, nil
}

// UnaryLoggingInterceptor carries x-request-id metadata onto the context and
// logs every call.
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDMetadataKey); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.New().String()
		}
		ctx = common.WithRequestID(ctx, reqID)

		resp, err := handler(ctx, req)
		logger.Info("server.grpc.request",
			"req_id", reqID,
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// NewGRPCServer builds a server with the interpreter, health and reflection
// services registered.
func NewGRPCServer(svc InterpreterServer, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(UnaryLoggingInterceptor(logger)),
	)
	RegisterInterpreterServer(s, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(InterpreterServiceName, healthpb.HealthCheckResponse_SERVING)

	// grpcurl support
	reflection.Register(s)
	return s, hs
}
