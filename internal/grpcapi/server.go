// Package grpcapi exposes monthly and weekly payroll over gRPC.
//
// Messages are google.protobuf.Struct so callers need no generated stubs:
// the request is {"period": "2024-06"} (Monthly) or {"period": "2024-06-03"}
// (Weekly, any day of the week) and the reply mirrors the HTTP API body.
package grpcapi

import (
	"context"
	"errors"
	"net"
	"time"

	"vrlounge/internal/payroll"
	"vrlounge/internal/report"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "vrlounge.PayrollService"

// Reports computes the payroll served over gRPC.
type Reports interface {
	Monthly(ctx context.Context, p report.Period) (*payroll.Monthly, error)
	Weekly(ctx context.Context, p report.Period) (*payroll.Weekly, error)
}

// PayrollServer is the server API of vrlounge.PayrollService.
type PayrollServer interface {
	Monthly(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Weekly(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var payrollServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PayrollServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Monthly", Handler: unaryHandler("Monthly", PayrollServer.Monthly)},
		{MethodName: "Weekly", Handler: unaryHandler("Weekly", PayrollServer.Weekly)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vrlounge/payroll.proto",
}

func unaryHandler(method string, call func(PayrollServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PayrollServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PayrollServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server runs the payroll service next to the standard health service.
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	reports Reports
	logger  *zerolog.Logger
}

func NewServer(reports Reports, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "grpc").Logger()
	s := &Server{
		health:  health.NewServer(),
		reports: reports,
		logger:  &l,
	}
	s.grpc = grpc.NewServer(grpc.UnaryInterceptor(s.logRequests))
	s.grpc.RegisterService(&payrollServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve blocks until the listener fails or the server stops.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks the service not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) Monthly(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := report.ParseMonth(periodArg(in))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "period must be YYYY-MM")
	}
	m, err := s.reports.Monthly(ctx, p)
	if err != nil {
		return nil, reportStatus(ctx, err)
	}
	salaries := make([]any, 0, len(m.Salaries))
	for _, rec := range m.Records() {
		salaries = append(salaries, rec)
	}
	return toStruct(map[string]any{
		"period":        p.Key(),
		"from":          p.From(),
		"to":            p.To(),
		"total_revenue": m.TotalRevenue,
		"payout":        m.Payout(),
		"salaries":      salaries,
		"anomalies":     m.Anomalies,
	})
}

func (s *Server) Weekly(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := report.WeekOf(periodArg(in))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "period must be a YYYY-MM-DD day of the week")
	}
	w, err := s.reports.Weekly(ctx, p)
	if err != nil {
		return nil, reportStatus(ctx, err)
	}
	return toStruct(map[string]any{
		"period":        p.Key(),
		"from":          p.From(),
		"to":            p.To(),
		"total_revenue": w.TotalRevenue,
		"totals":        w.Records(),
		"anomalies":     w.Anomalies,
	})
}

func (s *Server) logRequests(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	l := s.logger.With().Str("request_id", uuid.New().String()).Str("method", info.FullMethod).Logger()
	resp, err := handler(l.WithContext(ctx), req)
	l.Debug().Err(err).Str("code", status.Code(err).String()).Dur("duration", time.Since(start)).Msg("gRPC request")
	return resp, err
}

func periodArg(in *structpb.Struct) string {
	if in == nil {
		return ""
	}
	return in.GetFields()["period"].GetStringValue()
}

func reportStatus(ctx context.Context, err error) error {
	if errors.Is(err, report.ErrAnomalies) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("Report failed")
	return status.Error(codes.Internal, "internal error")
}

// toStruct round-trips v through JSON so nested records keep their json tags.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
