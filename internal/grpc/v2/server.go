package v2

import (
	"context"
	"errors"
	"time"

	"github.com/Totarae/shortlink/internal/handlers"
	"github.com/Totarae/shortlink/internal/model"
	"github.com/Totarae/shortlink/internal/service"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName полное имя gRPC-сервиса.
const ServiceName = "shortlink.v2.Shortener"

// ShortenerServer методы gRPC-сервиса. Запросы и ответы передаются как google.protobuf.Struct.
type ShortenerServer interface {
	Shorten(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc описание сервиса для grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Shorten", Handler: unaryHandler("Shorten", ShortenerServer.Shorten)},
		{MethodName: "Resolve", Handler: unaryHandler("Resolve", ShortenerServer.Resolve)},
		{MethodName: "Stats", Handler: unaryHandler("Stats", ShortenerServer.Stats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortlink/v2/shortener.proto",
}

func unaryHandler(method string, call func(ShortenerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShortenerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ShortenerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterShortenerServer регистрирует реализацию на сервере.
func RegisterShortenerServer(s grpc.ServiceRegistrar, srv ShortenerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type GRPCServer struct {
	Service handlers.LinkService
	Logger  *zap.Logger
}

var _ ShortenerServer = (*GRPCServer)(nil)

func NewGRPCServer(svc handlers.LinkService, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{Service: svc, Logger: logger}
}

// Shorten принимает {url}, возвращает {original_url, short_url, created_at}.
func (s *GRPCServer) Shorten(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	link, err := s.Service.Shorten(ctx, stringField(req, "url"))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return newStruct(map[string]any{
		"original_url": link.OriginalURL,
		"short_url":    link.ShortPath(),
		"created_at":   link.CreatedAt.Format(model.TimeLayout),
	})
}

// Resolve принимает {short_url, user_agent, referer} и возвращает решение о переходе.
// Переход засчитывается так же, как при GET /{code}.
func (s *GRPCServer) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code := stringField(req, "short_url")
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "short_url is required")
	}

	d, err := s.Service.Resolve(ctx, code, service.RequestMeta{
		UserAgent: stringField(req, "user_agent"),
		Referer:   stringField(req, "referer"),
	})
	if err != nil {
		return nil, s.toStatus(err)
	}

	out := map[string]any{
		"decision": d.Category.String(),
		"device":   d.Device,
	}
	switch {
	case d.Interstitial != nil:
		out["location"] = d.Interstitial.TargetURL
		out["fallback_url"] = d.Interstitial.FallbackURL
		out["refresh_seconds"] = d.Interstitial.RefreshSeconds
		out["script_delay_ms"] = d.Interstitial.ScriptDelayMillis
	case d.Virtual != nil:
		out["short_url"] = d.Virtual.ShortURL
		out["original_url"] = d.Virtual.OriginalURL
		out["description"] = d.Virtual.Description
	default:
		out["location"] = d.Location
	}
	return newStruct(out)
}

// Stats без поля date возвращает общую статистику, с date (YYYY-MM-DD) дневную.
func (s *GRPCServer) Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := stringField(req, "date")
	if raw == "" {
		stats, err := s.Service.GlobalStats(ctx)
		if err != nil {
			return nil, s.toStatus(err)
		}
		return newStruct(map[string]any{
			"total_urls":         stats.TotalURLs,
			"total_urls_today":   stats.TotalURLsToday,
			"total_clicks_today": stats.TotalClicksToday,
			"click_counts":       clickCountsList(stats.ClickCounts),
		})
	}

	day, err := time.ParseInLocation(service.DateLayout, raw, time.Local)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
	}
	stats, err := s.Service.DailyStats(ctx, day)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return newStruct(map[string]any{
		"date":         stats.Date,
		"click_counts": clickCountsList(stats.ClickCounts),
	})
}

func (s *GRPCServer) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrMissingInput), errors.Is(err, service.ErrInvalidURL):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoData):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrCodeTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	}
	s.Logger.Error("grpc call failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func clickCountsList(counts []model.ClickCount) []any {
	return lo.Map(counts, func(c model.ClickCount, _ int) any {
		return map[string]any{
			"short_url":   c.ShortURL,
			"click_count": c.ClickCount,
		}
	})
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
