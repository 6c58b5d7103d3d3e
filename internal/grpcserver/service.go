package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "agrotalent.matching.v1.MatchService"

// ─── Messages ────────────────────────────────────────────────────────────────

type ScoreRequest struct {
	JobID       string `json:"job_id"`
	ApplicantID string `json:"applicant_id"`
	Explain     bool   `json:"explain,omitempty"`
}

type ScoreResponse struct {
	JobID       string   `json:"job_id"`
	ApplicantID string   `json:"applicant_id"`
	MatchScore  int      `json:"match_score"`
	Reasons     []string `json:"reasons,omitempty"`
}

type MatchesForJobRequest struct {
	JobID string `json:"job_id"`
}

type MatchesForApplicantRequest struct {
	ApplicantID string `json:"applicant_id"`
	AllRegions  bool   `json:"all_regions,omitempty"`
	// Limit truncates the ranked list; zero returns everything.
	Limit int `json:"limit,omitempty"`
}

type MatchesResponse struct {
	Matches []model.MatchResult `json:"matches"`
}

type NotifyRequest struct {
	JobID string `json:"job_id"`
}

// NotifyResponse is the fan-out report for one job.
type NotifyResponse = match.FanOutReport

// ─── Service descriptor ──────────────────────────────────────────────────────

// MatchServiceServer is the server API for MatchService.
type MatchServiceServer interface {
	ScoreJobApplicant(context.Context, *ScoreRequest) (*ScoreResponse, error)
	MatchesForJob(context.Context, *MatchesForJobRequest) (*MatchesResponse, error)
	MatchesForApplicant(context.Context, *MatchesForApplicantRequest) (*MatchesResponse, error)
	NotifyTopMatches(context.Context, *NotifyRequest) (*NotifyResponse, error)
}

// RegisterMatchServiceServer registers srv on s.
func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes MatchService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ScoreJobApplicant", func(srv MatchServiceServer, ctx context.Context, in *ScoreRequest) (any, error) {
			return srv.ScoreJobApplicant(ctx, in)
		}),
		unary("MatchesForJob", func(srv MatchServiceServer, ctx context.Context, in *MatchesForJobRequest) (any, error) {
			return srv.MatchesForJob(ctx, in)
		}),
		unary("MatchesForApplicant", func(srv MatchServiceServer, ctx context.Context, in *MatchesForApplicantRequest) (any, error) {
			return srv.MatchesForApplicant(ctx, in)
		}),
		unary("NotifyTopMatches", func(srv MatchServiceServer, ctx context.Context, in *NotifyRequest) (any, error) {
			return srv.NotifyTopMatches(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agrotalent/matching/v1/match_service",
}

// unary adapts a typed method to a grpc.MethodDesc, decoding the request and
// running any interceptor.
func unary[Req any](name string, call func(MatchServiceServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	handler := func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatchServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		next := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MatchServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, next)
	}
	return grpc.MethodDesc{MethodName: name, Handler: handler}
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client calls MatchService over an existing connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) ScoreJobApplicant(ctx context.Context, in *ScoreRequest, opts ...grpc.CallOption) (*ScoreResponse, error) {
	out := new(ScoreResponse)
	if err := c.invoke(ctx, "ScoreJobApplicant", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MatchesForJob(ctx context.Context, in *MatchesForJobRequest, opts ...grpc.CallOption) (*MatchesResponse, error) {
	out := new(MatchesResponse)
	if err := c.invoke(ctx, "MatchesForJob", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MatchesForApplicant(ctx context.Context, in *MatchesForApplicantRequest, opts ...grpc.CallOption) (*MatchesResponse, error) {
	out := new(MatchesResponse)
	if err := c.invoke(ctx, "MatchesForApplicant", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) NotifyTopMatches(ctx context.Context, in *NotifyRequest, opts ...grpc.CallOption) (*NotifyResponse, error) {
	out := new(NotifyResponse)
	if err := c.invoke(ctx, "NotifyTopMatches", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
