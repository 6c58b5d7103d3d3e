// Package grpcserver implements the MatchService gRPC server.
//
// It delegates all business logic to match.Finder and handles only the
// gRPC transport concerns: argument validation, error mapping, and the
// message types exchanged with callers.
package grpcserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
)

// Matcher is the subset of *match.Finder the server calls.
type Matcher interface {
	Explain(ctx context.Context, jobID, applicantID string) (match.Score, error)
	MatchesForJob(ctx context.Context, jobID string) ([]model.MatchResult, error)
	MatchesForApplicant(ctx context.Context, applicantID string) ([]model.MatchResult, error)
	MatchesForApplicantAllRegions(ctx context.Context, applicantID string) ([]model.MatchResult, error)
	NotifyTopMatches(ctx context.Context, jobID string) (*match.FanOutReport, error)
}

// Server implements MatchServiceServer.
type Server struct {
	matcher Matcher
	logger  *zap.Logger
}

var _ MatchServiceServer = (*Server)(nil)

// NewServer constructs a gRPC Server backed by the given Matcher.
func NewServer(matcher Matcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{matcher: matcher, logger: logger}
}

// New returns a grpc.Server with MatchService registered and request logging
// installed.
func New(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(srv.logUnary))
	gs := grpc.NewServer(opts...)
	RegisterMatchServiceServer(gs, srv)
	return gs
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ScoreJobApplicant scores one pair. Reasons are included when Explain is set.
func (s *Server) ScoreJobApplicant(ctx context.Context, req *ScoreRequest) (*ScoreResponse, error) {
	if err := validateIDs(
		idArg{"job_id", req.JobID},
		idArg{"applicant_id", req.ApplicantID},
	); err != nil {
		return nil, toGRPCError(err)
	}

	score, err := s.matcher.Explain(ctx, req.JobID, req.ApplicantID)
	if err != nil {
		return nil, s.fail(err)
	}

	resp := &ScoreResponse{JobID: req.JobID, ApplicantID: req.ApplicantID, MatchScore: score.Value}
	if req.Explain {
		resp.Reasons = score.Reasons
	}
	return resp, nil
}

// MatchesForJob ranks applicants for a job.
func (s *Server) MatchesForJob(ctx context.Context, req *MatchesForJobRequest) (*MatchesResponse, error) {
	if err := match.ValidateID("job_id", req.JobID); err != nil {
		return nil, toGRPCError(err)
	}

	matches, err := s.matcher.MatchesForJob(ctx, req.JobID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &MatchesResponse{Matches: matches}, nil
}

// MatchesForApplicant ranks jobs for an applicant.
func (s *Server) MatchesForApplicant(ctx context.Context, req *MatchesForApplicantRequest) (*MatchesResponse, error) {
	if err := match.ValidateID("applicant_id", req.ApplicantID); err != nil {
		return nil, toGRPCError(err)
	}

	find := s.matcher.MatchesForApplicant
	if req.AllRegions {
		find = s.matcher.MatchesForApplicantAllRegions
	}
	matches, err := find(ctx, req.ApplicantID)
	if err != nil {
		return nil, s.fail(err)
	}
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	return &MatchesResponse{Matches: matches}, nil
}

// NotifyTopMatches fans out match notifications for a job.
func (s *Server) NotifyTopMatches(ctx context.Context, req *NotifyRequest) (*NotifyResponse, error) {
	if err := match.ValidateID("job_id", req.JobID); err != nil {
		return nil, toGRPCError(err)
	}

	report, err := s.matcher.NotifyTopMatches(ctx, req.JobID)
	if err != nil {
		return nil, s.fail(err)
	}
	return report, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type idArg struct {
	field string
	value string
}

func validateIDs(args ...idArg) error {
	for _, a := range args {
		if err := match.ValidateID(a.field, a.value); err != nil {
			return err
		}
	}
	return nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	var ve *match.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal server error")
}

// fail converts err for the caller, logging the cause when it is hidden
// behind codes.Internal.
func (s *Server) fail(err error) error {
	st := toGRPCError(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error("matcher failed", zap.Error(err))
	}
	return st
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	fields := []zap.Field{
		zap.String("method", info.FullMethod),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.logger.Warn("rpc failed", append(fields, zap.Stringer("code", status.Code(err)), zap.Error(err))...)
		return resp, err
	}
	s.logger.Debug("rpc ok", fields...)
	return resp, nil
}
