package rpc

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
	"github.com/danielpatrickdp/softfloat-lab/internal/sweep"
)

// MaxQuantizeValues caps a Quantize request. Rank requests are capped by
// config validation.
const MaxQuantizeValues = 1 << 20

// #region server
// Server implements LabServer on top of the sweep engine.
type Server struct {
	log     logrus.FieldLogger
	metrics *Metrics
	store   *store.Store
}

// NewServer creates a server. st may be nil, in which case Rank results
// are not persisted.
func NewServer(log logrus.FieldLogger, metrics *Metrics, st *store.Store) *Server {
	return &Server{log: log, metrics: metrics, store: st}
}

// Quantize rounds every requested value into the requested format.
func (s *Server) Quantize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeQuantizeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(req.Values) > MaxQuantizeValues {
		return nil, status.Errorf(codes.InvalidArgument, "too many values: %d > %d", len(req.Values), MaxQuantizeValues)
	}

	out := make([]float64, len(req.Values))
	for i, x := range req.Values {
		out[i] = req.Format.Quantize(x)
	}
	if s.metrics != nil {
		s.metrics.Quantized.Add(float64(len(out)))
	}
	s.log.WithFields(logrus.Fields{
		"format": req.Format.Name(),
		"values": len(out),
	}).Debug("quantize")
	return encodeQuantizeResponse(out), nil
}

// Rank runs a sweep described by a sweep-file payload.
func (s *Server) Rank(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	file, err := DecodeRankRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cfg, err := config.FromFile(file)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := sweep.Run(ctx, cfg, s.log)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, status.FromContextError(ctxErr).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	if s.store != nil {
		if err := sweep.Persist(s.store, res, "rpc", s.log); err != nil {
			s.log.WithError(err).WithField("run_id", res.RunID).Warn("persist rpc run")
		}
	}
	return encodeRankResponse(RankResult{RunID: res.RunID, Ranking: res.Ranking}), nil
}

// #endregion server
