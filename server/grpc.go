package server

import (
	"context"
	"hstin/reanalysis/models/base"
	"hstin/reanalysis/models/ecmwf"
	"net"
	"time"

	. "hstin/reanalysis/helper"

	"github.com/google/uuid"
	"github.com/xhhuango/json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "reanalysis.RetrievalService"

// RetrievalServer exchanges requests as google.protobuf.Struct messages
// keyed like the HTTP JSON bodies.
type RetrievalServer interface {
	BuildRequest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Retrieve(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type server struct {
	submitter ecmwf.Submitter
}

func decodeOptions(in *structpb.Struct) (ecmwf.Options, string, error) {
	fields := in.AsMap()
	archive, _ := fields["archive"].(string)
	delete(fields, "archive")

	data, err := json.Marshal(fields)
	if err != nil {
		return ecmwf.Options{}, "", status.Errorf(codes.InvalidArgument, "encoding options: %v", err)
	}
	var opt ecmwf.Options
	if err := json.Unmarshal(data, &opt); err != nil {
		return ecmwf.Options{}, "", status.Errorf(codes.InvalidArgument, "decoding options: %v", err)
	}
	return opt, archive, nil
}

func encodeRequest(id string, req *ecmwf.Request) map[string]interface{} {
	fields := make(map[string]interface{}, len(req.Fields()))
	keys := make([]interface{}, 0, len(req.Fields()))
	for _, f := range req.Fields() {
		fields[f.Key] = f.Value
		keys = append(keys, f.Key)
	}
	return map[string]interface{}{
		"request_id": id,
		"request":    fields,
		"keys":       keys,
	}
}

func (s *server) BuildRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	startCalculation := time.Now()

	opt, _, err := decodeOptions(in)
	if err != nil {
		return nil, err
	}
	cfg, err := opt.Config()
	if err != nil {
		return nil, status.Error(grpcCode(err), err.Error())
	}
	req, err := ecmwf.Build(cfg)
	if err != nil {
		return nil, status.Error(grpcCode(err), err.Error())
	}

	out := encodeRequest(uuid.NewString(), req)
	out["calculation_time"] = float64(time.Since(startCalculation).Microseconds())
	return structpb.NewStruct(out)
}

func (s *server) Retrieve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	opt, name, err := decodeOptions(in)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "era"
	}

	archive, err := base.GetArchive(name, s.submitter)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}

	res, err := archive.Retrieve(ctx, opt)
	if err != nil {
		Log.Error().Err(err).Str("archive", name).Msg("Retrieval failed")
		return nil, status.Error(grpcCode(err), err.Error())
	}

	out := encodeRequest(res.RequestID, res.Request)
	out["target"] = res.Target
	out["size"] = float64(res.Size)
	return structpb.NewStruct(out)
}

func buildRequestHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RetrievalServer).BuildRequest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/BuildRequest"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RetrievalServer).BuildRequest(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func retrieveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RetrievalServer).Retrieve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Retrieve"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RetrievalServer).Retrieve(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var retrievalServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RetrievalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BuildRequest", Handler: buildRequestHandler},
		{MethodName: "Retrieve", Handler: retrieveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reanalysis.proto",
}

func NewGRPCServer(sub ecmwf.Submitter) *grpc.Server {
	s := grpc.NewServer()
	s.RegisterService(&retrievalServiceDesc, &server{submitter: sub})
	reflection.Register(s)
	return s
}

func StartGRPCServer(port string, sub ecmwf.Submitter) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		Log.Fatal().Err(err).Msg("failed to start listener")
	}

	s := NewGRPCServer(sub)
	Log.Info().Msgf("gRPC server listening at :%s", port)
	if err := s.Serve(lis); err != nil {
		Log.Fatal().Err(err).Msg("failed to start gRPC server")
	}
}
