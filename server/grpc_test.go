package server

import (
	"context"
	"net"
	"testing"

	"hstin/reanalysis/models/ecmwf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func dialBufconn(t *testing.T, sub ecmwf.Submitter) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := NewGRPCServer(sub)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGRPC_BuildRequest(t *testing.T) {
	conn := dialBufconn(t, nil)

	in := mustStruct(t, map[string]interface{}{
		"params":   []interface{}{"t"},
		"stream":   "moda",
		"levtype":  "pl",
		"levrange": []interface{}{100, 300},
		"years":    []interface{}{2000},
		"months":   []interface{}{3},
		"res":      2.5,
	})
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), "/"+serviceName+"/BuildRequest", in, out))

	fields := out.AsMap()
	request := fields["request"].(map[string]interface{})
	assert.Equal(t, "20000300", request["date"])
	assert.Equal(t, "100/125/150/175/200/225/250/300", request["levelist"])
	assert.Equal(t, "2.50000/2.50000", request["grid"])

	keys := fields["keys"].([]interface{})
	assert.Equal(t, "class", keys[0])
	assert.Equal(t, "levelist", keys[len(keys)-1])
}

func TestGRPC_BuildRequestInvalid(t *testing.T) {
	conn := dialBufconn(t, nil)

	in := mustStruct(t, map[string]interface{}{
		"params":  []interface{}{"nope"},
		"stream":  "moda",
		"levtype": "sfc",
		"years":   []interface{}{2000},
	})
	err := conn.Invoke(context.Background(), "/"+serviceName+"/BuildRequest", in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_Retrieve(t *testing.T) {
	sub := ecmwf.SubmitterFunc(func(ctx context.Context, req *ecmwf.Request) (*ecmwf.Result, error) {
		return &ecmwf.Result{Target: "data/era.nc", Size: 3}, nil
	})
	conn := dialBufconn(t, sub)

	in := mustStruct(t, map[string]interface{}{
		"params":    []interface{}{"t2m"},
		"stream":    "oper",
		"levtype":   "sfc",
		"daterange": []interface{}{"2020-01-01", "2020-01-03"},
	})
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), "/"+serviceName+"/Retrieve", in, out))

	fields := out.AsMap()
	assert.Equal(t, "data/era.nc", fields["target"])
	assert.Equal(t, float64(3), fields["size"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, "20200101/to/20200103", fields["request"].(map[string]interface{})["date"])
}

func TestGRPC_RetrievePlaceholder(t *testing.T) {
	conn := dialBufconn(t, nil)

	in := mustStruct(t, map[string]interface{}{"archive": "ncar"})
	err := conn.Invoke(context.Background(), "/"+serviceName+"/Retrieve", in, new(structpb.Struct))
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	in = mustStruct(t, map[string]interface{}{"archive": "jra55"})
	err = conn.Invoke(context.Background(), "/"+serviceName+"/Retrieve", in, new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_ReflectionRegistered(t *testing.T) {
	info := NewGRPCServer(nil).GetServiceInfo()
	assert.Contains(t, info, serviceName)
	assert.Contains(t, info, "grpc.reflection.v1alpha.ServerReflection")
}

func TestGRPC_RetrieveTargetOutsideOutputFolder(t *testing.T) {
	called := false
	sub := ecmwf.SubmitterFunc(func(ctx context.Context, req *ecmwf.Request) (*ecmwf.Result, error) {
		called = true
		return &ecmwf.Result{}, nil
	})
	conn := dialBufconn(t, sub)

	in := mustStruct(t, map[string]interface{}{
		"params":   []interface{}{"t2m"},
		"stream":   "moda",
		"levtype":  "sfc",
		"years":    []interface{}{2000},
		"filename": "../escaped.nc",
	})
	err := conn.Invoke(context.Background(), "/"+serviceName+"/Retrieve", in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.False(t, called)
}
