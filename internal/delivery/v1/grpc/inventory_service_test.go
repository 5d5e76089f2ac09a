package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stockMap map[int64]int64

func (s stockMap) GetStock(_ context.Context, id int64) (int64, error) {
	if id == 500 {
		return 0, e.WrapStore("ProductRepo.GetStock", fmt.Errorf("connection reset by peer"))
	}
	qty, ok := s[id]
	if !ok {
		return 0, e.NewNotFoundError("product", id)
	}
	return qty, nil
}

func newTestClient(t *testing.T, stock StockReader) *InventoryClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{}, logger.NewNopLogger())
	srv.RegisterServices(stock)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewInventoryClient(conn)
}

func TestInventoryService_GetStock(t *testing.T) {
	client := newTestClient(t, stockMap{1: 5, 2: 0})
	ctx := context.Background()

	qty, err := client.GetStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)

	qty, err = client.GetStock(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

func TestInventoryService_Errors(t *testing.T) {
	client := newTestClient(t, stockMap{})

	tests := []struct {
		id   int64
		code codes.Code
	}{
		{id: 0, code: codes.InvalidArgument},
		{id: 9, code: codes.NotFound},
		{id: 500, code: codes.Internal},
	}

	for _, tt := range tests {
		_, err := client.GetStock(context.Background(), tt.id)
		st, ok := status.FromError(err)
		require.True(t, ok)
		assert.Equal(t, tt.code, st.Code(), "product %d", tt.id)
		assert.NotContains(t, st.Message(), "connection reset")
	}
}
