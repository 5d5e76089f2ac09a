package grpc

import (
	"context"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	inventoryServiceName = "pos.v1.InventoryService"
	getStockMethod       = "/" + inventoryServiceName + "/GetStock"
)

// StockReader — то, что нужно сервису от usecase продаж.
type StockReader interface {
	GetStock(ctx context.Context, productID int64) (int64, error)
}

// InventoryServiceServer отдаёт остатки товаров другим внутренним сервисам.
// Сообщения: стандартные обёртки protobuf: id товара на входе, остаток на выходе.
type InventoryServiceServer interface {
	GetStock(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error)
}

type InventoryService struct {
	saleUC StockReader
	logger logger.Logger
}

func NewInventoryService(saleUC StockReader, logger logger.Logger) *InventoryService {
	return &InventoryService{saleUC: saleUC, logger: logger}
}

func (g *InventoryService) GetStock(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	const op = "grpc.GetStock"

	if req.GetValue() <= 0 {
		return nil, GRPCErrorResponse(e.NewValidationError("product_id", "must be > 0"))
	}

	qty, err := g.saleUC.GetStock(ctx, req.GetValue())
	if err != nil {
		g.logger.Warnf("%s: %v", op, e.Wrap(op, err))
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return wrapperspb.Int64(qty), nil
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&inventoryServiceDesc, srv)
}

func getStockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).GetStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getStockMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServiceServer).GetStock(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

var inventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStock",
			Handler:    getStockHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pos/v1/inventory.proto",
}

// InventoryClient — клиент сервиса остатков.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) GetStock(ctx context.Context, productID int64, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, getStockMethod, wrapperspb.Int64(productID), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}
