// Package checkoutv1 defines the checkout.v1.CheckoutService gRPC contract.
// Messages travel as JSON through the codec registered in codec.go.
package checkoutv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "checkout.v1.CheckoutService"

	PaymentSheetMethod = "/" + ServiceName + "/PaymentSheet"
	SettleMethod       = "/" + ServiceName + "/Settle"
)

type CartLine struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
}

type PaymentSheetRequest struct {
	Products []CartLine `json:"products"`
}

type PaymentSheetReply struct {
	PaymentIntent  string `json:"paymentIntent"`
	EphemeralKey   string `json:"ephemeralKey"`
	Customer       string `json:"customer"`
	PublishableKey string `json:"publishableKey"`
}

type SettleRequest struct {
	Products       []CartLine `json:"products"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
	PaymentIntent  string     `json:"paymentIntent,omitempty"`
}

type SettleReply struct {
	Success bool `json:"success"`
}

type CheckoutServer interface {
	PaymentSheet(context.Context, *PaymentSheetRequest) (*PaymentSheetReply, error)
	Settle(context.Context, *SettleRequest) (*SettleReply, error)
}

func RegisterCheckoutServer(s grpc.ServiceRegistrar, srv CheckoutServer) {
	s.RegisterService(&CheckoutServiceDesc, srv)
}

var CheckoutServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckoutServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PaymentSheet", Handler: paymentSheetHandler},
		{MethodName: "Settle", Handler: settleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "checkout/v1/checkout.proto",
}

func paymentSheetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PaymentSheetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckoutServer).PaymentSheet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PaymentSheetMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckoutServer).PaymentSheet(ctx, req.(*PaymentSheetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func settleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SettleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckoutServer).Settle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SettleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckoutServer).Settle(ctx, req.(*SettleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type CheckoutClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutClient(cc grpc.ClientConnInterface) *CheckoutClient {
	return &CheckoutClient{cc: cc}
}

func (c *CheckoutClient) PaymentSheet(ctx context.Context, in *PaymentSheetRequest, opts ...grpc.CallOption) (*PaymentSheetReply, error) {
	out := new(PaymentSheetReply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, PaymentSheetMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CheckoutClient) Settle(ctx context.Context, in *SettleRequest, opts ...grpc.CallOption) (*SettleReply, error) {
	out := new(SettleReply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, SettleMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
