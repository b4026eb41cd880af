package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls vrlounge.PayrollService on an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Monthly fetches the payroll of a YYYY-MM month.
func (c *Client) Monthly(ctx context.Context, month string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Monthly", month, opts...)
}

// Weekly fetches the payroll of the week containing a YYYY-MM-DD day.
func (c *Client) Weekly(ctx context.Context, day string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Weekly", day, opts...)
}

func (c *Client) invoke(ctx context.Context, method, period string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"period": period})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
