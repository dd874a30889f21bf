package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/storefront/internal/adapter/handler/checkoutv1"
)

var grpcAddr string

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Settle through a running server's gRPC API",
	Long: `Calls CheckoutService/Settle concurrently. Stock is not reset; start the
server with the product stocked to --stock units.`,
	RunE: runRemote,
}

func init() {
	remoteCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "localhost:50051", "server gRPC address")
}

func runRemote(cmd *cobra.Command, args []string) error {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", grpcAddr, err)
	}
	defer conn.Close()

	client := checkoutv1.NewCheckoutClient(conn)
	res := race(func(i int) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := client.Settle(ctx, &checkoutv1.SettleRequest{
			Products:       []checkoutv1.CartLine{{ID: productID, Quantity: quantity}},
			IdempotencyKey: uuid.NewString(),
		})
		return err
	})

	return res.report(-1)
}
