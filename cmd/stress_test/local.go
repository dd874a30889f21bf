package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/adapter/messaging"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

var (
	mysqlDSN  string
	redisAddr string
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Settle directly against MySQL and Redis",
	Long: `Resets the product's stock in MySQL, then runs the settlement component
from many goroutines. The product row must already exist.`,
	RunE: runLocal,
}

func init() {
	localCmd.Flags().StringVar(&mysqlDSN, "mysql-dsn", "root:root@tcp(localhost:3306)/storefront?parseTime=true", "MySQL DSN")
	localCmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address")
}

func runLocal(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(50)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := resetStock(ctx, mysqlAdapter); err != nil {
		return err
	}

	settlement := service.NewStockSettlement(mysqlAdapter, storage.NewRedisAdapter(rdb), messaging.NoopPublisher{})
	runID := uuid.NewString()

	res := race(func(i int) error {
		return settlement.Settle(ctx, service.SettleRequest{
			Cart:           domain.Cart{{ProductID: productID, Quantity: quantity}},
			IdempotencyKey: fmt.Sprintf("stress-%s-%d", runID, i),
		})
	})

	p, err := mysqlAdapter.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("read final stock: %w", err)
	}
	var final int64
	if p != nil && p.Stock != nil {
		final = *p.Stock
	}
	return res.report(final)
}

// resetStock overwrites the product's stock, retrying on version conflicts.
func resetStock(ctx context.Context, db *storage.MySQLAdapter) error {
	for attempt := 0; attempt < 3; attempt++ {
		p, err := db.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if p == nil {
			return fmt.Errorf("product %s not found, seed it first", productID)
		}

		stock := initialStock
		p.Stock = &stock
		err = db.UpdateStock(ctx, *p)
		if err == nil {
			return nil
		}
		if err != storage.ErrOptimisticLock {
			return fmt.Errorf("reset stock: %w", err)
		}
	}
	return storage.ErrOptimisticLock
}
