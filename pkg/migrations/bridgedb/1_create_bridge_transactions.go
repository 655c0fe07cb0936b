package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/mjkid221/cctp-bridge/pkg/db"
	mghelper "github.com/mjkid221/cctp-bridge/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, database *bun.DB) error {
		log.Println("creating bridge_transactions table...")
		if err := mghelper.CreateSchema(ctx, database, &db.TransactionDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateIndexes(ctx, database, "bridge_transactions",
			"user_address", "status"); err != nil {
			return err
		}
		if _, err := database.ExecContext(ctx,
			"CREATE INDEX IF NOT EXISTS idx_bridge_transactions_user_status ON bridge_transactions (user_address, status)"); err != nil {
			return err
		}
		// History queries are always newest first.
		_, err := database.ExecContext(ctx,
			"CREATE INDEX IF NOT EXISTS idx_bridge_transactions_user_created_at ON bridge_transactions (user_address, created_at DESC, id DESC)")
		return err
	}, func(ctx context.Context, database *bun.DB) error {
		log.Println("dropping bridge_transactions table...")
		return mghelper.DropTables(ctx, database, &db.TransactionDao{})
	})
}
