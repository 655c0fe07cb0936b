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
		log.Println("creating user_stats table...")
		return mghelper.CreateSchema(ctx, database, &db.UserStatsDao{})
	}, func(ctx context.Context, database *bun.DB) error {
		log.Println("dropping user_stats table...")
		return mghelper.DropTables(ctx, database, &db.UserStatsDao{})
	})
}
