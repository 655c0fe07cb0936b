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
		log.Println("creating ui_preferences table...")
		return mghelper.CreateSchema(ctx, database, &db.PreferencesDao{})
	}, func(ctx context.Context, database *bun.DB) error {
		log.Println("dropping ui_preferences table...")
		return mghelper.DropTables(ctx, database, &db.PreferencesDao{})
	})
}
