package propstore

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/consul"
	"github.com/airenas/medscribe/internal/pkg/postgres"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/utils"
	"github.com/hashicorp/consul/api"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/spf13/viper"
)

// New creates properties store selected by properties.backend, the returned func releases it
func New(ctx context.Context, cfg *viper.Viper) (properties.Store, func(), error) {
	backend := cfg.GetString("properties.backend")
	goapp.Log.Info().Str("backend", backend).Msg("cfg: properties")
	switch backend {
	case "", "memory":
		return properties.NewMemStore(), func() {}, nil
	case "postgres":
		dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
		if err != nil {
			return nil, nil, err
		}
		addDBLog(dbConfig)
		dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			return nil, nil, err
		}
		db, err := postgres.NewDB(dbPool)
		if err != nil {
			dbPool.Close()
			return nil, nil, err
		}
		if err := db.Init(ctx); err != nil {
			dbPool.Close()
			return nil, nil, err
		}
		return db, dbPool.Close, nil
	case "consul":
		cc := api.DefaultConfig()
		if a := cfg.GetString("consul.address"); a != "" {
			cc.Address = a
		}
		kv, err := consul.NewKV(cc, prefix(cfg.GetString("consul.prefix")))
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown properties backend '%s'", backend)
}

func prefix(s string) string {
	if s == "" {
		return "medscribe"
	}
	return s
}

func addDBLog(dbConfig *pgxpool.Config) {
	logFunc := func(msg string) { goapp.Log.Debug().Msg(msg) }
	dbConfig.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		logFunc("after connect")
		return nil
	}
	dbConfig.AfterRelease = func(c *pgx.Conn) bool {
		logFunc("after release")
		return true
	}
	dbConfig.ConnConfig.Tracer = &tracelog.TraceLog{Logger: utils.NewPgxLogAdapter(), LogLevel: tracelog.LogLevelWarn}
}
