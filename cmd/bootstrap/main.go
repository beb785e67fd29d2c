package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/wire"
	"abricot-ai-api/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	devToken := flag.String("dev-token", "", "issue a development JWT for the given user id")
	devEmail := flag.String("dev-email", "dev@abricot.local", "email claim of the development JWT")
	devTTL := flag.Duration("dev-ttl", 24*time.Hour, "lifetime of the development JWT")
	flag.Parse()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化 PostgreSQL 并建表
	if cfg.Database.Postgres.Enabled {
		deps, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to initialize data layer: %v", err)
		}
		defer cleanup()

		if err := deps.PgClient.AutoMigrate(ctx); err != nil {
			log.Fatalf("failed to migrate schema: %v", err)
		}
		fmt.Println("Schema migrated.")
	} else {
		fmt.Println("PostgreSQL disabled, skipping migrations.")
	}

	// 3. 签发开发用令牌
	if *devToken != "" {
		if cfg.Security.JWT.Secret == "" {
			log.Fatalf("security.jwt.secret is empty, cannot issue token")
		}
		mgr := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
		token, err := mgr.GenerateToken(*devToken, *devEmail, *devTTL)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Printf("Development token for %s (expires in %s):\n%s\n", *devToken, devTTL.String(), token)
	}

	fmt.Println("Bootstrap completed successfully.")
}
