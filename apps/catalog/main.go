package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sneaker-catalog/apps/catalog/handler"
	"sneaker-catalog/apps/catalog/indexer"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/pkg/broker"
	"sneaker-catalog/pkg/cache"
	"sneaker-catalog/pkg/config"
	"sneaker-catalog/pkg/database"
	"sneaker-catalog/pkg/discovery"
	"sneaker-catalog/pkg/jwt"
	"sneaker-catalog/pkg/limiter"
	"sneaker-catalog/pkg/logger"
	"sneaker-catalog/pkg/search"
	"sneaker-catalog/pkg/storage"
	"sneaker-catalog/pkg/tracer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	c, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(c.Logger)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	if c.Service.Mode != "" {
		gin.SetMode(c.Service.Mode)
	}

	// 1. 链路追踪
	shutdownTracer, err := tracer.InitTracer(c.Service.Name, c.Tracer)
	if err != nil {
		zl.Fatal("init tracer", zap.Error(err))
	}

	// 2. 数据库
	db, err := database.Open(c.Database, zl)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	files, err := storage.NewLocal(c.Storage.Root, c.Storage.MediaURL)
	if err != nil {
		zl.Fatal("init storage", zap.Error(err))
	}

	// 3. 限流
	if err := limiter.Init(map[string]float64{handler.ResUploadImages: c.RateLimit.UploadQPS}); err != nil {
		zl.Fatal("init sentinel", zap.Error(err))
	}

	deps := handler.Deps{
		Brands:        store.NewBrandStore(db),
		Shoes:         store.NewShoeStore(db),
		Images:        store.NewImageStore(db),
		Users:         store.NewUserStore(db),
		Storage:       files,
		JWT:           jwt.NewManager(c.JWT),
		Log:           zl,
		Pagination:    c.Pagination,
		BaseURL:       c.Service.BaseURL,
		MaxUploadSize: c.Storage.MaxUploadSize,
	}

	// 4. 可选组件: Redis 缓存, Elasticsearch, RabbitMQ
	if c.Redis.Enabled {
		rdb, err := database.InitRedis(c.Redis)
		if err != nil {
			zl.Fatal("init redis", zap.Error(err))
		}
		defer rdb.Close()
		deps.Cache = cache.New(rdb, c.Redis.TTL)
	}
	if c.Elastic.Enabled {
		client, err := search.NewClient(c.Elastic)
		if err != nil {
			zl.Fatal("init elasticsearch", zap.Error(err))
		}
		idx := indexer.New(client)
		if err := idx.Setup(context.Background()); err != nil {
			zl.Fatal("create search index", zap.Error(err))
		}
		deps.Index = idx
	}
	if c.RabbitMQ.Enabled {
		pub, err := broker.NewRabbitPublisher(c.RabbitMQ.URL, c.RabbitMQ.Exchange)
		if err != nil {
			zl.Fatal("init rabbitmq", zap.Error(err))
		}
		deps.Events = pub
	} else {
		deps.Events = broker.NopPublisher{}
	}
	defer deps.Events.Close()

	r := handler.NewRouter(handler.New(deps), handler.RouterOptions{
		ServiceName: c.Service.Name,
		ServeMedia:  c.Storage.Serve,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	addr := fmt.Sprintf(":%d", c.Service.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		zl.Info("catalog service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("serve", zap.Error(err))
		}
	}()

	// 5. 注册到 Consul
	if c.Consul.Enabled {
		deregister, err := discovery.RegisterService(discovery.Registration{
			Name:       c.Service.Name,
			Port:       c.Service.Port,
			HealthPath: "/healthz",
		}, c.Consul.Address)
		if err != nil {
			zl.Fatal("register service", zap.Error(err))
		}
		defer func() {
			if err := deregister(); err != nil {
				zl.Warn("deregister service", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("shutdown server", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		zl.Error("shutdown tracer", zap.Error(err))
	}
}
