// create_user 创建或删除接口用户
//
//	go run ./apps/catalog/scripts/create_user -username admin -password secret -staff
//	go run ./apps/catalog/scripts/create_user -username admin -delete
package main

import (
	"context"
	"flag"
	"log"

	"sneaker-catalog/apps/catalog/handler"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/pkg/cache"
	"sneaker-catalog/pkg/config"
	"sneaker-catalog/pkg/database"
	"sneaker-catalog/pkg/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	username := flag.String("username", "", "username")
	password := flag.String("password", "", "password, required unless -delete")
	staff := flag.Bool("staff", false, "mark the user as staff")
	remove := flag.Bool("delete", false, "delete the user instead; shoes keep an empty creator")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}

	c, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.New(c.Logger)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	db, err := database.Open(c.Database, zl)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	users := store.NewUserStore(db)
	ctx := context.Background()
	if *remove {
		if err := users.Delete(ctx, *username); err != nil {
			log.Fatalf("Failed to delete user %s: %v", *username, err)
		}
		// 详情缓存里带着 created_by_username
		if c.Redis.Enabled {
			rdb, err := database.InitRedis(c.Redis)
			if err != nil {
				log.Fatalf("Failed to connect redis: %v", err)
			}
			defer rdb.Close()
			if err := handler.ForgetDetails(ctx, cache.New(rdb, c.Redis.TTL)); err != nil {
				log.Fatalf("Failed to clear shoe detail cache: %v", err)
			}
		}
		log.Printf("User %s deleted", *username)
		return
	}

	u, err := users.Create(ctx, *username, *password, *staff)
	if err != nil {
		log.Fatalf("Failed to create user %s: %v", *username, err)
	}
	log.Printf("User %s created (id=%d, staff=%v)", u.Username, u.ID, u.IsStaff)
}
