package dao

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
	"k8s.io/klog/v2"

	"github.com/sdghub/backend/pkg/config"
)

var (
	once     sync.Once
	instance *gorm.DB
)

// GetDB returns the singleton database connection. When a read replica is
// configured, it is registered through dbresolver and dashboard queries
// opt into it with db.Clauses(dbresolver.Read).
func GetDB() *gorm.DB {
	once.Do(func() {
		dbConfig := config.GetConfig()

		dsn := postgresDSN(dbConfig.Postgres.Host, dbConfig.Postgres.Port)
		var err error
		instance, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			panic(err)
		}

		if dbConfig.Postgres.ReplicaHost != "" {
			replicaDSN := postgresDSN(dbConfig.Postgres.ReplicaHost, dbConfig.Postgres.ReplicaPort)
			err = instance.Use(dbresolver.Register(dbresolver.Config{
				Replicas: []gorm.Dialector{postgres.Open(replicaDSN)},
			}))
			if err != nil {
				panic(err)
			}
		}

		maxIdleConns := 5
		maxOpenConns := 10
		sqlDB, err := instance.DB()
		if err != nil {
			panic(err)
		}
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Hour)

		klog.Info("Postgres init success!")
	})
	return instance
}

func postgresDSN(host, port string) string {
	dbConfig := config.GetConfig()
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host,
		dbConfig.Postgres.User,
		dbConfig.Postgres.Password,
		dbConfig.Postgres.DBName,
		port,
		dbConfig.Postgres.SSLMode,
		dbConfig.Postgres.TimeZone,
	)
}
