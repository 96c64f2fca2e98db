package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/config"
	"github.com/mothercare-dev/clinic/backend/internal/logging"
	"github.com/mothercare-dev/clinic/backend/internal/repository"
	"github.com/mothercare-dev/clinic/backend/internal/seed"
	"github.com/mothercare-dev/clinic/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var days int

	flag.IntVar(&op, "op", 0, "operation (1: random staff users, 2: doctors and services, 3: demo appointments, 4: random appointments)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.IntVar(&days, "days", 30, "how many days ahead random appointments are spread over")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid booking time zone", "time_zone", cfg.Booking.TimeZone, "error", err)
		return
	}
	now := time.Now().In(loc)

	// each repository call has its own timeout
	ctx = context.Background()

	switch op {
	case 0:
		logger.Error("no operation given, see -h")
	case 1:
		if n <= 0 {
			logger.Error("n must be positive")
			return
		}
		inserted := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				logger.Error("failed to generate user", "error", err)
				continue
			}
			if err := repo.CreateUser(ctx, user); err != nil {
				logger.Error("failed to insert user", "username", user.Username, "error", err)
				continue
			}
			inserted++
		}
		logger.Info("inserted users", "count", inserted)
	case 2, 3, 4:
		catalogue, err := seed.LoadCatalogue()
		if err != nil {
			logger.Error("failed to load catalogue", "error", err)
			return
		}

		switch op {
		case 2:
			doctors, services, err := seed.SeedCatalogue(ctx, repo, catalogue)
			if err != nil {
				logger.Error("failed to seed catalogue", "error", err)
				return
			}
			logger.Info("inserted catalogue", "doctors", doctors, "services", services)
		case 3:
			inserted, err := seed.SeedDemoAppointments(ctx, repo, catalogue, now)
			if err != nil {
				logger.Error("failed to seed demo appointments", "error", err)
				return
			}
			logger.Info("inserted demo appointments", "count", inserted)
		case 4:
			inserted, err := seed.SeedRandomAppointments(ctx, repo, catalogue, n, days, now)
			if err != nil {
				logger.Error("failed to seed random appointments", "error", err)
				return
			}
			logger.Info("inserted random appointments", "count", inserted, "requested", n)
		}
	default:
		logger.Error("unknown operation", "op", op)
	}
}
