package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/happybuttons/orderflow/internal/config"
	"github.com/happybuttons/orderflow/internal/repository"
	"github.com/happybuttons/orderflow/internal/seeder"
	"github.com/happybuttons/orderflow/internal/statemachine"
	"github.com/happybuttons/orderflow/pkg/logger"
)

func main() {
	days := flag.Int("days", 30, "number of historical days to seed")
	daily := flag.Bool("daily", false, "generate only today's orders instead of full history")
	flag.Parse()

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogLevel)

	orderRepo, err := repository.NewOrderRepository(cfg.StorageDir, l)

	if err != nil {
		l.Error("Failed to open order storage", "error", err)
		os.Exit(1)
	}

	eventRepo, err := repository.NewEventRepository(cfg.EventsDir, l)

	if err != nil {
		l.Error("Failed to open event storage", "error", err)
		os.Exit(1)
	}

	rules := config.LoadStateRules(cfg.StatesPath, l)
	machine := statemachine.New(rules, orderRepo, eventRepo, l)

	if _, _, err := machine.LoadOrders(); err != nil {
		l.Error("Failed to load existing orders", "error", err)
		os.Exit(1)
	}

	catalog := seeder.LoadCatalog(cfg.CatalogPath, l)

	if *daily {
		generator := seeder.NewDailyOrderGenerator(machine, catalog, l)
		orders, err := generator.GenerateDailyOrders(time.Now())

		if err != nil {
			l.Error("Daily generation failed", "error", err, "created", len(orders))
			os.Exit(1)
		}
	} else {
		s := seeder.NewHistorySeeder(machine, catalog, l)
		s.Days = *days

		created, err := s.SeedHistoricalData()

		if err != nil {
			l.Error("Seeding failed", "error", err, "created", created)
			os.Exit(1)
		}
	}

	stats := machine.GetOrderStatistics()
	l.Info("Seeding complete",
		"totalOrders", stats.TotalOrders,
		"totalValue", stats.TotalValue,
		"overdue", stats.OverdueOrders,
		"avgProcessingHours", stats.AvgProcessingHours)
}
