package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cuongtutrinh/smart-parking-server/internal/config"
	"github.com/Cuongtutrinh/smart-parking-server/internal/ingest"
	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/metrics"
	"github.com/Cuongtutrinh/smart-parking-server/internal/mock"
	"github.com/Cuongtutrinh/smart-parking-server/internal/procstat"
	"github.com/Cuongtutrinh/smart-parking-server/internal/relay"
	"github.com/Cuongtutrinh/smart-parking-server/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Simulate a rig instead of waiting for real events")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	envFile := flag.String("env", ".env", "Path to dotenv file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("Failed to load env: %v", err)
	}
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := lot.NewStore(cfg.Lot.TotalSlots, cfg.Lot.Info)
	svc := lot.NewService(store, lot.ServiceOptions{
		Policy: cfg.Lot.Availability,
		Ring:   lot.NewLogRing(cfg.Lot.LogTrigger, cfg.Lot.LogRetain),
	})
	log.Printf("Lot %q: %d slots, availability policy %s", cfg.Lot.Info.Name, cfg.Lot.TotalSlots, svc.Policy())

	broadcaster := ws.NewBroadcaster(svc, cfg.Server.MaxConnections)
	svc.AddPublisher(broadcaster)

	m := metrics.New()
	m.RegisterGateway(broadcaster.ClientCount, broadcaster.Dropped)
	svc.AddObserver(m)
	svc.AddPublisher(m)

	server := ws.NewServer(cfg.Server, svc, broadcaster)
	server.SetMetricsHandler(m.Handler())
	if sampler, err := procstat.NewSampler(); err != nil {
		log.Printf("Process stats unavailable: %v", err)
	} else {
		server.SetProcessSampler(sampler)
	}

	if cfg.Redis.Enabled {
		client, err := relay.Dial(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		r := relay.New(client, cfg.Redis.Channel, cfg.Redis.Key)
		svc.AddPublisher(r)
		go r.Run(ctx)
		log.Printf("Relaying snapshots to redis %s channel %s", cfg.Redis.Addr, cfg.Redis.Channel)
	}

	if cfg.SQS.Enabled {
		client, err := ingest.NewSQSClient(ctx, cfg.SQS.Region)
		if err != nil {
			log.Fatalf("Failed to create SQS client: %v", err)
		}
		consumer := ingest.NewConsumer(client, svc, cfg.SQS)
		consumer.SetRecorder(m)
		server.SetIngestStatus(func() interface{} { return consumer.Health() })
		go consumer.Start(ctx)
	}

	if *mockMode {
		log.Println("Starting in mock mode")
		mock.NewGenerator(svc, cfg.Lot.TotalSlots, cfg.Mock.Interval).Start(ctx)
	}

	err = ws.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port, server.Handler(), cfg.Server.ShutdownTimeout)
	broadcaster.Stop()
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shut down")
}
