package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	natsadapter "github.com/giovanto/overhead/internal/adapters/nats"
	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/pkg/config"
)

// broadcastFrame is the compact shape pushed to WebSocket clients that
// subscribe to the broadcast channel instead of a specific area.
type broadcastFrame struct {
	Kind     string    `json:"kind"`
	Area     string    `json:"area"`
	ICAO24   string    `json:"icao24"`
	Callsign string    `json:"callsign,omitempty"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Tier     string    `json:"noise_tier,omitempty"`
	Time     time.Time `json:"time"`
}

func main() {
	cfg, err := config.Load("overhead-relay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	var observations, alerts atomic.Int64

	relay := func(kind string, counter *atomic.Int64) func(ctx context.Context, report *domain.ClassifiedReport) error {
		return func(ctx context.Context, report *domain.ClassifiedReport) error {
			frame := broadcastFrame{
				Kind:     kind,
				Area:     report.Area,
				ICAO24:   report.ICAO24,
				Callsign: report.Callsign,
				Time:     report.Time,
			}
			if p, ok := report.Position(); ok {
				frame.Lat = p.Lat
				frame.Lon = p.Lon
			}
			tier := domain.TierUndefined
			for _, a := range report.Assessments {
				if a.Tier.Rank() > tier.Rank() {
					tier = a.Tier
				}
			}
			if tier != domain.TierUndefined {
				frame.Tier = string(tier)
			}
			data, err := json.Marshal(frame)
			if err != nil {
				return err
			}
			if err := pub.PublishBroadcast(ctx, data); err != nil {
				return err
			}
			counter.Add(1)
			return nil
		}
	}

	if err := sub.SubscribeObservations(ctx, relay("observation", &observations)); err != nil {
		log.Fatalf("subscribe observations: %v", err)
	}
	if err := sub.SubscribeNoiseAlerts(ctx, relay("noise_alert", &alerts)); err != nil {
		log.Fatalf("subscribe noise alerts: %v", err)
	}

	log.Println("relay started, fanning observations and noise alerts into the broadcast subject")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			log.Printf("relayed %d observations, %d noise alerts", observations.Load(), alerts.Load())
		case sig := <-quit:
			log.Printf("received signal %v, shutting down relay", sig)
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
