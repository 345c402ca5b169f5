package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"absensi/internal/attendance"
	"absensi/internal/config"
	"absensi/internal/queue"
	"absensi/internal/session"
	"absensi/internal/store"
)

// Worker consumes attendance events and invalidates the recap cache for
// the affected class. Losing a message only leaves the cache stale until
// its TTL, so there is no retry machinery here.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "absensi:events")
	}

	repo := attendance.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "attendance.recorded" {
			continue
		}

		var evt attendance.RecordedEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad event body: %v", err)
			continue
		}

		idKelas, err := repo.KelasForMeeting(ctx, evt.IDPertemuan)
		if err != nil {
			log.Printf("class lookup failed for pertemuan %d: %v", evt.IDPertemuan, err)
			continue
		}

		key := session.RekapCacheKey(idKelas)
		if err := redisClient.Client.Del(ctx, key).Err(); err != nil {
			log.Printf("cache invalidate failed for %s: %v", key, err)
			continue
		}
		log.Printf("recap cache invalidated for kelas %d (nim %s, pertemuan %d)", idKelas, evt.NIM, evt.IDPertemuan)
	}

	log.Println("worker stopped")
}
