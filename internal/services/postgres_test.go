package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-materiel/internal/config"
	"github.com/diewo77/go-materiel/internal/db"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("TEST_INTEGRATION not set")
	}
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("materiel_test"),
		postgres.WithUsername("materiel"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})
	host, _ := container.Host(ctx)
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	cfg := config.DatabaseConfig{
		Driver: "postgres", Host: host, Port: port.Int(),
		User: "materiel", Password: "test-password", DBName: "materiel_test", SSLMode: "disable",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gdb, err := db.Connect(cfg, log)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb, cfg, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestCartSubmit_ConcurrentSubmitsPostgres(t *testing.T) {
	gdb := setupPostgres(t)
	sender := &recordingSender{}
	svc := New(Deps{DB: gdb, Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Sender: sender})

	u := models.User{Username: "alice", HashedPassword: "x"}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	alice := policy.Principal{ID: u.ID}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m := models.Materiel{OwnerID: &u.ID}
		if err := gdb.Create(&m).Error; err != nil {
			t.Fatalf("materiel: %v", err)
		}
		if _, err := svc.Cart.AddItem(ctx, alice, AddItemInput{MaterielID: m.ID, RequestType: "LIVRAISON"}); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []*SubmitResult
		empty     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Cart.Submit(ctx, alice)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded = append(succeeded, res)
			case errors.Is(err, ErrInvalidState):
				empty++
			default:
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(succeeded) != 1 || empty != workers-1 {
		t.Fatalf("got %d successful submits and %d empty carts", len(succeeded), empty)
	}
	if len(succeeded[0].Requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(succeeded[0].Requests))
	}
	if n := count(t, gdb, &models.Request{}, ""); n != 3 {
		t.Fatalf("expected 3 stored requests, got %d", n)
	}
	if sender.count() != 1 {
		t.Fatalf("expected one notice, got %d", sender.count())
	}
}
