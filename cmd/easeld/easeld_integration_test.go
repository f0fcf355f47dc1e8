//go:build integration

package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/lock"
	"github.com/dyluth/easel/pkg/board"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container for testing.
func setupRedis(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisURL := fmt.Sprintf("redis://%s:%s", host, port.Port())

	cleanup := func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}

	return redisURL, cleanup
}

type instance struct {
	svc *items.Service
	hub *broadcast.Hub
}

// startInstance wires one easeld instance against Redis, without HTTP.
func startInstance(t *testing.T, ctx context.Context, cfg *config.EaselConfig) *instance {
	t.Helper()
	store, redisStore, err := openStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { redisStore.Close() })

	hub := broadcast.NewHub(broadcast.WithRelay(uuid.NewString(), redisStore))
	go hub.Run(ctx)
	go broadcast.RunRelay(ctx, hub, redisStore)

	engine, err := layout.NewEngine(cfg.Zones(), layout.WithFreeArea(cfg.FreeArea()))
	require.NoError(t, err)
	return &instance{
		svc: items.NewService(store, lock.New(cfg.Lock.WaitTimeout), engine, hub),
		hub: hub,
	}
}

func TestEaseld_InstancesShareBoardsThroughRedis(t *testing.T) {
	redisURL, cleanup := setupRedis(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Default()
	cfg.Redis.URL = redisURL
	cfg.Store.RequireDurable = true

	a := startInstance(t, ctx, cfg)
	b := startInstance(t, ctx, cfg)

	viewer := b.hub.Subscribe("S")
	defer viewer.Close()
	<-viewer.Events() // connected

	// Wait until b's relay is live.
	ping, err := board.NewEvent(board.EventPing, board.PingPayload{Timestamp: 1})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		a.hub.Broadcast(ctx, "S", ping)
		select {
		case ev := <-viewer.Events():
			return ev.Type == board.EventPing
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 10*time.Millisecond)
	for len(viewer.Events()) > 0 {
		<-viewer.Events()
	}

	note, err := a.svc.CreateDoctorNote(ctx, "S", items.DoctorNoteInput{Content: "from a"})
	require.NoError(t, err)

	select {
	case ev := <-viewer.Events():
		require.Equal(t, board.EventNewItem, ev.Type)
		var payload board.NewItemPayload
		require.NoError(t, ev.Decode(&payload))
		assert.Equal(t, note.ID, payload.Item.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("instance b never saw the item created on instance a")
	}

	list, err := b.svc.List(ctx, "S")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, note.ID, list[0].ID)

	_, err = b.svc.Purge(ctx, "S")
	require.NoError(t, err)
	list, err = a.svc.List(ctx, "S")
	require.NoError(t, err)
	assert.Empty(t, list)
}
