//go:build integration

package bus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

func setupRedis(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port()), func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
}

func TestRedisBus_CrossInstanceDelivery(t *testing.T) {
	url, cleanup := setupRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher, err := New(url, "campusguard:test", testLogger())
	require.NoError(t, err)
	defer publisher.Close()

	subscriber, err := New(url, "campusguard:test", testLogger())
	require.NoError(t, err)
	defer subscriber.Close()

	received := make(chan Delivery, 1)
	require.NoError(t, subscriber.Subscribe(ctx, func(_ context.Context, d Delivery) {
		received <- d
	}))

	recipient := uuid.New()
	alert := &domain.Alert{
		ID:       uuid.New(),
		Category: domain.CategoryEmergency,
		Severity: domain.SeverityCritical,
		Title:    "Evacuate block C",
		Target:   domain.TargetSpec{Bucket: domain.BucketEveryone},
	}
	require.NoError(t, publisher.Publish(ctx, Delivery{Alert: alert, Recipients: []uuid.UUID{recipient}}))

	select {
	case d := <-received:
		assert.Equal(t, alert.ID, d.Alert.ID)
		assert.Equal(t, domain.SeverityCritical, d.Alert.Severity)
		assert.Equal(t, []uuid.UUID{recipient}, d.Recipients)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for delivery")
	}
}
