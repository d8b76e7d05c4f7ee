// Package eventmirror ships committed complaint events to an external
// EventStoreDB instance for independent audit. The mirror is strictly
// best-effort: the Postgres event log is the source of truth, and a
// mirror outage never affects complaint processing.
package eventmirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/shared/config"
	"github.com/civicroot/platform/internal/shared/metrics"
)

const appendTimeout = 5 * time.Second

// Mirror appends complaint events to per-complaint streams
type Mirror struct {
	client *esdb.Client
	prefix string
	logger *zap.Logger
}

// New connects to the event store
func New(cfg config.EventMirrorConfig, logger *zap.Logger) (*Mirror, error) {
	settings, err := esdb.ParseConnectionString(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	client, err := esdb.NewClient(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store client: %w", err)
	}

	return &Mirror{
		client: client,
		prefix: "complaint",
		logger: logger,
	}, nil
}

// buildConnectionString creates the esdb:// connection string
func buildConnectionString(cfg config.EventMirrorConfig) string {
	var auth string
	if cfg.Username != "" && cfg.Password != "" {
		auth = fmt.Sprintf("%s:%s@", cfg.Username, cfg.Password)
	}

	params := ""
	if cfg.Insecure {
		params = "?tls=false&tlsVerifyCert=false"
	}

	return fmt.Sprintf("esdb://%s%s:%d%s", auth, cfg.Host, cfg.Port, params)
}

// Record mirrors one committed event. Fire-and-forget: the append runs
// in the background with its own timeout and only logs on failure.
func (m *Mirror) Record(event domain.ComplaintEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()

		if err := m.append(ctx, event); err != nil {
			metrics.RecordMirrorAppend(false)
			m.logger.Warn("event mirror append failed",
				zap.String("complaint_id", event.ComplaintID.String()),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
			return
		}
		metrics.RecordMirrorAppend(true)
	}()
}

func (m *Mirror) append(ctx context.Context, event domain.ComplaintEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	stream := fmt.Sprintf("%s-%s", m.prefix, event.ComplaintID)

	eventID, err := uuid.Parse(event.ID.String())
	if err != nil {
		eventID = uuid.New()
	}

	esdbEvent := esdb.EventData{
		EventID:     eventID,
		EventType:   string(event.Type),
		ContentType: esdb.ContentTypeJson,
		Data:        data,
	}

	_, err = m.client.AppendToStream(ctx, stream, esdb.AppendToStreamOptions{
		ExpectedRevision: esdb.Any{},
	}, esdbEvent)
	if err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", stream, err)
	}

	return nil
}

// Close releases the event store connection
func (m *Mirror) Close() error {
	return m.client.Close()
}
