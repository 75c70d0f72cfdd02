package collector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/catalog"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/quatt"
	"github.com/kuretru/quatt-gateway/internal/tokenstore"
)

const (
	defaultTokenDB = "quatt-tokens.db"

	keyDayMaxSoundLevel   = "dayMaxSoundLevel"
	keyNightMaxSoundLevel = "nightMaxSoundLevel"
)

type remoteAPI interface {
	feedSource
	UpdateSettings(ctx context.Context, settings map[string]any) error
}

// RemoteCollector polls the mobile API and applies select commands to it.
type RemoteCollector struct {
	db      *database.Database
	metrics *Metrics

	source string
	client remoteAPI
	tokens *tokenstore.Store
	now    func() time.Time

	lock     sync.Mutex
	lastFeed quatt.Feed

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (collector *RemoteCollector) Name() string {
	return collector.source
}

func (collector *RemoteCollector) setup(ctx context.Context, config *entity.CollectorConfig) error {
	remote := config.Remote
	if remote == nil || remote.CIC == "" {
		return fmt.Errorf("Collector.Remote: cic is required")
	}
	if remote.APIKey == "" {
		return fmt.Errorf("Collector.Remote: api_key is required")
	}

	tokenDB := remote.TokenDB
	if tokenDB == "" {
		tokenDB = defaultTokenDB
	}
	store, err := tokenstore.New(tokenDB)
	if err != nil {
		return fmt.Errorf("Collector.Remote: open token store failed, %w", err)
	}
	client := quatt.NewRemoteClient(remote.CIC, remote.APIKey, store)
	if err = client.LoadTokens(ctx, remote.RefreshToken); err != nil {
		_ = store.Close()
		return fmt.Errorf("Collector.Remote: %w", err)
	}

	collector.source = "remote:" + remote.CIC
	collector.client = client
	collector.tokens = store
	collector.now = time.Now
	return nil
}

func (collector *RemoteCollector) Run(ctx context.Context, config *entity.CollectorConfig) error {
	if err := collector.setup(ctx, config); err != nil {
		return err
	}

	interval := ScanInterval(config.ScanInterval)
	ctx, collector.cancel = context.WithCancel(ctx)
	collector.wg.Add(1)
	go func() {
		defer collector.wg.Done()
		runPoller(ctx, interval, func(ctx context.Context) {
			_ = collector.poll(ctx)
		})
	}()
	slog.Info("Collector.Remote: polling", "cic", config.Remote.CIC, "interval", interval)
	return nil
}

func (collector *RemoteCollector) Stop(_ context.Context) {
	if collector.cancel != nil {
		collector.cancel()
	}
	collector.wg.Wait()
	if collector.tokens != nil {
		if err := collector.tokens.Close(); err != nil {
			slog.Warn("Collector.Remote: close token store failed", "err", err)
		}
	}
	slog.Info("Collector.Remote: stopped", "source", collector.source)
}

func (collector *RemoteCollector) poll(ctx context.Context) error {
	feed, err := collector.client.GetData(ctx)
	collector.metrics.observe(collector.source, err)
	if err != nil {
		slog.Error("Collector.Remote: fetch data failed", "source", collector.source, "err", err)
		return err
	}

	collector.lock.Lock()
	collector.lastFeed = feed
	collector.lock.Unlock()

	topology := quatt.DetectRemote(feed)
	computer := quatt.NewComputer(feed, topology, nil)
	count := storeFeed(ctx, collector.db, collector.source, catalog.Select(topology, true),
		computer.Value, systemRecord(RemoteSystemEntityID, topology, collector.now()))
	slog.Debug("Collector.Remote: data stored", "source", collector.source, "records", count)
	return nil
}

// SendCommand changes one of the max sound levels. The API only accepts both
// levels together, so the other one is taken from the last poll.
func (collector *RemoteCollector) SendCommand(ctx context.Context, command *entity.Command) error {
	if command.Key != keyDayMaxSoundLevel && command.Key != keyNightMaxSoundLevel {
		return fmt.Errorf("Collector.Remote: unsupported setting %v", command.Key)
	}
	if !slices.Contains(catalog.SoundLevels, command.Value) {
		return fmt.Errorf("Collector.Remote: invalid sound level %q", command.Value)
	}

	collector.lock.Lock()
	feed := collector.lastFeed
	collector.lock.Unlock()

	settings := map[string]any{
		keyDayMaxSoundLevel:   stringValue(feed, keyDayMaxSoundLevel),
		keyNightMaxSoundLevel: stringValue(feed, keyNightMaxSoundLevel),
	}
	settings[command.Key] = command.Value
	for key, value := range settings {
		if value == "" {
			return fmt.Errorf("Collector.Remote: current value of %v unknown", key)
		}
	}

	slog.Info("Collector.Remote: updating sound levels", "settings", settings)
	if err := collector.client.UpdateSettings(ctx, settings); err != nil {
		return fmt.Errorf("Collector.Remote: update settings failed, %w", err)
	}
	return collector.poll(ctx)
}

func stringValue(feed quatt.Feed, key string) string {
	value, ok := feed.Value(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
