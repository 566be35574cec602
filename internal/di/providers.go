package di

import (
	"context"
	"fmt"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/backtest"
	"github.com/javiersolana/crypto-swarm/internal/discovery"
	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/internal/handler/api"
	"github.com/javiersolana/crypto-swarm/internal/ledger"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/internal/provider/adapters"
	internalregistry "github.com/javiersolana/crypto-swarm/internal/registry"
	internalrepo "github.com/javiersolana/crypto-swarm/internal/repository"
	"github.com/javiersolana/crypto-swarm/internal/scheduler"
	"github.com/javiersolana/crypto-swarm/internal/scorer"
	"github.com/javiersolana/crypto-swarm/internal/usecase"
	"github.com/javiersolana/crypto-swarm/pkg/cache"
	pkgch "github.com/javiersolana/crypto-swarm/pkg/clickhouse"
	"github.com/javiersolana/crypto-swarm/pkg/config"
	xhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	pkgkafka "github.com/javiersolana/crypto-swarm/pkg/kafka"
	applogger "github.com/javiersolana/crypto-swarm/pkg/logger"
	"github.com/javiersolana/crypto-swarm/pkg/metrics"
	"github.com/javiersolana/crypto-swarm/pkg/server"
	"golang.org/x/time/rate"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache connects to Redis.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return redisCache, nil
}

// ProvideCache builds the layered memory-over-Redis cache store.
func ProvideCache(redisCache *cache.RedisCache) cache.Service {
	return cache.NewLayeredCache(redisCache)
}

// ProvideLedger builds the persistent dedup ledger on the shared Redis
// connection.
func ProvideLedger(redisCache *cache.RedisCache, cfg *config.Config, log *applogger.Logger) repository.Ledger {
	return ledger.NewRedisLedger(redisCache.Client(), log, ledger.WithHorizon(cfg.Ledger.Horizon))
}

// ProvideRegistry builds the watched entity registry.
func ProvideRegistry(redisCache *cache.RedisCache, log *applogger.Logger) repository.Registry {
	return internalregistry.NewRedisRegistry(redisCache.Client(), log)
}

// ProvideClickHouseClient connects to ClickHouse and applies the alert
// log schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{internalrepo.AlertSchema, internalrepo.EventSchema}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideAlertLog builds the ClickHouse alert log.
func ProvideAlertLog(client *pkgch.Client) repository.AlertLog {
	return internalrepo.NewClickHouseAlertLog(client.DB(), "swarm_alerts")
}

// ProvideEventArchive builds the admitted-event archive.
func ProvideEventArchive(client *pkgch.Client) repository.EventArchive {
	return internalrepo.NewClickHouseEventArchive(client.DB(), "swarm_events")
}

// ProvidePublisher builds the Kafka alert publisher; delivery is a
// no-op when Kafka is disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAlertPublisher(producer), nil
}

// ProvideHTTPClient builds the shared JSON client for all adapters.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
}

// ChainSet bundles the assembled provider chain with the streaming
// source, which the app must start separately.
type ChainSet struct {
	Chain  *provider.Chain
	Stream *adapters.HeliusStream
	Prices repository.PriceLookup
}

// ProvideChainSet builds every configured provider adapter and
// assembles the fallback chains. Wallet addresses already registered
// feed the streaming source's subscription list.
func ProvideChainSet(cfg *config.Config, client *xhttp.Client, log *applogger.Logger, reg repository.Registry) (*ChainSet, error) {
	set := &ChainSet{}
	var regs []provider.Registration

	for _, pc := range cfg.Providers {
		src, err := buildSource(pc, cfg, client, log, reg, set)
		if err != nil {
			return nil, err
		}
		categories := make([]models.Category, 0, len(pc.Categories))
		for _, c := range pc.Categories {
			categories = append(categories, models.Category(c))
		}
		regs = append(regs, provider.Registration{
			Source: src,
			Descriptor: provider.Descriptor{
				Name:       pc.Name,
				Priority:   pc.Priority,
				Timeout:    pc.Timeout,
				RateLimit:  rate.Limit(pc.RateLimit),
				Burst:      pc.Burst,
				CacheTTL:   pc.CacheTTL,
				Categories: categories,
			},
		})
	}

	chain, err := provider.Build(regs)
	if err != nil {
		return nil, fmt.Errorf("build provider chain: %w", err)
	}
	set.Chain = chain

	if set.Prices == nil {
		// Backtests need a price source even when no dexscreener entry
		// is configured for scanning.
		set.Prices = adapters.NewDexScreener(client, log, "https://api.dexscreener.com", "solana")
	}
	return set, nil
}

func buildSource(pc config.ProviderConfig, cfg *config.Config, client *xhttp.Client, log *applogger.Logger, reg repository.Registry, set *ChainSet) (provider.Source, error) {
	switch pc.Name {
	case "helius":
		return adapters.NewHelius(client, log, pc.APIKey, pc.BaseURL), nil
	case "helius-ws":
		wallets, err := solanaWallets(reg)
		if err != nil {
			return nil, err
		}
		stream := adapters.NewHeliusStream(log, pc.BaseURL, wallets)
		set.Stream = stream
		return stream, nil
	case "solana-rpc":
		return adapters.NewSolanaRPC(client, log, pc.BaseURL), nil
	case "etherscan", "basescan":
		return adapters.NewEVMScanner(client, log, pc.Name, pc.BaseURL, pc.APIKey), nil
	case "dexscreener":
		ds := adapters.NewDexScreener(client, log, pc.BaseURL, "solana")
		set.Prices = ds
		return ds, nil
	case "cryptopanic":
		return adapters.NewCryptoPanic(client, log, pc.BaseURL, pc.APIKey), nil
	case "github":
		return adapters.NewGitHub(client, log, pc.BaseURL, pc.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Name)
	}
}

func solanaWallets(reg repository.Registry) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entities, err := reg.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load wallets for stream: %w", err)
	}
	var wallets []string
	for _, e := range entities {
		if e.Active && e.Category == models.CategoryWalletSolana {
			wallets = append(wallets, e.Address)
		}
	}
	return wallets, nil
}

// ProvideScheduler builds the bounded-concurrency fetch scheduler.
func ProvideScheduler(set *ChainSet, cacheSvc cache.Service, log *applogger.Logger, m repository.Metrics, cfg *config.Config) *scheduler.Scheduler {
	return scheduler.NewScheduler(set.Chain, cacheSvc, log, m, scheduler.WithWorkers(cfg.Scan.Workers))
}

// ProvideScorer builds the signal scorer from configured thresholds.
func ProvideScorer(cfg *config.Config) *scorer.Scorer {
	return scorer.NewScorer(scorer.WithThresholds(cfg.Scoring.StandardThreshold, cfg.Scoring.PriorityThreshold))
}

// ProvideSignalBuilder builds the event-to-signal mapper.
func ProvideSignalBuilder(cfg *config.Config) *usecase.SignalBuilder {
	return usecase.NewSignalBuilder(cfg.Scoring.Weights, cfg.Scoring.SignalTTL)
}

// ProvideCycle builds the scan cycle use case.
func ProvideCycle(
	reg repository.Registry,
	sched *scheduler.Scheduler,
	led repository.Ledger,
	builder *usecase.SignalBuilder,
	score *scorer.Scorer,
	alertLog repository.AlertLog,
	pub repository.Publisher,
	archive repository.EventArchive,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Cycle {
	opts := []usecase.CycleOption{
		usecase.WithCycleDeadline(cfg.Scan.CycleDeadline),
		usecase.WithAlertCooldown(cfg.Scoring.AlertCooldown),
		usecase.WithInactiveAfter(cfg.Registry.InactiveAfter),
		usecase.WithEventArchive(archive),
	}
	if cfg.Scan.Category != "" {
		opts = append(opts, usecase.WithCategoryFilter(models.Category(cfg.Scan.Category)))
	}
	return usecase.NewCycle(reg, sched, led, builder, score, alertLog, pub, m, log, opts...)
}

// ProvideMonitor builds the interval monitor.
func ProvideMonitor(cycle *usecase.Cycle, cfg *config.Config, log *applogger.Logger) *usecase.Monitor {
	return usecase.NewMonitor(cycle, cfg.Scan.Interval, log)
}

// ProvideEvaluator builds the backtest evaluator.
func ProvideEvaluator(alertLog repository.AlertLog, set *ChainSet, log *applogger.Logger) *backtest.Evaluator {
	return backtest.NewEvaluator(alertLog, set.Prices, log)
}

// ProvideDiscoverer builds the operator-triggered wallet discoverer.
func ProvideDiscoverer(httpClient *xhttp.Client, reg repository.Registry, log *applogger.Logger) *discovery.Discoverer {
	source := discovery.NewGMGN(httpClient, log, "")
	return discovery.NewDiscoverer(source, reg, log)
}

// ProvideStatusHandler builds the ops HTTP handler.
func ProvideStatusHandler(log *applogger.Logger, monitor *usecase.Monitor, reg repository.Registry, evaluator *backtest.Evaluator, discoverer *discovery.Discoverer) *api.StatusHandler {
	return api.NewStatusHandler(log, monitor, reg, evaluator, discoverer)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	monitor *usecase.Monitor,
	handler *api.StatusHandler,
	set *ChainSet,
	redisCache *cache.RedisCache,
	chClient *pkgch.Client,
	led repository.Ledger,
	pub repository.Publisher,
) *server.App {
	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)
	return server.New(cfg, log, monitor, httpServer, set.Stream, server.Resources{
		Cache:      redisCache,
		ClickHouse: chClient,
		Ledger:     led,
		Publisher:  pub,
	})
}
