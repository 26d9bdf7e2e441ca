package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/config"
	"github.com/yoockh/slife/internal/cache"
	"github.com/yoockh/slife/internal/dataset"
	"github.com/yoockh/slife/internal/prompts"
	"github.com/yoockh/slife/internal/providers/embedding"
	"github.com/yoockh/slife/internal/providers/llm"
	"github.com/yoockh/slife/internal/repositories/memory"
	pgrepo "github.com/yoockh/slife/internal/repositories/postgres"
	"github.com/yoockh/slife/internal/retrieval"
	"github.com/yoockh/slife/internal/services"
	"github.com/yoockh/slife/internal/storage"
	"github.com/yoockh/slife/internal/utils"
)

// Result is the outcome of startup. Service is never nil: when Err is set it
// answers every call with NOT_INITIALIZED so the host can still serve health.
type Result struct {
	Service   services.ChatService
	Documents int
	Err       error

	closers []func() error
}

func (r *Result) Ready() bool { return r.Err == nil }

func (r *Result) DocumentCount() int { return r.Documents }

func (r *Result) StartupError() error { return r.Err }

func (r *Result) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

func (r *Result) fail(err error) *Result {
	r.Err = err
	r.Service = services.NewUnavailableChatService(err)
	return r
}

// Deps are the external collaborators. Nil fields are filled by Build.
type Deps struct {
	LLM      llm.Provider
	Embedder embedding.Embedder
	Store    retrieval.Store
	Opener   storage.Opener
	Cache    cache.Cache
}

// Build validates settings, connects the configured backends and assembles
// the chat pipeline. It never panics; failures are reported in Result.Err.
func Build(ctx context.Context, s *config.Settings, log *logrus.Logger) *Result {
	const op = "bootstrap.Build"
	res := &Result{}

	if err := s.Validate(); err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "invalid configuration", err))
	}
	opts := s.ClientOptions()

	var deps Deps

	gem, err := llm.NewVertexGemini(ctx, s.GoogleProject, s.GoogleLocation, s.ChatModel, float32(s.ChatTemperature), opts...)
	if err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "completion client", err))
	}
	res.closers = append(res.closers, gem.Close)
	deps.LLM = gem

	emb, err := embedding.NewVertexEmbedder(ctx, s.GoogleProject, s.GoogleLocation, s.EmbeddingModel, opts...)
	if err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "embedding client", err))
	}
	res.closers = append(res.closers, emb.Close)
	deps.Embedder = emb

	mux := storage.MuxOpener{Local: storage.LocalOpener{}}
	if storage.IsGCSPath(s.DatasetPath) {
		gcs, err := storage.NewGCSOpener(ctx, opts...)
		if err != nil {
			return res.fail(utils.E(utils.CodeNotInitialized, op, "storage client", err))
		}
		res.closers = append(res.closers, gcs.Close)
		mux.GCS = gcs
	}
	deps.Opener = mux

	if s.PostgresURI != "" {
		db, err := config.InitPostgres(s.PostgresURI)
		if err != nil {
			return res.fail(utils.E(utils.CodeNotInitialized, op, "postgres", err))
		}
		if sqlDB, err := db.DB(); err == nil {
			res.closers = append(res.closers, sqlDB.Close)
		}
		repo := pgrepo.NewListingVectorRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			return res.fail(utils.E(utils.CodeNotInitialized, op, "pgvector migration", err))
		}
		deps.Store = repo
		log.Info("vector store: pgvector")
	}

	if s.RedisAddr != "" {
		rdb, err := config.InitRedis(ctx, s.RedisAddr)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, query embedding cache disabled")
		} else {
			res.closers = append(res.closers, rdb.Close)
			deps.Cache = cache.NewRedisCache(rdb, "slife:")
		}
	}

	return Assemble(ctx, s, deps, log, res)
}

// Assemble loads the dataset, builds the index and wires the services.
// res may be nil.
func Assemble(ctx context.Context, s *config.Settings, deps Deps, log *logrus.Logger, res *Result) *Result {
	const op = "bootstrap.Assemble"
	if res == nil {
		res = &Result{}
	}
	start := time.Now()

	policy, err := retrieval.ParsePolicy(s.RetrievalPolicy)
	if err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "retrieval policy", err))
	}
	params := retrieval.Params{Policy: policy, K: s.RetrievalK, FetchK: s.RetrievalFetchK, Lambda: s.RetrievalLambda}
	if err := params.Validate(); err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "retrieval parameters", err))
	}

	tpl, err := prompts.Load(s.PromptsFile)
	if err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "prompt templates", err))
	}

	retry := utils.RetryPolicy{MaxAttempts: s.RetryAttempts, BaseDelay: s.RetryBaseDelay, Logger: log}
	completer := llm.WithResilience(deps.LLM, retry, s.CallTimeout)
	var embedder embedding.Embedder = embedding.WithResilience(deps.Embedder, retry, s.CallTimeout)
	if deps.Cache != nil {
		embedder = embedding.NewCachedEmbedder(embedder, deps.Cache, s.EmbeddingModel, s.QueryCacheTTL, log)
	}

	records := dataset.NewLoader(deps.Opener, log).Load(ctx, s.DatasetPath)
	if len(records) == 0 {
		return res.fail(utils.E(utils.CodeNotInitialized, op,
			fmt.Sprintf("dataset %s is missing, unreadable or empty", s.DatasetPath), nil))
	}
	docs := dataset.SynthesizeAll(records)

	store := deps.Store
	if store == nil {
		store = retrieval.NewMemoryStore()
	}
	index, err := retrieval.Build(ctx, docs, embedder, store,
		retrieval.BuildOptions{BatchSize: s.EmbedBatchSize, Concurrency: s.EmbedWorkers}, log)
	if err != nil {
		return res.fail(utils.E(utils.CodeNotInitialized, op, "index build failed", err))
	}

	res.Service = services.NewChatService(
		memory.NewSessionRepo(),
		services.NewQueryRewriter(completer, tpl, s.HistoryAware),
		index,
		services.NewAnswerComposer(completer, tpl),
		services.ChatOptions{Retrieval: params, DefaultSessionID: s.DefaultSessionID},
		log,
	)
	res.Documents = index.Len()
	res.Err = nil

	log.WithFields(logrus.Fields{
		"documents":      res.Documents,
		"policy":         policy,
		"history_aware":  s.HistoryAware,
		"prompt_version": tpl.Version,
		"took_ms":        time.Since(start).Milliseconds(),
	}).Info("chat service ready")
	return res
}
