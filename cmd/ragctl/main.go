package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"policy-rag/internal/chromemdb"
	"policy-rag/internal/chunker"
	"policy-rag/internal/config"
	"policy-rag/internal/db"
	"policy-rag/internal/embedding"
	"policy-rag/internal/helper"
	"policy-rag/internal/ingest"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/models"
	"policy-rag/internal/parser"
	"policy-rag/internal/rag"
	"policy-rag/internal/searcher"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	runIngest := flag.Bool("ingest", false, "Ingest the configured document sources and write the seed file")
	runSeed := flag.Bool("seed", false, "Load the seed file into Postgres")
	query := flag.String("query", "", "Question to answer against the corpus")
	stream := flag.Bool("stream", false, "Stream the answer incrementally")
	local := flag.Bool("local", false, "Serve from the local chromem store instead of Postgres")
	mode := flag.String("mode", "hybrid", "Retrieval mode: text, vectors or hybrid")
	top := flag.Int("top", 0, "Number of results to retrieve")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	switch {
	case *runIngest:
		ingestDocuments(ctx, cfg)
	case *runSeed:
		seedDatabase(ctx, cfg)
	case *query != "":
		askQuestion(ctx, cfg, *query, *stream, *local, models.RetrievalMode(*mode), *top)
	default:
		log.Fatal().Msg("Provide -ingest, -seed or -query")
	}
}

func ingestDocuments(ctx context.Context, cfg *config.Config) {
	ch, err := chunker.New(cfg.EmbedLLM.Model, cfg.RAG.ChunkMaxTokens)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building chunker")
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	retrier := embedding.NewRetrier(embedder, &cfg.EmbedLLM)

	extractor := parser.NewExtractor(parser.NewConverter(""))
	pipeline := ingest.New(cfg, extractor, ch, retrier)

	records, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error running ingestion")
	}
	if err := ingest.WriteSeedFile(records, cfg.RAG.SeedFile); err != nil {
		log.Fatal().Err(err).Msg("Error writing seed file")
	}
}

func seedDatabase(ctx context.Context, cfg *config.Config) {
	records, err := ingest.ReadSeedFile(cfg.RAG.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading seed file")
	}

	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	bunDB := db.NewDB(sqldb, cfg.Database.Debug)
	defer bunDB.Close()

	if err := db.DropItems(ctx, bunDB); err != nil {
		log.Fatal().Err(err).Msg("Error clearing items")
	}
	if err := db.InitDB(ctx, bunDB, cfg.EmbedLLM.Dimension); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	if err := db.StoreItems(ctx, bunDB, records); err != nil {
		log.Fatal().Err(err).Msg("Error storing items")
	}
	log.Info().Int("items", len(records)).Msg("Database seeded")
}

func askQuestion(ctx context.Context, cfg *config.Config, query string, stream, local bool, mode models.RetrievalMode, top int) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	var corpus searcher.Searcher
	if local {
		if cfg.LocalStore.Path != "" && !cfg.LocalStore.InMemory {
			if err := helper.CreateFolder(cfg.LocalStore.Path); err != nil {
				log.Fatal().Err(err).Msg("Error creating folder")
			}
		}
		records, err := ingest.ReadSeedFile(cfg.RAG.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Error reading seed file")
		}
		corpus, err = chromemdb.NewLocalStore(&cfg.LocalStore, records, embedder, cfg.EmbedLLM.Dimension)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating local store")
		}
	} else {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		defer bunDB.Close()
		corpus = db.NewPostgresSearcher(bunDB, embedder, cfg.EmbedLLM.Dimension)
	}

	chat, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat client")
	}

	orchestrator := rag.NewOrchestrator(corpus, chat, cfg)
	messages := []models.Message{{Role: models.RoleUser, Content: query}}
	overrides := models.ChatRequestOverrides{
		Top:             top,
		RetrievalMode:   mode,
		UseAdvancedFlow: true,
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	if stream {
		answerStream := orchestrator.RunStream(ctx, messages, overrides)
		for delta := range answerStream.Deltas() {
			if delta.Context != nil {
				log.Info().Int("data_points", len(delta.Context.DataPoints)).Int("thoughts", len(delta.Context.Thoughts)).Msg("Context ready")
				continue
			}
			if delta.Delta != nil {
				fmt.Print(delta.Delta.Content)
			}
		}
		fmt.Println()
		if err := answerStream.Err(); err != nil {
			log.Fatal().Err(err).Msg("Error streaming answer")
		}
		return
	}

	response, err := orchestrator.Run(ctx, messages, overrides)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Message.Content)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	helper.PrettyPrint(response.Context.DataPoints)
}
