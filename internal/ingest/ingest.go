package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"policy-rag/internal/chunker"
	"policy-rag/internal/config"
	"policy-rag/internal/embedding"
	"policy-rag/internal/models"
	"policy-rag/internal/parser"
)

// Pipeline walks the configured document sources, chunks every page, embeds
// the chunks through a bounded worker pool and produces the full record set
// in memory. Nothing is persisted until the pool has drained.
type Pipeline struct {
	cfg       *config.Config
	extractor parser.PageExtractor
	chunker   *chunker.Chunker
	retrier   *embedding.Retrier
}

func New(cfg *config.Config, extractor parser.PageExtractor, ch *chunker.Chunker, retrier *embedding.Retrier) *Pipeline {
	return &Pipeline{cfg: cfg, extractor: extractor, chunker: ch, retrier: retrier}
}

// Run builds the corpus. A bad file or a failed chunk embedding is logged
// and skipped; the run itself only fails on an unusable source directory
// configuration (no sources at all).
func (p *Pipeline) Run(ctx context.Context) ([]models.Record, error) {
	var tasks []models.Chunk
	for _, src := range p.cfg.Sources {
		log.Info().Str("dir", src.Dir).Str("doc_type", src.DocType).Msg("Scanning folder")
		entries, err := os.ReadDir(src.Dir)
		if err != nil {
			log.Error().Err(err).Str("dir", src.Dir).Msg("Cannot read source directory, skipping")
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !parser.IsIngestible(entry.Name()) {
				continue
			}
			fileTasks, err := p.processFile(entry.Name(), src)
			if err != nil {
				log.Error().Err(err).Str("filename", entry.Name()).Msg("Error processing file, skipping")
				continue
			}
			tasks = append(tasks, fileTasks...)
		}
	}

	log.Info().Int("chunks", len(tasks)).Msg("Embedding chunks")
	records := p.embedAll(ctx, tasks)

	// Deterministic identifiers: completion order depends on network
	// latency, so sort before numbering.
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.PageNumber != b.PageNumber {
			return a.PageNumber < b.PageNumber
		}
		return a.Chunk < b.Chunk
	})
	for i := range records {
		records[i].ID = i + 1
	}
	return records, nil
}

// processFile extracts page texts and fans each page out through the
// chunker, pairing every chunk with its page metadata.
func (p *Pipeline) processFile(filename string, src config.SourceConfig) ([]models.Chunk, error) {
	filePath := filepath.Join(src.Dir, filename)
	fileURL := src.BaseURL + filename

	pages, err := p.extractor.ExtractPages(filePath)
	if err != nil {
		return nil, err
	}

	var tasks []models.Chunk
	for pageIdx, pageText := range pages {
		paragraphs := strings.Split(pageText, "\n")
		for chunkIdx, chunkText := range p.chunker.Chunk(paragraphs) {
			tasks = append(tasks, models.Chunk{
				Content:    chunkText,
				Filename:   filename,
				FileURL:    fileURL,
				PageText:   pageText,
				DocType:    src.DocType,
				PageNumber: pageIdx + 1,
				ChunkIndex: chunkIdx,
			})
		}
	}
	return tasks, nil
}

// embedAll runs the embedding calls through a bounded worker pool and
// collects surviving records in completion order. The bound respects the
// embedding service's rate limits, not CPU parallelism.
func (p *Pipeline) embedAll(ctx context.Context, tasks []models.Chunk) []models.Record {
	workers := p.cfg.EmbedLLM.Workers
	jobs := make(chan models.Chunk)
	results := make(chan models.Record)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				vector, ok := p.retrier.EmbedText(ctx, task.Content)
				if !ok {
					log.Warn().
						Str("filename", task.Filename).
						Int("page", task.PageNumber).
						Int("chunk", task.ChunkIndex).
						Msg("Dropping chunk without embedding")
					continue
				}
				results <- models.Record{
					Filename:   task.Filename,
					FileURL:    task.FileURL,
					Page:       task.PageText,
					DocType:    task.DocType,
					PageNumber: task.PageNumber,
					Chunk:      task.ChunkIndex,
					Embedding:  vector,
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case jobs <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]models.Record, 0, len(tasks))
	for record := range results {
		records = append(records, record)
	}
	return records
}

// WriteSeedFile serializes the whole corpus once, at the end of the run.
func WriteSeedFile(records []models.Record, path string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Info().Int("records", len(records)).Str("path", path).Msg("Seed file written")
	return nil
}

// ReadSeedFile loads a previously written corpus.
func ReadSeedFile(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
