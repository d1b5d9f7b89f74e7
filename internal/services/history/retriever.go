package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/symbols"
)

const (
	DefaultChunkSize       = 3
	DefaultHistorySessions = 20
)

// ChunkResult is the outcome of one remote call: partial success or empty
type ChunkResult struct {
	Symbols []string `json:"symbols"`
	Found   int      `json:"found"`
	Err     error    `json:"-"`
}

// OK reports whether the chunk call and its parse both succeeded
func (c ChunkResult) OK() bool {
	return c.Err == nil
}

// RetrievalResult aggregates every chunk of one retrieval pass
type RetrievalResult struct {
	History models.HistoryMap
	Chunks  []ChunkResult
}

// Failed returns the number of chunks that contributed nothing because of an error
func (r *RetrievalResult) Failed() int {
	n := 0
	for _, c := range r.Chunks {
		if !c.OK() {
			n++
		}
	}
	return n
}

// RetrieverConfig tunes chunking and the prompt
type RetrieverConfig struct {
	ChunkSize       int
	HistorySessions int
	SearchGrounding bool
}

// Retriever fetches recent closing prices from a text generator in sequential chunks
type Retriever struct {
	generator interfaces.TextGenerator
	meter     interfaces.UsageRecorder
	config    RetrieverConfig
	logger    *common.Logger
}

// NewRetriever creates a retriever. generator may be nil, in which case every
// Retrieve fails with ErrRetrievalUnavailable. meter may be nil.
func NewRetriever(generator interfaces.TextGenerator, meter interfaces.UsageRecorder, config RetrieverConfig, logger *common.Logger) *Retriever {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.HistorySessions <= 0 {
		config.HistorySessions = DefaultHistorySessions
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Retriever{
		generator: generator,
		meter:     meter,
		config:    config,
		logger:    logger,
	}
}

// Available reports whether a generator is configured
func (r *Retriever) Available() bool {
	return r.generator != nil
}

// Retrieve fetches history for syms. A failed chunk is recorded in the result and
// the pass continues; the only errors returned are ErrRetrievalUnavailable and
// context cancellation.
func (r *Retriever) Retrieve(ctx context.Context, syms []string) (*RetrievalResult, error) {
	if r.generator == nil {
		return nil, ErrRetrievalUnavailable
	}

	result := &RetrievalResult{History: make(models.HistoryMap)}
	for _, chunk := range chunkSymbols(syms, r.config.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cr := r.fetchChunk(ctx, chunk, result.History)
		if cr.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			r.logger.Warn().Err(cr.Err).Str("symbols", strings.Join(chunk, ",")).Msg("History chunk failed")
		}
		result.Chunks = append(result.Chunks, cr)
	}

	r.logger.Debug().
		Int("symbols", len(syms)).
		Int("chunks", len(result.Chunks)).
		Int("failed_chunks", result.Failed()).
		Int("with_history", len(result.History)).
		Msg("History retrieval pass complete")

	return result, nil
}

func (r *Retriever) fetchChunk(ctx context.Context, chunk []string, into models.HistoryMap) ChunkResult {
	cr := ChunkResult{Symbols: chunk}

	if r.meter != nil {
		r.meter.Record()
	}
	text, err := r.generator.Generate(ctx, buildHistoryPrompt(chunk, r.config.HistorySessions), interfaces.GenerateOptions{
		EnableSearchGrounding: r.config.SearchGrounding,
	})
	if err != nil {
		cr.Err = &ChunkError{Symbols: chunk, Err: err}
		return cr
	}

	parsed, err := parseHistory(text)
	if err != nil {
		cr.Err = &ChunkError{Symbols: chunk, Err: err}
		return cr
	}

	requested := make(map[string]bool, len(chunk))
	for _, s := range chunk {
		requested[s] = true
	}
	for sym, points := range parsed {
		if requested[sym] {
			cr.Found++
		}
		into[sym] = points
	}
	return cr
}

// chunkSymbols splits syms into consecutive groups of at most size
func chunkSymbols(syms []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]string
	for i := 0; i < len(syms); i += size {
		end := i + size
		if end > len(syms) {
			end = len(syms)
		}
		chunks = append(chunks, syms[i:end])
	}
	return chunks
}

func buildHistoryPrompt(chunk []string, sessions int) string {
	prefixed := make([]string, len(chunk))
	for i, s := range chunk {
		prefixed[i] = symbols.TradingViewSymbol(s)
	}

	return fmt.Sprintf(`Find the historical DAILY CLOSING PRICES for the last %d COMPLETED trading sessions for these EGX stocks: %s.

Rules:
- Do not include today's session; only completed sessions.
- Source prices from TradingView, Investing.com or official Egyptian Exchange data.
- Return a JSON array of objects: [{"symbol": "EGX:XXXX", "data": [{"date": "YYYY-MM-DD", "close": 12.34}]}]
- Sort dates descending (newest first).
- Return raw JSON only, with no commentary and no markdown.`, sessions, strings.Join(prefixed, ", "))
}
