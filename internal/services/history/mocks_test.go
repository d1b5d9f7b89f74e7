package history

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/egxtrends/internal/calendar"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
)

// mockGenerator answers each prompt with the stored series of every EGX:-prefixed
// symbol the prompt mentions
type mockGenerator struct {
	mu      sync.Mutex
	series  map[string][]models.PricePoint
	failFor map[string]error // symbol -> error for any chunk containing it
	raw     string           // when set, returned verbatim
	panics  bool
	prompts []string
	opts    []interfaces.GenerateOptions
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{
		series:  make(map[string][]models.PricePoint),
		failFor: make(map[string]error),
	}
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, opts interfaces.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)

	if m.panics {
		panic("generator exploded")
	}
	for sym, err := range m.failFor {
		if strings.Contains(prompt, "EGX:"+sym+",") || strings.Contains(prompt, "EGX:"+sym+".") {
			return "", err
		}
	}
	if m.raw != "" {
		return m.raw, nil
	}

	var payload []map[string]any
	for sym, points := range m.series {
		if !strings.Contains(prompt, "EGX:"+sym+",") && !strings.Contains(prompt, "EGX:"+sym+".") {
			continue
		}
		data := make([]map[string]any, len(points))
		for i, p := range points {
			data[i] = map[string]any{"date": string(p.Date), "close": p.Close}
		}
		payload = append(payload, map[string]any{"symbol": "EGX:" + sym, "data": data})
	}
	b, _ := json.Marshal(payload)
	return "Here is the data:\n```json\n" + string(b) + "\n```", nil
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type countingMeter struct {
	mu sync.Mutex
	n  int
}

func (c *countingMeter) Record() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingMeter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// constSource always returns v; 0.5 maps every symmetric draw to its midpoint
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

type recordingObserver struct {
	mu        sync.Mutex
	chunksOK  int
	chunksBad int
	runs      int
	simulated int
}

func (o *recordingObserver) ObserveChunk(ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.chunksOK++
	} else {
		o.chunksBad++
	}
}

func (o *recordingObserver) ObserveAssembly(simulated bool, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
	if simulated {
		o.simulated++
	}
}

// testThursday is 2026-10-15, a Thursday
var testThursday = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func testCalendar() *calendar.Generator {
	return calendar.NewGenerator(calendar.WithClock(func() time.Time { return testThursday }))
}

func newTestService(gen interfaces.TextGenerator, meter interfaces.UsageRecorder, opts ...ServiceOption) *Service {
	var retriever *Retriever
	if gen != nil {
		retriever = NewRetriever(gen, meter, RetrieverConfig{ChunkSize: 3, HistorySessions: 20, SearchGrounding: true}, nil)
	} else {
		retriever = NewRetriever(nil, meter, RetrieverConfig{}, nil)
	}
	base := []ServiceOption{
		WithCalendar(testCalendar()),
		WithSource(constSource(0.5)),
		WithFallbackDelay(0),
	}
	return NewService(retriever, nil, append(base, opts...)...)
}

func stock(sym string) models.Stock {
	return models.Stock{Symbol: sym, Name: sym + " Stock", Sector: "General"}
}
