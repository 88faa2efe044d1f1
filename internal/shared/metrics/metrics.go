package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	deckJobsReceivedTotal  atomic.Uint64
	deckJobsCompletedTotal atomic.Uint64
	deckJobsSkippedTotal   atomic.Uint64
	deckJobsFailedTotal    atomic.Uint64
	staleDecksSweptTotal   atomic.Uint64

	deckProcessingDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncDeckJobsReceived increments the received counter.
func IncDeckJobsReceived() {
	deckJobsReceivedTotal.Add(1)
}

// IncDeckJobsCompleted increments the completed counter.
func IncDeckJobsCompleted() {
	deckJobsCompletedTotal.Add(1)
}

// IncDeckJobsSkipped increments the skipped counter (idempotent re-deliveries).
func IncDeckJobsSkipped() {
	deckJobsSkippedTotal.Add(1)
}

// IncDeckJobsFailed increments the failed counter.
func IncDeckJobsFailed() {
	deckJobsFailedTotal.Add(1)
}

// IncStaleDecksSwept increments the janitor sweep counter.
func IncStaleDecksSwept() {
	staleDecksSweptTotal.Add(1)
}

// ObserveDeckProcessingMs records a deck processing duration in milliseconds.
func ObserveDeckProcessingMs(value float64) {
	if value < 0 {
		value = 0
	}
	deckProcessingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "deck_jobs_received_total", "Total deck jobs received from the queue", deckJobsReceivedTotal.Load())
	writeCounter(&buf, "deck_jobs_completed_total", "Total deck jobs completed", deckJobsCompletedTotal.Load())
	writeCounter(&buf, "deck_jobs_skipped_total", "Total deck jobs skipped as already satisfied", deckJobsSkippedTotal.Load())
	writeCounter(&buf, "deck_jobs_failed_total", "Total deck jobs failed", deckJobsFailedTotal.Load())
	writeCounter(&buf, "stale_decks_swept_total", "Total stuck processing decks swept by the janitor", staleDecksSweptTotal.Load())
	writeHistogram(&buf, "deck_processing_duration_ms", "Deck processing duration in milliseconds", deckProcessingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
	h.sum += value
	h.count++
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	return histogramSnapshot{
		buckets: h.buckets,
		counts:  counts,
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, strconv.FormatFloat(bound, 'f', -1, 64), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %g\n", name, snap.sum)
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}
