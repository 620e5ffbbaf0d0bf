// Package training ships completed sessions to an external dataset
// collector. Export is fire-and-forget: a collector outage never affects
// the run that produced the data.
package training

import (
	"context"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quorumtrade/quorum/internal/models"
)

// Exporter posts terminal session payloads to the collector endpoint.
// A nil Exporter or empty endpoint disables export.
type Exporter struct {
	client   *resty.Client
	endpoint string
}

func NewExporter(endpoint string) *Exporter {
	if endpoint == "" {
		return nil
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Quorum/1.0")
	client.SetRetryCount(2)
	client.SetRetryWaitTime(2 * time.Second)
	return &Exporter{client: client, endpoint: endpoint}
}

type debateSample struct {
	Kind       string                  `json:"kind"`
	SessionID  string                  `json:"session_id"`
	Query      string                  `json:"query"`
	Transcript []models.RoundMessage   `json:"transcript"`
	Synthesis  *models.SynthesisReport `json:"synthesis"`
}

type consensusSample struct {
	Kind    string                  `json:"kind"`
	Session *models.ConsensusResult `json:"session"`
}

// ExportDebate ships a finished debate in the background.
func (e *Exporter) ExportDebate(query string, result *models.DebateResult) {
	if e == nil || result == nil {
		return
	}
	e.post(debateSample{
		Kind:       "debate",
		SessionID:  result.SessionID,
		Query:      query,
		Transcript: result.Transcript,
		Synthesis:  result.Synthesis,
	})
}

// ExportConsensus ships a finished consensus round in the background.
func (e *Exporter) ExportConsensus(result *models.ConsensusResult) {
	if e == nil || result == nil {
		return
	}
	e.post(consensusSample{Kind: "consensus", Session: result})
}

func (e *Exporter) post(sample any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		resp, err := e.client.R().
			SetContext(ctx).
			SetBody(sample).
			Post(e.endpoint)
		if err != nil {
			log.Printf("training: export failed: %v", err)
			return
		}
		if resp.StatusCode() >= 300 {
			log.Printf("training: collector returned %d", resp.StatusCode())
		}
	}()
}
