package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"
)

// rankOf returns teamID's position in the standings, or -1 if the team has
// not buzzed this round. Position 0 is first to buzz. Teams in the snapshot
// that the caller doesn't know about simply never match.
func rankOf(snapshot []ClickEvent, teamID string) int {
	for i, c := range snapshot {
		if c.TeamID == teamID {
			return i
		}
	}
	return -1
}

type rankTier int

const (
	tierUnranked rankTier = iota
	tierFirst
	tierSecond
	tierThird
	tierOther
)

// tierFor buckets a rank into the four display tiers used by the board:
// first, second, third, and everyone else.
func tierFor(rank int) rankTier {
	switch {
	case rank < 0:
		return tierUnranked
	case rank == 0:
		return tierFirst
	case rank == 1:
		return tierSecond
	case rank == 2:
		return tierThird
	default:
		return tierOther
	}
}

// Poller re-fetches the buzzer standings on a fixed interval. Each poll is
// an independent, idempotent read; a failed fetch is logged and retried on
// the next tick, with no backoff.
type Poller struct {
	url      string
	interval time.Duration
	client   *http.Client
	onUpdate func([]ClickEvent)
}

func newPoller(url string, interval time.Duration, onUpdate func([]ClickEvent)) *Poller {
	return &Poller{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		onUpdate: onUpdate,
	}
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot, err := p.fetch(ctx)
			if err != nil {
				log.Println("poll error:", err)
				continue
			}
			p.onUpdate(snapshot)
		}
	}
}

func (p *Poller) fetch(ctx context.Context) ([]ClickEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, p.url)
	}

	var snapshot []ClickEvent
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// watchStandings polls baseURL and prints the buzzer standings to out
// whenever they change. Blocks until ctx is cancelled.
func watchStandings(ctx context.Context, baseURL string, interval time.Duration, out io.Writer) error {
	target := strings.TrimSuffix(baseURL, "/") + "/api/buzzer"

	var last []ClickEvent
	seen := false

	p := newPoller(target, interval, func(snapshot []ClickEvent) {
		if seen && slices.Equal(snapshot, last) {
			return
		}
		last = snapshot
		seen = true

		if len(snapshot) == 0 {
			fmt.Fprintln(out, "(no buzzes yet)")
			return
		}
		for i, c := range snapshot {
			fmt.Fprintf(out, "%d. %s\n", i+1, c.TeamID)
		}
		fmt.Fprintln(out, "---")
	})

	p.run(ctx)

	return nil
}
