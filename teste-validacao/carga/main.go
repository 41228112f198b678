// carga dispara requisições concorrentes contra o tracker-api e conta os
// status, para ver o rate limit funcionando de fora.
//
//	TARGET_URL=http://localhost:8080/system/status REQUESTS=200 WORKERS=20 go run ./teste-validacao/carga
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type input struct {
	TargetURL string        `envconfig:"TARGET_URL" default:"http://localhost:8080/system/status"`
	Method    string        `envconfig:"METHOD" default:"GET"`
	Body      string        `envconfig:"BODY"`
	Token     string        `envconfig:"TOKEN"`
	Requests  int           `envconfig:"REQUESTS" default:"100"`
	Workers   int           `envconfig:"WORKERS" default:"10"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

func main() {
	var in input
	if err := envconfig.Process("", &in); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	client := &http.Client{Timeout: in.Timeout}

	var (
		mu     sync.Mutex
		counts = make(map[int]int)
		failed int
	)

	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(in.Workers)
	for i := 0; i < in.Requests; i++ {
		g.Go(func() error {
			status, err := fire(ctx, client, in)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return nil
			}
			counts[status]++
			return nil
		})
	}
	_ = g.Wait()

	statuses := make([]int, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Ints(statuses)

	logger.Info("load finished",
		zap.String("target", in.TargetURL),
		zap.Int("requests", in.Requests),
		zap.Int("transport_errors", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	for _, s := range statuses {
		fmt.Printf("%d %s: %d\n", s, http.StatusText(s), counts[s])
	}
}

func fire(ctx context.Context, client *http.Client, in input) (int, error) {
	req, err := http.NewRequestWithContext(ctx, in.Method, in.TargetURL, strings.NewReader(in.Body))
	if err != nil {
		return 0, err
	}
	if in.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.Token != "" {
		req.Header.Set("Authorization", "Bearer "+in.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
