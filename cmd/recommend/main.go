// Command recommend queries a restaurant catalog from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/catalog"
	"github.com/knowledge-engine/recommender/internal/config"
	"github.com/knowledge-engine/recommender/internal/engine"
	"github.com/knowledge-engine/recommender/internal/fetcher"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	source := flag.String("source", cfg.Catalog.Source, "catalog CSV path, URL or database DSN")
	name := flag.String("name", "", "recommend restaurants similar to this one")
	query := flag.String("q", "", "recommend restaurants matching this description")
	list := flag.Bool("list", false, "list restaurant names and exit")
	topK := flag.Int("k", cfg.Engine.TopK, "number of recommendations")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	entry := logger.WithField("service", "recommend-cli")

	cfg.Catalog.Source = *source
	src, err := catalog.NewSource(cfg.Catalog, fetcher.NewFetcher(cfg.Fetch, entry))
	if err != nil {
		entry.Fatal(err)
	}

	eng, err := engine.Load(context.Background(), src, engine.Options{TopK: *topK, StopWords: cfg.Engine.ExtraStopWords, StripMarkup: cfg.Engine.StripMarkup}, entry)
	if err != nil {
		entry.Fatalf("Recommendation engine is offline: %v", err)
	}

	if *list {
		for _, n := range eng.ItemNames() {
			fmt.Println(n)
		}
		return
	}

	req := engine.Request{Name: *name, Query: *query}
	if req.Mode() == engine.ModeNone {
		fmt.Fprintln(os.Stderr, "usage: recommend [-source path] (-name NAME | -q TEXT | -list)")
		flag.PrintDefaults()
		os.Exit(2)
	}

	recs, err := eng.Recommend(req)
	if errors.Is(err, engine.ErrUnknownItem) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err != nil {
		entry.Fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tRESTAURANT\tSCORE\tTAGS")
	for i, rec := range recs {
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%s\n", i+1, rec.Item.Name, rec.Score, rec.Item.Tags)
	}
	w.Flush()
}
