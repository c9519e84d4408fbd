// Command discover runs one slang discovery pass from the terminal.
//
// It fetches comments for the given topics, extracts candidate terms, sends
// them to the LLM verifier, and appends confirmed terms to the slang store.
// Configuration comes from the same environment variables as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/internal/config"
	"github.com/slanglearn/streetspeak/internal/llm"
	"github.com/slanglearn/streetspeak/internal/youtube"
	"github.com/slanglearn/streetspeak/pkg/streetspeak"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/candidates"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/discovery"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/fetch"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/verify"
)

func main() {
	var (
		topicsFlag = flag.String("topics", "", "Comma-separated topics (default: built-in topic list)")
		perTopic   = flag.Int("shorts", streetspeak.DefaultShortsPerTopic, "Shorts per topic")
		comments   = flag.Int("comments", streetspeak.DefaultCommentsPerShort, "Comments per short")
		verbose    = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	vocab, err := config.LoadVocabulary(cfg.VocabPath)
	if err != nil {
		log.WithError(err).Fatal("load vocabulary")
	}
	store, err := slangstore.Open(cfg.SlangPath)
	if err != nil {
		log.WithError(err).Fatal("open slang store")
	}

	topics := vocab.SupplementalTopics
	if *topicsFlag != "" {
		topics = splitTopics(*topicsFlag)
	}

	fetcher := fetch.New(youtube.New(cfg.YouTubeAPIKey, log), log)
	fetcher.SupplementalTopics = vocab.SupplementalTopics

	chat := &llm.Client{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	}
	extractor := candidates.NewExtractor(candidates.DefaultConfig(), vocab.CommonWords, vocab.CommonBigrams)
	orch := discovery.New(extractor, verify.New(chat, log), store, log)

	ctx := context.Background()

	fmt.Printf("fetching comments for %s...\n", strings.Join(topics, ", "))
	videos, err := fetcher.Fetch(ctx, topics, *perTopic, *comments, store.AllTerms())
	if err != nil {
		log.WithError(err).Fatal("fetch")
	}
	var corpus []shorts.Comment
	for _, v := range videos {
		corpus = append(corpus, v.Comments...)
	}
	fmt.Printf("analyzing %d comments from %d videos\n", len(corpus), len(videos))

	terms, err := orch.Run(ctx, corpus)
	if err != nil {
		log.WithError(err).Fatal("discovery")
	}
	if len(terms) == 0 {
		fmt.Println("no new slang confirmed")
		os.Exit(0)
	}
	fmt.Printf("confirmed %d new terms:\n", len(terms))
	for _, t := range terms {
		fmt.Printf("  %-16s [%s] %s\n", t.Term, t.Category, t.Definition)
	}
}

func splitTopics(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
