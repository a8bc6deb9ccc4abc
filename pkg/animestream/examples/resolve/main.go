// Example: resolve every stream of an episode
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alvarorichard/animestream/pkg/animestream"
)

func main() {
	client := animestream.NewClient(
		animestream.WithExtractorURL("http://127.0.0.1:8787/api/extract"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := client.Resolve(ctx, animestream.EpisodeRequest{
		EpisodeID:     "one-piece-100?ep=2142",
		AnimeName:     "One Piece",
		EpisodeNumber: 1,
		Server:        "hd-1",
		Category:      "sub",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s (%s)\n", result.EpisodeID, result.AnimeSlug)
	for i, s := range result.Streams {
		fmt.Printf("%2d. %-40s %-10s %s\n", i+1, s.Label, s.Language, s.URL)
	}
	for _, sub := range result.Subtitles {
		fmt.Printf("subtitle: %s %s\n", sub.Lang, sub.URL)
	}
}
