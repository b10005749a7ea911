package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mmcdole/gofeed"
)

// feedcheck parses a generated RSS file and lists its items.
func main() {
	var (
		path = flag.String("file", "rss.xml", "RSS file to check")
		max  = flag.Int("max", 10, "Max items to print (<=0 means all)")
	)
	flag.Parse()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open feed: %v", err)
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		log.Fatalf("Feed is not valid: %v", err)
	}

	fmt.Printf("%s (%s)\n", feed.Title, feed.FeedType+" "+feed.FeedVersion)
	fmt.Printf("Link: %s\nItems: %d\n\n", feed.Link, len(feed.Items))

	shown := len(feed.Items)
	if *max > 0 && *max < shown {
		shown = *max
	}

	for i, item := range feed.Items[:shown] {
		fmt.Printf("Item %d:\n", i+1)
		fmt.Printf("  Title: %s\n", item.Title)
		fmt.Printf("  Link: %s\n", item.Link)
		if item.PublishedParsed != nil {
			fmt.Printf("  Published: %s\n", item.PublishedParsed.UTC().Format("2006-01-02 15:04"))
		}
		if media := item.Extensions["media"]["content"]; len(media) > 0 {
			fmt.Printf("  Image: %s\n", media[0].Attrs["url"])
		}
		fmt.Println()
	}
}
