// Command booksummary totals booked and available seats over a JSON-lines
// file of item envelopes, the same files cmd/feed replays.  Only
// showing_booking envelopes count; each contributes its booked seats and the
// showing's total seats.
//
//	booksummary -file items.jsonl [-cinema NAME]
//
// It prints "<cinema or total>: booked/total".
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/iliyamo/cinema-reconciler/internal/item"
	"github.com/iliyamo/cinema-reconciler/internal/logging"
	"github.com/iliyamo/cinema-reconciler/internal/normalize"
)

func main() {
	file := flag.String("file", "", "JSON-lines file of {\"type\",\"data\"} envelopes (- for stdin)")
	cinema := flag.String("cinema", "", "only count bookings of this cinema")
	flag.Parse()

	logging.Init(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: "console"})
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	in := os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			logging.Fatal().Err(err).Str("file", *file).Msg("open input")
		}
		defer f.Close()
		in = f
	}

	sum, err := summarize(in, *cinema)
	if err != nil {
		logging.Fatal().Err(err).Msg("read input")
	}
	title := *cinema
	if title == "" {
		title = "total"
	}
	fmt.Printf("%s: %d/%d\n", title, sum.Booked, sum.Total)
}

// summary is the booked/total seat tally.
type summary struct {
	Booked int
	Total  int
	Lines  int
}

// summarize adds up the showing_booking envelopes of r, keeping only those of
// cinema when it is non-empty.  Cinema names compare after normalization.
// Lines that do not decode are logged and skipped.
func summarize(r io.Reader, cinema string) (summary, error) {
	var sum summary
	want := normalize.Name(cinema)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		env, err := item.ParseEnvelope(raw)
		if err != nil {
			logging.Warn().Err(err).Int("line", line).Msg("skipping invalid envelope")
			continue
		}
		if env.Type != item.KindShowingBooking {
			continue
		}
		var b item.ShowingBooking
		if err := json.Unmarshal(env.Data, &b); err != nil || b.Showing == nil {
			logging.Warn().Err(err).Int("line", line).Msg("skipping invalid booking")
			continue
		}
		if want != "" && normalize.Name(b.Showing.CinemaName) != want {
			continue
		}
		sum.Booked += b.BookSeatCount
		sum.Total += b.Showing.TotalSeatCount
		sum.Lines++
	}
	return sum, sc.Err()
}
