// Command feed publishes a JSON-lines file of item envelopes to the item
// queue, one message per line.  It is how crawl output saved to disk is
// replayed into the reconciler.
//
//	feed -file items.jsonl [-url amqp://...] [-queue jcss.items]
//
// Lines that are not valid envelopes are reported and skipped.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-reconciler/internal/config"
	"github.com/iliyamo/cinema-reconciler/internal/item"
	"github.com/iliyamo/cinema-reconciler/internal/logging"
	queue_publisher "github.com/iliyamo/cinema-reconciler/internal/service"
)

func main() {
	_ = godotenv.Load()
	file := flag.String("file", "", "JSON-lines file of {\"type\",\"data\"} envelopes (- for stdin)")
	url := flag.String("url", firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")), "broker URL")
	queue := flag.String("queue", firstNonEmpty(os.Getenv("ITEM_QUEUE"), config.DefaultItemQueue), "item queue")
	flag.Parse()

	logging.Init(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: firstNonEmpty(os.Getenv("LOG_FORMAT"), "console")})
	if *file == "" || *url == "" {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub, err := queue_publisher.NewPublisher(*url, *queue)
	if err != nil {
		logging.Fatal().Err(err).Msg("connect broker")
	}
	defer pub.Close()

	sent, skipped, err := feed(ctx, in, pub)
	ev := logging.Info()
	if err != nil {
		ev = logging.Error().Err(err)
	}
	ev.Int("sent", sent).Int("skipped", skipped).Str("queue", *queue).Msg("feed finished")
	if err != nil {
		os.Exit(1)
	}
}

type rawPublisher interface {
	PublishRaw(ctx context.Context, body []byte) error
}

// feed publishes every valid envelope line of r.  Blank lines are ignored;
// invalid ones are logged and counted as skipped.  A publish failure stops
// the run.
func feed(ctx context.Context, r io.Reader, pub rawPublisher) (sent, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		if _, perr := item.ParseEnvelope(raw); perr != nil {
			logging.Warn().Err(perr).Int("line", line).Msg("skipping invalid envelope")
			skipped++
			continue
		}
		lineCtx := logging.ContextWithNewCorrelationID(ctx)
		body := append([]byte(nil), raw...)
		if err := pub.PublishRaw(lineCtx, body); err != nil {
			return sent, skipped, err
		}
		sent++
		if ctx.Err() != nil {
			return sent, skipped, ctx.Err()
		}
	}
	return sent, skipped, sc.Err()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
