// jobctl is the operator surface for the task queue: enqueue ad-hoc
// tasks, register repeats, inspect queue depth and dead tasks, and
// clean up.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quangdng/fxrates-data/internal/config"
	"github.com/quangdng/fxrates-data/internal/queue"
)

const usage = `Usage: jobctl [flags] <command> [command flags]

Commands:
  enqueue       enqueue a task
  depth         print pending task count for a queue
  dead          list dead tasks on a queue
  result        print the stored result of a completed task
  remove        remove a pending task
  clear         drop all pending and dead tasks on a queue
  repeat-add    register a repeating task
  repeat-list   list registered repeats
  repeat-remove remove a repeat

Flags:
`

func main() {
	configPath := flag.String("config", "", "path to config file (for redis settings)")
	redisAddr := flag.String("redis", "", "redis address (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	client, err := connect(*configPath, *redisAddr, logger)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		fatal(fmt.Errorf("redis unreachable: %w", err))
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "enqueue":
		err = cmdEnqueue(ctx, client, args)
	case "depth":
		err = cmdDepth(ctx, client, args)
	case "dead":
		err = cmdDead(ctx, client, args)
	case "result":
		err = cmdResult(ctx, client, args)
	case "remove":
		err = cmdRemove(ctx, client, args)
	case "clear":
		err = cmdClear(ctx, client, args)
	case "repeat-add":
		err = cmdRepeatAdd(ctx, client, args)
	case "repeat-list":
		err = cmdRepeatList(ctx, client, args)
	case "repeat-remove":
		err = cmdRepeatRemove(ctx, client, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func connect(configPath, redisAddr string, logger *slog.Logger) (*queue.Client, error) {
	opts := &redis.Options{Addr: config.DefaultRedisAddr}
	maxAttempts := 0

	if configPath != "" {
		cfg, err := config.LoadWithDefaults(configPath)
		if err != nil {
			return nil, err
		}
		opts.Addr = cfg.Redis.Addr
		opts.Password = cfg.Redis.Password
		opts.DB = cfg.Redis.DB
		maxAttempts = cfg.Queue.MaxAttempts
	}
	if redisAddr != "" {
		opts.Addr = redisAddr
	}

	return queue.NewClient(redis.NewClient(opts), maxAttempts, logger), nil
}

func cmdEnqueue(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	q := fs.String("queue", "", "target queue (required)")
	typ := fs.String("type", "", "task type (required)")
	id := fs.String("id", "", "task identity (random if empty)")
	data := fs.String("data", "", "JSON payload")
	delay := fs.Duration("delay", 0, "defer execution by this long")
	every := fs.Duration("every", 0, "register as a repeat with this period instead")
	fs.Parse(args)

	if *q == "" || *typ == "" {
		return fmt.Errorf("enqueue: -queue and -type are required")
	}
	if *data != "" && !json.Valid([]byte(*data)) {
		return fmt.Errorf("enqueue: -data is not valid JSON")
	}

	if *every > 0 {
		repeatID, err := client.AddRepeat(ctx, queue.Repeat{
			ID:      *id,
			Queue:   *q,
			Type:    *typ,
			Payload: json.RawMessage(*data),
			Every:   *every,
		})
		if err != nil {
			return err
		}
		fmt.Println("repeat registered:", repeatID)
		return nil
	}

	t := queue.Task{
		ID:      *id,
		Queue:   *q,
		Type:    *typ,
		Payload: json.RawMessage(*data),
	}
	if *delay > 0 {
		t.RunAt = time.Now().UTC().Add(*delay)
	}

	if err := client.Enqueue(ctx, t); err != nil {
		return err
	}
	fmt.Println("enqueued")
	return nil
}

func cmdDepth(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("depth", flag.ExitOnError)
	q := fs.String("queue", "", "queue name (required)")
	fs.Parse(args)

	if *q == "" {
		return fmt.Errorf("depth: -queue is required")
	}

	depth, err := client.Depth(ctx, *q)
	if err != nil {
		return err
	}
	fmt.Println(depth)
	return nil
}

func cmdDead(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("dead", flag.ExitOnError)
	q := fs.String("queue", "", "queue name (required)")
	fs.Parse(args)

	if *q == "" {
		return fmt.Errorf("dead: -queue is required")
	}

	tasks, err := client.Dead(ctx, *q)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no dead tasks")
		return nil
	}
	for _, t := range tasks {
		fmt.Printf("%s  type=%s attempts=%d/%d  %s\n", t.ID, t.Type, t.Attempt, t.MaxAttempts, t.LastError)
	}
	return nil
}

func cmdResult(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("result", flag.ExitOnError)
	id := fs.String("id", "", "task identity (required)")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("result: -id is required")
	}

	res, err := client.Result(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Println(string(res))
	return nil
}

func cmdRemove(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	q := fs.String("queue", "", "queue name (required)")
	id := fs.String("id", "", "task identity (required)")
	fs.Parse(args)

	if *q == "" || *id == "" {
		return fmt.Errorf("remove: -queue and -id are required")
	}

	if err := client.Remove(ctx, *q, *id); err != nil {
		return err
	}
	fmt.Println("removed")
	return nil
}

func cmdClear(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	q := fs.String("queue", "", "queue name (required)")
	fs.Parse(args)

	if *q == "" {
		return fmt.Errorf("clear: -queue is required")
	}

	if err := client.Clear(ctx, *q); err != nil {
		return err
	}
	fmt.Println("cleared")
	return nil
}

func cmdRepeatAdd(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("repeat-add", flag.ExitOnError)
	q := fs.String("queue", "", "target queue (required)")
	typ := fs.String("type", "", "task type (required)")
	data := fs.String("data", "", "JSON payload")
	every := fs.Duration("every", 0, "repeat period (required)")
	fs.Parse(args)

	if *q == "" || *typ == "" {
		return fmt.Errorf("repeat-add: -queue and -type are required")
	}
	if *every <= 0 {
		return fmt.Errorf("repeat-add: -every must be positive")
	}
	if *data != "" && !json.Valid([]byte(*data)) {
		return fmt.Errorf("repeat-add: -data is not valid JSON")
	}

	id, err := client.AddRepeat(ctx, queue.Repeat{
		Queue:   *q,
		Type:    *typ,
		Payload: json.RawMessage(*data),
		Every:   *every,
	})
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func cmdRepeatList(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("repeat-list", flag.ExitOnError)
	fs.Parse(args)

	repeats, err := client.ListRepeats(ctx)
	if err != nil {
		return err
	}
	if len(repeats) == 0 {
		fmt.Println("no repeats registered")
		return nil
	}
	for _, r := range repeats {
		fmt.Printf("%s  queue=%s type=%s every=%s\n", r.ID, r.Queue, r.Type, r.Every)
	}
	return nil
}

func cmdRepeatRemove(ctx context.Context, client *queue.Client, args []string) error {
	fs := flag.NewFlagSet("repeat-remove", flag.ExitOnError)
	id := fs.String("id", "", "repeat identity (required)")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("repeat-remove: -id is required")
	}

	if err := client.RemoveRepeat(ctx, *id); err != nil {
		return err
	}
	fmt.Println("removed")
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "jobctl:", err)
	os.Exit(1)
}
