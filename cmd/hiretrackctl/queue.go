package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"hiretrack/internal/backoff"
	"hiretrack/internal/config"
	"hiretrack/internal/notify"
	queueredis "hiretrack/internal/queue/redis"
)

// withQueue opens the shared queue for the duration of fn.
func (c *cli) withQueue(ctx context.Context, fn func(q *queueredis.Queue) error) error {
	if c.cfg.QueueDriver != config.DriverRedis {
		return errors.New("queue commands need QUEUE_DRIVER=redis")
	}
	client, err := queueredis.Connect(ctx, c.cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(queueredis.New(client, queueredis.Config{
		MaxAttempts:  c.cfg.QueueMaxAttempts,
		Backoff:      backoff.Jittered{Initial: c.cfg.QueueBackoffInitial, Max: c.cfg.QueueBackoffMax},
		BlockTimeout: c.cfg.QueueBlockTimeout,
	}))
}

func (c *cli) sendTestEmailCmd() *cobra.Command {
	var to, subject, body string
	cmd := &cobra.Command{
		Use:   "send-test-email",
		Short: "Enqueue a notification so the worker delivers it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withQueue(cmd.Context(), func(q *queueredis.Queue) error {
				dispatcher := notify.NewDispatcher(q, notify.WithEnqueueTimeout(c.cfg.NotifyEnqueueTimeout), notify.WithDispatcherLogger(c.logger))
				if err := dispatcher.Enqueue(cmd.Context(), to, subject, body); err != nil {
					return err
				}
				return printJSON(cmd, map[string]string{"status": "queued", "recipient": to})
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&subject, "subject", "hiretrack test", "subject line")
	cmd.Flags().StringVar(&body, "body", "This is a test notification.", "message body")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue depths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withQueue(cmd.Context(), func(q *queueredis.Queue) error {
				stats, err := q.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			})
		},
	}
}

func (c *cli) requeueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue",
		Short: "Move deliveries stuck in processing back to ready (only while no worker runs)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withQueue(cmd.Context(), func(q *queueredis.Queue) error {
				moved, err := q.Requeue(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"requeued": moved})
			})
		},
	}
}

func (c *cli) deadLettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dead-letters",
		Short: "Inspect or replay notifications that exhausted their attempts",
	}
	var limit int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List dead letters, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withQueue(cmd.Context(), func(q *queueredis.Queue) error {
				letters, err := q.DeadLetters(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, letters)
			})
		},
	}
	list.Flags().Int64Var(&limit, "limit", 50, "maximum entries to show")

	replay := &cobra.Command{
		Use:   "replay",
		Short: "Put every dead letter back on the ready list with attempts reset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withQueue(cmd.Context(), func(q *queueredis.Queue) error {
				n, err := q.ReplayDeadLetters(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"replayed": n})
			})
		},
	}
	cmd.AddCommand(list, replay)
	return cmd
}
