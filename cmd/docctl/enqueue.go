package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docchat-backend/internal/extraction"
	"docchat-backend/internal/queue"
)

// newQueueClient is swapped in tests.
var newQueueClient = func(ctx context.Context, queueURL, region string) (queue.Client, error) {
	return queue.NewSQSClient(ctx, queueURL, region)
}

func newEnqueueCmd() *cobra.Command {
	var documentID, filePath, userID, queueURL string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Send an extraction job for an existing document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if strings.TrimSpace(queueURL) == "" {
				queueURL = cfg.ExtractionQueueURL
			}
			if strings.TrimSpace(queueURL) == "" {
				return fmt.Errorf("--queue-url or EXTRACTION_QUEUE_URL is required")
			}
			if err := (queue.Message{DocumentID: documentID, FilePath: filePath, UserID: userID}).Validate(); err != nil {
				return err
			}

			client, err := newQueueClient(cmd.Context(), queueURL, cfg.AWSRegion)
			if err != nil {
				return err
			}
			trigger := &extraction.QueueTrigger{Client: client}
			req := extraction.Request{DocumentID: documentID, FilePath: filePath, UserID: userID}
			if err := trigger.Trigger(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued document %s\n", documentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&documentID, "document-id", "", "document to extract")
	cmd.Flags().StringVar(&filePath, "path", "", "storage key of the document")
	cmd.Flags().StringVar(&userID, "user", "", "owner of the document")
	cmd.Flags().StringVar(&queueURL, "queue-url", "", "queue URL (defaults to EXTRACTION_QUEUE_URL)")
	return cmd
}
