package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			srv := server.NewServer(c.Indexer, c.Orchestrator, c.Storage, c.VectorIndex, c.Config, c.Logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-sigChan:
			}

			c.Logger.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Upload and index documents (pdf, docx, txt)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			failed := 0
			for _, path := range args {
				summary, err := ingestFile(cmd.Context(), c.Indexer, userFlag, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, indexer.UserMessage(err))
					c.Logger.Debug("ingest failed", zap.String("path", path), zap.Error(err))
					continue
				}
				if err := cli.WriteUploaded(cmd.OutOrStdout(), summary, format); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func ingestFile(ctx context.Context, idx *indexer.Indexer, userID, path string) (*models.DocumentSummary, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return idx.UploadAndIndex(ctx, models.UploadInput{
		UserID:       userID,
		OriginalName: filepath.Base(path),
		Content:      content,
	})
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from your documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("question is required")
			}
			c, err := setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			answer, err := c.Orchestrator.GenerateAnswer(cmd.Context(), userFlag, question)
			if err != nil {
				c.Logger.Debug("answer failed", zap.Error(err))
				return errors.New(rag.UserMessage(err))
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), answer, format)
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and its vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Indexer.DeleteDocumentAndIndex(cmd.Context(), args[0], userFlag); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return fmt.Errorf("document not found: %s", args[0])
				}
				return fmt.Errorf("deletion failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document deleted: %s\n", args[0])
			return nil
		},
	}
}

func newDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List your documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			docs, err := c.Storage.Find(cmd.Context(), userFlag)
			if err != nil {
				return err
			}
			summaries := make([]*models.DocumentSummary, len(docs))
			for i, d := range docs {
				summaries[i] = d.Summary()
			}
			return cli.WriteDocuments(cmd.OutOrStdout(), summaries, format)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store counts and disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			st, err := collectStatus(cmd.Context(), c)
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), st, format)
		},
	}
}

func collectStatus(ctx context.Context, c *Components) (*cli.Status, error) {
	docs, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	convs, err := c.Storage.CountConversations(ctx)
	if err != nil {
		return nil, err
	}
	usage, err := storage.DiskUsage(c.Config.Storage.DatabasePath, c.Config.Storage.UploadDir, c.Config.Storage.VectorStorePath)
	if err != nil {
		return nil, err
	}
	return &cli.Status{
		Documents:      docs,
		Conversations:  convs,
		EmbeddingModel: c.VectorIndex.ModelID(),
		LLMProvider:    c.Config.LLM.Provider,
		LLMModel:       c.Config.LLM.Model,
		DiskUsage:      usage,
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kotae version %s\n", version)
		},
	}
}
