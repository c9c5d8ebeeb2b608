package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"service-map/core/config"
	"service-map/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

// sdkCmd groups commands managing the hosted SDK script.
var sdkCmd = &cobra.Command{
	Use:   "sdk",
	Short: "Manage the map SDK script in object storage",
}

var sdkPushKey string

var sdkPushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Upload an SDK script to the configured bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := sdkStorage()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		if len(data) == 0 {
			return fmt.Errorf("%s is empty", args[0])
		}

		key := sdkPushKey
		if key == "" {
			key = cfg.SDK.Locator
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket); err != nil {
			return err
		}
		info, err := client.PutObject(ctx, cfg.Storage.Bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/javascript"})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s/%s (%d bytes)\n", cfg.Storage.Bucket, key, info.Size)
		return nil
	},
}

var sdkLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List SDK scripts in the configured bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := sdkStorage()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		out := cmd.OutOrStdout()
		for obj := range client.ListObjects(ctx, cfg.Storage.Bucket, minio.ListObjectsOptions{
			Prefix:    cfg.Storage.SDKPrefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return fmt.Errorf("failed to list objects: %w", obj.Err)
			}
			marker := " "
			if obj.Key == cfg.SDK.Locator {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-40s %8d %s\n", marker, path.Clean(obj.Key), obj.Size, obj.LastModified.Format(time.RFC3339))
		}
		return nil
	},
}

func sdkStorage() (*config.Config, storage.Client, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return cfg, client, nil
}

func init() {
	sdkPushCmd.Flags().StringVar(&sdkPushKey, "key", "", "Object key (defaults to the configured SDK locator)")
	sdkCmd.AddCommand(sdkPushCmd, sdkLsCmd)
	RootCmd.AddCommand(sdkCmd)
}
