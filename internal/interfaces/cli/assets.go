package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/infrastructure/storage/minio"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/internal/intelligence/regulation"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// AssetCheck describes one asset file that parsed.
type AssetCheck struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Records    int    `json:"records"`
	Skipped    int    `json:"skipped,omitempty"`
	Dimension  int    `json:"dimension,omitempty"`
	SizeBytes  int    `json:"size_bytes"`
	ObjectKey  string `json:"object_key,omitempty"`
	ObjectETag string `json:"etag,omitempty"`
}

// AssetChecks is printed by assets verify and assets upload.
type AssetChecks []AssetCheck

func (a AssetChecks) TableHeaders() []string {
	return []string{"Name", "Kind", "Records", "Skipped", "Dimension", "Size", "Object"}
}

func (a AssetChecks) TableRows() [][]string {
	rows := make([][]string, 0, len(a))
	for _, c := range a {
		dim := ""
		if c.Dimension > 0 {
			dim = strconv.Itoa(c.Dimension)
		}
		rows = append(rows, []string{
			c.Name, c.Kind, strconv.Itoa(c.Records), strconv.Itoa(c.Skipped), dim,
			strconv.Itoa(c.SizeBytes), c.ObjectKey,
		})
	}
	return rows
}

// AssetObjects is printed by assets list.
type AssetObjects []*minio.ObjectMetadata

func (a AssetObjects) TableHeaders() []string {
	return []string{"Key", "Size", "Content Type", "Last Modified"}
}

func (a AssetObjects) TableRows() [][]string {
	rows := make([][]string, 0, len(a))
	for _, o := range a {
		rows = append(rows, []string{o.Key, strconv.FormatInt(o.Size, 10), o.ContentType, o.LastModified.Format(time.RFC3339)})
	}
	return rows
}

// NewAssetsCmd manages the catalog and regulation files.
func NewAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Verify and publish the catalog and regulation files",
	}
	cmd.AddCommand(newAssetsVerifyCmd(), newAssetsUploadCmd(), newAssetsListCmd())
	return cmd
}

func newAssetsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE [FILE...]",
		Short: "Parse asset files the way the service loads them",
		Long: "Verify parses each file as a catalog (.json) or a regulation export (.csv) and\n" +
			"reports what a load would keep. Nothing is uploaded.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := make(AssetChecks, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, errors.CodeAssetRead, "read %s", path)
				}
				check, err := checkAsset(filepath.Base(path), data)
				if err != nil {
					return err
				}
				checks = append(checks, check)
			}
			return PrintResult(cmd, checks)
		},
	}
}

func newAssetsUploadCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Verify an asset file and store it in the object store",
		Long: "Upload parses the file first and refuses anything a load would reject. It needs\n" +
			"assets.source set to minio.",
		Example: `  additivelens assets upload ./data/catalog.json
  additivelens assets upload --name regulations.csv ./export/eafus-2024.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if name == "" {
				name = filepath.Base(path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, errors.CodeAssetRead, "read %s", path)
			}
			check, err := checkAsset(name, data)
			if err != nil {
				return err
			}
			return withAssetStore(cmd, func(ctx context.Context, cliCtx *CLIContext, store minio.AssetStore) error {
				res, err := store.Upload(ctx, name, data, contentTypeFor(name))
				if err != nil {
					return err
				}
				check.ObjectKey = res.ObjectKey
				check.ObjectETag = res.ETag
				cliCtx.Logger.Info("Asset uploaded",
					logging.String("name", name),
					logging.String("bucket", res.Bucket),
					logging.Int64("size", res.Size))
				return PrintResult(cmd, AssetChecks{check})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "object name (default: the file name)")
	return cmd
}

func newAssetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the asset objects in the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssetStore(cmd, func(ctx context.Context, _ *CLIContext, store minio.AssetStore) error {
				objects, err := store.List(ctx)
				if err != nil {
					return err
				}
				return PrintResult(cmd, AssetObjects(objects))
			})
		},
	}
}

// withAssetStore runs fn against the configured object store.
func withAssetStore(cmd *cobra.Command, fn func(ctx context.Context, cliCtx *CLIContext, store minio.AssetStore) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Config.Assets.Source != "minio" {
		return errors.Newf(errors.CodeInvalidParam, "assets.source is %q; the object store needs minio", cliCtx.Config.Assets.Source)
	}
	defer cliCtx.Close()

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	infra, err := cliCtx.Infrastructure(ctx)
	if err != nil {
		return err
	}
	if infra.Assets == nil {
		return errors.New(errors.CodeServiceUnavailable, "object store is not configured")
	}
	return fn(ctx, cliCtx, infra.Assets)
}

// checkAsset parses data as a catalog or a regulation export depending on
// the extension of name.
func checkAsset(name string, data []byte) (AssetCheck, error) {
	check := AssetCheck{Name: name, SizeBytes: len(data)}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		catalog, err := additive.LoadCatalog(bytes.NewReader(data))
		if err != nil {
			return check, err
		}
		stats := catalog.Stats()
		if stats.Loaded == 0 {
			return check, errors.Newf(errors.CodeCatalogLoad, "%s: catalog has no usable records", name)
		}
		check.Kind = "catalog"
		check.Records = stats.Loaded
		check.Skipped = stats.Skipped
		check.Dimension = stats.Dimension
	case ".csv":
		index, err := regulation.LoadIndex(bytes.NewReader(data))
		if err != nil {
			return check, err
		}
		check.Kind = "regulations"
		check.Records = index.Len()
	default:
		return check, errors.Newf(errors.CodeInvalidParam, "%s: expected a .json catalog or a .csv regulation export", name)
	}
	return check, nil
}

func contentTypeFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return "text/csv"
	}
	return "application/json"
}

