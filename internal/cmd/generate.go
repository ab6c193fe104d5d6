package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/orchestrator"
	"github.com/tilepyramid/retiler/internal/progress"
	"github.com/tilepyramid/retiler/internal/retile"
	"github.com/tilepyramid/retiler/internal/tilesource"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate (or merge) a tile pyramid into the container",
	Long: `Generate materializes raster tiles into a table of the GeoPackage-style
container for the given bounding box and inclusive zoom range. Running it
again against an existing table with a larger bounding box relocates
already-stored tiles instead of starting over.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("table", "tiles", "Tile table name within the container")
	generateCmd.Flags().String("bbox", "", "Bounding box: minLon,minLat,maxLon,maxLat (required)")
	generateCmd.Flags().Int("zoom-min", 0, "Minimum zoom level (inclusive)")
	generateCmd.Flags().Int("zoom-max", 0, "Maximum zoom level (inclusive)")
	generateCmd.Flags().Bool("google-tiles", false, "Use the global 2^z x 2^z addressing scheme instead of a locally-fitted grid")
	generateCmd.Flags().String("compress-format", "", "Re-encode tiles to this format before storing (empty stores bytes verbatim)")
	generateCmd.Flags().Float64("compress-quality", 0.85, "Re-encode quality in [0.0, 1.0], used only when --compress-format is set")
	generateCmd.Flags().String("url-template", "", "URL template for the http tile source, e.g. https://example.com/{z}/{x}/{y}.png")
	generateCmd.Flags().String("render-backend", "mapnik", "Layer renderer for --source=render: \"mapnik\" (requires libmapnik) or \"vector\" (pure Go, no cgo)")
	generateCmd.Flags().Bool("progress", true, "Show a progress bar during generation")
	generateCmd.Flags().Bool("cleanup-on-cancel", true, "Drop the table if generation is cancelled before it finishes")
	generateCmd.Flags().String("export-mbtiles", "", "Also export the finished table to this .mbtiles path")
	generateCmd.Flags().Int64("seed", 1337, "Deterministic seed for the render tile source's noise/texture alignment")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.table", "table"},
		{"generate.bbox", "bbox"},
		{"generate.zoom_min", "zoom-min"},
		{"generate.zoom_max", "zoom-max"},
		{"generate.google_tiles", "google-tiles"},
		{"generate.compress_format", "compress-format"},
		{"generate.compress_quality", "compress-quality"},
		{"generate.url_template", "url-template"},
		{"generate.render_backend", "render-backend"},
		{"generate.progress", "progress"},
		{"generate.cleanup_on_cancel", "cleanup-on-cancel"},
		{"generate.export_mbtiles", "export-mbtiles"},
		{"generate.seed", "seed"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bboxStr := viper.GetString("generate.bbox")
	if bboxStr == "" {
		return fmt.Errorf("--bbox is required")
	}
	bboxVals, err := parseBBox(bboxStr)
	if err != nil {
		return fmt.Errorf("invalid bbox: %w", err)
	}
	bbox := coordmath.BoundingBox{MinLon: bboxVals[0], MinLat: bboxVals[1], MaxLon: bboxVals[2], MaxLat: bboxVals[3]}

	table := viper.GetString("generate.table")
	zoomMin := viper.GetInt("generate.zoom_min")
	zoomMax := viper.GetInt("generate.zoom_max")
	if zoomMin > zoomMax {
		return fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", zoomMin, zoomMax)
	}
	googleTiles := viper.GetBool("generate.google_tiles")
	compressFormat := viper.GetString("generate.compress_format")
	compressQuality := viper.GetFloat64("generate.compress_quality")
	showProgress := viper.GetBool("generate.progress")
	cleanupOnCancel := viper.GetBool("generate.cleanup_on_cancel")
	exportMBTilesPath := viper.GetString("generate.export_mbtiles")
	containerPath := viper.GetString("container")

	source, err := buildTileSource()
	if err != nil {
		return err
	}

	container, err := geopackage.Open(containerPath)
	if err != nil {
		return fmt.Errorf("failed to open container: %w", err)
	}
	defer container.Close()

	engine := retile.New(container, logger)
	o := orchestrator.New(engine, table)

	if err := o.SetTileBoundingBox(bbox); err != nil {
		return err
	}
	if err := o.SetZoomRange(zoomMin, zoomMax); err != nil {
		return err
	}
	if err := o.SetGoogleTiles(googleTiles); err != nil {
		return err
	}
	if err := o.SetCompressFormat(compressFormat); err != nil {
		return err
	}
	if err := o.SetCompressQuality(compressQuality); err != nil {
		return err
	}
	if err := o.SetSource(source); err != nil {
		return err
	}

	sink := progress.NewConsole(showProgress, cleanupOnCancel)
	cancellable := progress.NewCancellable(sink)
	if err := o.SetProgress(cancellable); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt signal, cancelling...")
		cancellable.Cancel()
		cancel()
	}()

	logger.Info("starting tile pyramid generation",
		"table", table,
		"bbox", bboxStr,
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"google_tiles", googleTiles,
		"container", containerPath,
		"planned_tiles", o.TileCount(),
	)

	count, err := o.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	logger.Info("generation complete", "table", table, "tiles_stored", count)

	if exportMBTilesPath != "" {
		if err := exportTableToMBTiles(ctx, container, table, exportMBTilesPath); err != nil {
			return err
		}
		logger.Info("exported to mbtiles", "path", exportMBTilesPath)
	}

	return nil
}

func buildTileSource() (tilesource.Source, error) {
	sourceName := viper.GetString("source")
	switch sourceName {
	case "http":
		tmpl := viper.GetString("generate.url_template")
		if tmpl == "" {
			return nil, fmt.Errorf("--url-template is required when --source=http")
		}
		return tilesource.NewHTTPSource(tmpl), nil
	case "render":
		stylesDir := filepath.Join("assets", "styles")
		texturesDir := filepath.Join("assets", "textures")
		endpoint := viper.GetString("overpass.endpoint")
		if endpoint == "" {
			endpoint = "https://overpass-api.de/api/interpreter"
		}
		backend := viper.GetString("generate.render_backend")
		return tilesource.NewOverpassRenderTileSource(endpoint, stylesDir, texturesDir, 256, viper.GetInt64("generate.seed"), backend)
	default:
		return nil, fmt.Errorf("unsupported tile source: %s", sourceName)
	}
}

// parseBBox parses a bounding box string "minLon,minLat,maxLon,maxLat" into [4]float64.
func parseBBox(s string) ([4]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return [4]float64{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var bbox [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [4]float64{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		bbox[i] = val
	}

	if bbox[0] >= bbox[2] {
		return [4]float64{}, fmt.Errorf("minLon (%.4f) must be < maxLon (%.4f)", bbox[0], bbox[2])
	}
	if bbox[1] >= bbox[3] {
		return [4]float64{}, fmt.Errorf("minLat (%.4f) must be < maxLat (%.4f)", bbox[1], bbox[3])
	}

	return bbox, nil
}
