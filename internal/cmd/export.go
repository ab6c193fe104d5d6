package cmd

import (
	"context"
	"fmt"

	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/mbtilesexport"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a container table to a standalone .mbtiles file",
	Long:  `Export converts one already-generated table of the container into a standard MBTiles database for consumers that don't understand the GeoPackage tile-matrix layout.`,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("table", "tiles", "Tile table name within the container")
	exportCmd.Flags().StringP("output", "o", "", "Output .mbtiles file path (required)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"export.table", "table"},
		{"export.output", "output"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, exportCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	table := viper.GetString("export.table")
	output := viper.GetString("export.output")
	if output == "" {
		return fmt.Errorf("--output is required")
	}

	containerPath := viper.GetString("container")
	container, err := geopackage.Open(containerPath)
	if err != nil {
		return fmt.Errorf("failed to open container: %w", err)
	}
	defer container.Close()

	return exportTableToMBTiles(context.Background(), container, table, output)
}

func exportTableToMBTiles(ctx context.Context, container *geopackage.Container, table, output string) error {
	if err := mbtilesexport.Export(ctx, container, table, output); err != nil {
		return fmt.Errorf("failed to export mbtiles: %w", err)
	}
	return nil
}
