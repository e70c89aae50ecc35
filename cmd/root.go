package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/raster2vector/internal/convert"
)

// Version is reported by the health endpoint and --version
const Version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "raster2vector [flags] [inputFile]",
	Short:   "Convert a raster image to SVG, one polygon per pixel",
	Version: Version,
	Long: `raster2vector converts a raster image into an SVG document in which every
pixel becomes one filled square. Pixel boundaries are kept exactly, which makes
the output suitable for importing sprites and pixel art into vector editors.

Pixels that are not fully opaque are written with no fill. Every square is
outlined with a black stroke of the configured width.

Supported input formats: PNG, JPEG, GIF, BMP, TIFF, WebP.

Examples:
  # Convert sprite.png to sprite.svg with the default scale of 10
  raster2vector sprite.png

  # Explicit output name, one output unit per pixel, no visible outline
  raster2vector -i sprite.png -o out/sprite.svg --scale 1 --strokeWidth 0

  # Large image, build polygons on 8 goroutines
  raster2vector --workers 8 tileset.bmp

  # Start HTTP server
  raster2vector serve --port 8080`,
	Args: cobra.ArbitraryArgs,
	RunE: runConvert,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.raster2vector.yaml)")

	// Conversion options
	rootCmd.Flags().StringP("inputFile", "i", "", `name of input file, a raster image (the "-i" is optional)`)
	rootCmd.Flags().StringP("outputFile", "o", "", "name of output file, an SVG file (default is input file changed to .svg)")
	rootCmd.Flags().Float64P("scale", "s", convert.DefaultScale, "output units per pixel, must be greater than 0")
	rootCmd.Flags().Float64P("strokeWidth", "w", convert.DefaultStrokeWidth, "width of strokes to use for all paths, in pixels")
	rootCmd.Flags().Int("workers", 1, "number of goroutines building polygons")

	// Bind flags to viper for root command
	viper.BindPFlag("inputFile", rootCmd.Flags().Lookup("inputFile"))
	viper.BindPFlag("outputFile", rootCmd.Flags().Lookup("outputFile"))
	viper.BindPFlag("scale", rootCmd.Flags().Lookup("scale"))
	viper.BindPFlag("strokeWidth", rootCmd.Flags().Lookup("strokeWidth"))
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".raster2vector" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".raster2vector")
	}

	// RASTER2VECTOR_SCALE, RASTER2VECTOR_SERVER_PORT, ...
	viper.SetEnvPrefix("raster2vector")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// optionsFromConfig builds conversion options from v and positional arguments.
// The input file may be given once, either with --inputFile or positionally.
func optionsFromConfig(v *viper.Viper, args []string) (convert.Options, error) {
	opts := convert.Options{
		InputFile:   v.GetString("inputFile"),
		OutputFile:  v.GetString("outputFile"),
		Scale:       v.GetFloat64("scale"),
		StrokeWidth: v.GetFloat64("strokeWidth"),
		Workers:     v.GetInt("workers"),
	}

	switch {
	case opts.InputFile == "" && len(args) == 1:
		opts.InputFile = args[0]
	case opts.InputFile == "" && len(args) == 0:
		return opts, &convert.ConfigError{Field: "inputFile", Message: "an input file is required"}
	case len(args) != 0:
		return opts, &convert.ConfigError{Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(args, " "))}
	}

	return opts.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromConfig(viper.GetViper(), args)
	if err != nil {
		var ce *convert.ConfigError
		if errors.As(err, &ce) {
			// Show help followed by the specific problem
			cmd.Help()
			cmd.SilenceUsage = true
		}
		return err
	}

	// Runtime failures are not usage errors
	cmd.SilenceUsage = true

	return convert.NewConverter(opts, cmd.OutOrStdout()).Run()
}
