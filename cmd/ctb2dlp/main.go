// Command ctb2dlp converts a masked-SLA slice file (CTB/CBDDLP/Photon)
// into the ZIP-packaged PNG-per-layer archive a NanoDLP controller
// consumes.
//
// Usage:
//
//	ctb2dlp convert [flags] <input.ctb>
//	ctb2dlp info <input.ctb>
//
// convert flags:
//
//	-out string         output archive path (default: input with .zip extension)
//	-profile string     target panel label (default "generic")
//	-out-width int      output panel pixel width (required)
//	-board string        RGB8BIT or GREY3BIT (default "GREY3BIT")
//	-pitch-um float      pixel pitch in micrometers (default 50)
//	-max-z-mm float      maximum printable Z height in millimeters
//	-png-level int       deflate level 0-9, or -1 for auto (default -1)
//	-recompress string   off, on, force, or adaptive (default "off")
//	-gpu string          auto, opencl, cuda, metal, or off (default "auto")
//	-gpu-only            fail instead of falling back to CPU
//	-phased              use the batched decode/scanline/compress pipeline
//	-workers int         CPU worker override (default: runtime.NumCPU())
//	-quiet               suppress the progress bar
//
// Exit codes: 0 success, 1 conversion error, 2 bad input/usage, 130 cancelled.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	voxelshift "github.com/Open-Resin-Alliance/VoxelShift-sub000"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/sliceio"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "ctb2dlp: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ctb2dlp: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  ctb2dlp convert [flags] <input.ctb>
  ctb2dlp info <input.ctb>

Run "ctb2dlp convert -h" for the full flag list.`)
}

// exitCodeFor maps a returned error to the documented exit code: 1 for a
// general conversion error, 2 for a bad/invalid input, 130 for a
// cancelled run.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, voxelshift.ErrCancelled):
		return 130
	case errors.Is(err, voxelshift.ErrInvalidFormat):
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

// --- convert ---

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	out := fs.String("out", "", "output archive path (default: input with .zip extension)")
	profileLabel := fs.String("profile", "generic", "target panel label")
	outWidth := fs.Int("out-width", 0, "output panel pixel width (required)")
	board := fs.String("board", "GREY3BIT", "RGB8BIT or GREY3BIT")
	pitchUM := fs.Float64("pitch-um", 50, "pixel pitch in micrometers")
	maxZMM := fs.Float64("max-z-mm", 0, "maximum printable Z height in millimeters")
	pngLevel := fs.Int("png-level", voxelshift.PNGLevelAuto, "deflate level 0-9, or -1 for auto")
	recompress := fs.String("recompress", "off", "off, on, force, or adaptive")
	gpuMode := fs.String("gpu", "auto", "auto, opencl, cuda, metal, or off")
	gpuOnly := fs.Bool("gpu-only", false, "fail instead of falling back to CPU")
	phased := fs.Bool("phased", false, "use the batched decode/scanline/compress pipeline")
	workers := fs.Int("workers", 0, "CPU worker override (default: runtime.NumCPU())")
	quiet := fs.Bool("quiet", false, "suppress the progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: convert: missing input file", voxelshift.ErrInvalidFormat)
	}
	inputPath := fs.Arg(0)
	if *outWidth <= 0 {
		return fmt.Errorf("%w: convert: -out-width is required", voxelshift.ErrInvalidFormat)
	}

	boardKind, err := parseBoard(*board)
	if err != nil {
		return err
	}
	recompressMode, err := parseRecompress(*recompress)
	if err != nil {
		return err
	}
	gpuModeKind, gpuBackendKind, err := parseGPU(*gpuMode)
	if err != nil {
		return err
	}
	if *gpuOnly {
		gpuModeKind = voxelshift.GPUOnly
	}

	profile := voxelshift.TargetProfile{
		Label:        *profileLabel,
		OutWidth:     *outWidth,
		Board:        boardKind,
		MaxZMM:       *maxZMM,
		PixelPitchUM: *pitchUM,
	}

	opts := voxelshift.DefaultOptions()
	opts.PNGLevel = *pngLevel
	opts.RecompressMode = recompressMode
	opts.GPUMode = gpuModeKind
	opts.GPUBackend = gpuBackendKind
	opts.UsePhased = *phased
	opts.CPUWorkers = *workers

	var bar *progressbar.ProgressBar
	var sink voxelshift.ProgressSink
	if !*quiet {
		barTotal := -1
		sink = func(u voxelshift.ProgressUpdate) {
			if bar == nil {
				bar = progressbar.NewOptions(u.Total,
					progressbar.OptionSetDescription("converting"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
				barTotal = u.Total
			} else if u.Total != barTotal {
				bar.ChangeMax(u.Total)
				barTotal = u.Total
			}
			_ = bar.Set(u.Current)
		}
	}

	cancel := voxelshift.NewCancelToken()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stop:
			cancel.Cancel()
		case <-done:
		}
	}()

	report, err := voxelshift.Convert(inputPath, profile, opts, sink, cancel)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		if *out != "" {
			os.Remove(*out)
		}
		return err
	}

	if *out != "" && *out != report.OutputPath {
		if err := os.Rename(report.OutputPath, *out); err != nil {
			return fmt.Errorf("%w: moving archive to %s: %v", voxelshift.ErrIoError, *out, err)
		}
		report.OutputPath = *out
	}

	fmt.Printf("Wrote:      %s\n", report.OutputPath)
	fmt.Printf("Layers:     %d\n", report.LayerCount)
	fmt.Printf("Size:       %d bytes\n", report.OutputBytes)
	fmt.Printf("Duration:   %s\n", report.Duration)
	return nil
}

func parseBoard(s string) (voxelshift.Board, error) {
	switch strings.ToUpper(s) {
	case "RGB8BIT":
		return voxelshift.RGB8BIT, nil
	case "GREY3BIT", "GRAY3BIT":
		return voxelshift.GREY3BIT, nil
	default:
		return 0, fmt.Errorf("%w: convert: unknown -board %q", voxelshift.ErrInvalidFormat, s)
	}
}

func parseRecompress(s string) (voxelshift.RecompressMode, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return voxelshift.RecompressOff, nil
	case "on":
		return voxelshift.RecompressOn, nil
	case "force":
		return voxelshift.RecompressForce, nil
	case "adaptive":
		return voxelshift.RecompressAdaptive, nil
	default:
		return 0, fmt.Errorf("%w: convert: unknown -recompress %q", voxelshift.ErrInvalidFormat, s)
	}
}

func parseGPU(s string) (voxelshift.GPUMode, voxelshift.GPUBackendKind, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return voxelshift.GPUAuto, voxelshift.GPUBackendAuto, nil
	case "off", "cpu":
		return voxelshift.CPUOnly, voxelshift.GPUBackendAuto, nil
	case "opencl":
		return voxelshift.GPUAuto, voxelshift.GPUBackendOpenCL, nil
	case "cuda":
		return voxelshift.GPUAuto, voxelshift.GPUBackendCUDA, nil
	case "metal":
		return voxelshift.GPUAuto, voxelshift.GPUBackendMetal, nil
	default:
		return 0, 0, fmt.Errorf("%w: convert: unknown -gpu %q", voxelshift.ErrInvalidFormat, s)
	}
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: info: missing input file", voxelshift.ErrInvalidFormat)
	}
	inputPath := args[0]

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", voxelshift.ErrIoError, inputPath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: statting %s: %v", voxelshift.ErrIoError, inputPath, err)
	}

	sf, err := sliceio.Open(f, fi.Size())
	if err != nil {
		return err
	}

	fmt.Printf("File:              %s\n", inputPath)
	fmt.Printf("Resolution:        %d x %d\n", sf.ResolutionX(), sf.ResolutionY())
	fmt.Printf("Layers:            %d\n", sf.LayerCount())
	fmt.Printf("Layer height:      %g mm\n", sf.LayerHeightMM())
	fmt.Printf("Normal exposure:   %g s\n", sf.NormalExposureS())
	fmt.Printf("Bottom exposure:   %g s\n", sf.BottomExposureS())
	fmt.Printf("Bottom layers:     %d\n", sf.BottomLayerCount())
	fmt.Printf("Lift height:       %g mm\n", sf.LiftHeightMM())
	fmt.Printf("Print height:      %g mm\n", sf.PrintHeightMM())
	fmt.Printf("Encrypted:         %v\n", sf.EncryptionKey() != 0)
	fmt.Printf("File size:         %d bytes\n", fi.Size())

	if thumbs := sf.Thumbnails(); len(thumbs) > 0 {
		fmt.Printf("Thumbnails:        %d\n", len(thumbs))
		for i, t := range thumbs {
			fmt.Printf("  [%d] %d x %d, %d bytes\n", i, t.Width, t.Height, len(t.PNG))
		}
	}

	return nil
}
