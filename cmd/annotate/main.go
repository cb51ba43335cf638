package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	annotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/prediction"
	"github.com/menta2k/image-annotator/pkg/selection"
	"github.com/menta2k/image-annotator/pkg/types"
)

func main() {
	var in, toolName, eventsPath, configPath, categoryID string
	var overlay, predict, store, initConfig bool

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&toolName, "tool", "rectangular", "selection tool: rectangular|pen|quick|object")
	flag.StringVar(&eventsPath, "events", "-", "JSON pointer event script, - for stdin")
	flag.StringVar(&configPath, "config", config.GetConfigPath(), "configuration file")
	flag.StringVar(&categoryID, "category", "", "category id for the record (default: Unknown)")
	flag.BoolVar(&overlay, "overlay", false, "write a preview of the selection to the output directory")
	flag.BoolVar(&predict, "predict", false, "ask the prediction backend for the object (object tool)")
	flag.BoolVar(&store, "store", false, "save the record in Redis")
	flag.BoolVar(&initConfig, "init-config", false, "write the default configuration to -config and exit")
	flag.Parse()

	if initConfig {
		if err := config.Default().SaveToFile(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", configPath)
		return
	}
	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in input.jpg|URL [-tool rectangular|pen|quick|object] [-events script.json] [-overlay] [-predict] [-store]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Log.Mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, options{
		in:         in,
		tool:       toolName,
		eventsPath: eventsPath,
		category:   categoryID,
		overlay:    overlay,
		predict:    predict,
		store:      store,
	}); err != nil {
		logging.Logger.Error("annotate failed", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
}

type options struct {
	in, tool, eventsPath, category string
	overlay, predict, store        bool
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	ann, err := annotator.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	tool, err := selection.ParseTool(opts.tool)
	if err != nil {
		return err
	}
	category := types.Unknown.ID
	if opts.category != "" {
		if category, err = uuid.Parse(opts.category); err != nil {
			return fmt.Errorf("invalid category: %w", err)
		}
	}

	events, err := loadEvents(opts.eventsPath)
	if err != nil {
		return err
	}

	img, err := ann.LoadImage(ctx, opts.in)
	if err != nil {
		return err
	}
	op, err := ann.NewOperator(ctx, tool, img)
	if err != nil {
		return err
	}
	replay(op, events)
	logging.Logger.Info("events replayed",
		zap.Stringer("tool", tool), zap.Int("events", len(events)), zap.Stringer("state", op.State()))

	if obj, ok := op.(*selection.ObjectOperator); ok && opts.predict {
		if err := applyPrediction(ctx, ann, obj, img); err != nil {
			return err
		}
	}

	rec, ok := selection.Select(op, category)
	if !ok {
		return fmt.Errorf("no selection: operator is %s with an empty mask", op.State())
	}

	js, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(js))

	if opts.overlay {
		if err := writeOverlay(ann, img, rec, opts.in); err != nil {
			return err
		}
	}
	if opts.store {
		s := ann.NewStore()
		defer s.Close()
		if err := s.Ping(ctx); err != nil {
			return fmt.Errorf("redis unavailable: %w", err)
		}
		if err := s.Save(ctx, utils.ImageKey(opts.in), rec); err != nil {
			return err
		}
	}
	return nil
}

func loadEvents(path string) ([]event, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return readEvents(r)
}

func applyPrediction(ctx context.Context, ann *annotator.Annotator, obj *selection.ObjectOperator, img image.Image) error {
	box, ok := obj.BoundingBox()
	if !ok {
		return nil
	}
	predictor, err := ann.NewPredictor()
	if err != nil {
		return err
	}
	pred, err := predictor.Predict(ctx, img, box)
	if errors.Is(err, prediction.ErrNoObject) {
		logging.Logger.Warn("no object predicted, keeping the rectangle", zap.String("label", pred.Result.Primary.Label))
		return nil
	}
	if err != nil {
		return err
	}
	obj.SetPrediction(pred.Raster)
	logging.Logger.Info("prediction applied",
		zap.String("label", pred.Result.Primary.Label),
		zap.Strings("tags", pred.Result.Tags))
	return nil
}

func writeOverlay(ann *annotator.Annotator, img image.Image, rec selection.Record, source string) error {
	preview, err := ann.RenderPreview(img, rec)
	if err != nil {
		return err
	}
	out := ann.Config().Output
	if err := utils.EnsureDir(out.Dir); err != nil {
		return err
	}
	path := utils.GenerateOutputFilename(utils.ImageKey(source), out.Dir, "", "_"+rec.Tool, out.Format)
	if err := ann.SaveImage(preview, path); err != nil {
		return err
	}
	logging.Logger.Info("overlay written", zap.String("path", path))
	return nil
}
