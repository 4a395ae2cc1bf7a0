package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-survivalform"
	"github.com/goliatone/go-survivalform/pkg/contract"
	"github.com/goliatone/go-survivalform/pkg/model"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/predict"
	"github.com/goliatone/go-survivalform/pkg/render"
	"github.com/goliatone/go-survivalform/pkg/submit"
	"github.com/goliatone/go-survivalform/pkg/tui"
)

var errInvalidRecord = errors.New("record is invalid")

// fieldFlags binds one command-line flag to each scalar passenger field.
var fieldFlags = []struct {
	name  string
	field passenger.Field
	usage string
}{
	{"class", passenger.FieldClass, "passenger class: 1, 2 or 3"},
	{"sex", passenger.FieldSex, "gender: male or female"},
	{"age", passenger.FieldAge, "age in years"},
	{"fare", passenger.FieldFare, "ticket fare"},
	{"embarked", passenger.FieldEmbarked, "embarkation port: C, Q or S"},
	{"family-size", passenger.FieldFamilySize, "family members aboard, including the passenger"},
	{"title", passenger.FieldTitle, "honorific, e.g. Mr or Miss"},
	{"ticket-prefix", passenger.FieldTicketPrefix, "ticket prefix, e.g. PC"},
	{"cabin", passenger.FieldCabinLetter, "cabin deck letter: A-G or T"},
}

type predictOptions struct {
	record      string
	interactive bool
	alone       bool
	values      map[string]*string
}

func newPredictCmd(a *app) *cobra.Command {
	opts := &predictOptions{values: make(map[string]*string, len(fieldFlags))}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Collect a passenger record and request a survival prediction",
		Long: `predict prompts for every passenger attribute, validates the answers and
submits the record to the prediction service.

With --record or any field flag the record is submitted without prompting.
Field flags override values read from the record file. Add --interactive to
prompt only for what is still missing or invalid.`,
		Example: `  survivalform predict
  survivalform predict --record passenger.yaml --output json
  survivalform predict --class 1 --sex female --age 29 --fare 100.5 \
    --embarked S --family-size 1 --title Miss --ticket-prefix PC --cabin C`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPredict(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.record, "record", "r", "", `JSON or YAML record file ("-" reads stdin)`)
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for missing or invalid fields")
	flags.BoolVar(&opts.alone, "alone", false, "traveling alone (only editable when family size is unset)")
	for _, f := range fieldFlags {
		opts.values[f.name] = flags.String(f.name, "", f.usage)
	}
	return cmd
}

func (a *app) runPredict(cmd *cobra.Command, opts *predictOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ct, err := contract.Default()
	if err != nil {
		return err
	}
	form := ct.Form()

	store := passenger.NewStore()
	provided, err := a.loadRecord(cmd, store, opts)
	if err != nil {
		return err
	}

	renderer, err := reportRenderer(a.cfg.Output)
	if err != nil {
		return err
	}

	client, err := predict.New(a.cfg.BaseURL,
		predict.WithContract(ct),
		predict.WithLogger(a.logger.Named("predict")),
		predict.WithTimeout(a.cfg.RequestTimeout),
	)
	if err != nil {
		return err
	}
	controller := submit.New(store, client,
		submit.WithLatencyPolicy(submit.LatencyPolicy{
			Threshold: a.cfg.DelayThreshold,
			Floor:     a.cfg.FloorDelay,
		}),
		submit.WithLogger(a.logger.Named("submit")),
	)
	a.logger.Debug("prediction endpoint", zap.String("url", client.Endpoint()))

	if !provided || opts.interactive {
		session, err := tui.NewSession(form, store, controller,
			tui.WithPromptDriver(tui.NewSurveyDriver(out)),
			tui.WithRenderer(renderer),
			tui.WithLogger(a.logger.Named("tui")),
			tui.WithPrefilled(provided),
		)
		if err != nil {
			return err
		}
		return session.Run(ctx)
	}

	if errs := survivalform.Validate(store.Snapshot()); len(errs) > 0 {
		if err := writeReport(cmd, renderer, form, store.Snapshot(), submit.View{Errors: errs}); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d field(s) need attention", errInvalidRecord, len(errs))
	}

	_, submitErr := controller.Submit(ctx)
	if err := writeReport(cmd, renderer, form, store.Snapshot(), controller.View()); err != nil {
		return err
	}
	return submitErr
}

// loadRecord fills store from the record file and the field flags. It
// reports whether any value was supplied that way.
func (a *app) loadRecord(cmd *cobra.Command, store *passenger.Store, opts *predictOptions) (bool, error) {
	provided := false

	if opts.record != "" {
		rec, err := readRecord(cmd.InOrStdin(), opts.record)
		if err != nil {
			return false, err
		}
		if err := store.Apply(rec); err != nil {
			return false, fmt.Errorf("apply record: %w", err)
		}
		provided = true
	}

	flags := cmd.Flags()
	for _, f := range fieldFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if err := store.SetField(f.field, *opts.values[f.name]); err != nil {
			return false, fmt.Errorf("--%s: %w", f.name, err)
		}
		provided = true
	}
	if flags.Changed("alone") {
		if err := store.SetAlone(opts.alone); err != nil {
			if !errors.Is(err, passenger.ErrAloneLocked) {
				return false, fmt.Errorf("--alone: %w", err)
			}
			a.logger.Warn("--alone ignored, the value is derived from family size")
		}
		provided = true
	}
	return provided, nil
}

func readRecord(stdin io.Reader, path string) (passenger.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return passenger.Record{}, fmt.Errorf("read record: %w", err)
	}
	rec, err := passenger.DecodeRecord(data)
	if err != nil {
		return passenger.Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func reportRenderer(format string) (render.Renderer, error) {
	registry, err := render.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	return registry.Get(format)
}

func writeReport(cmd *cobra.Command, renderer render.Renderer, form model.FormModel, in passenger.Input, view submit.View) error {
	payload, err := renderer.Render(cmd.Context(), render.NewReport(form, in, view))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(payload)
	return err
}
