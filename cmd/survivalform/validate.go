package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-survivalform"
	"github.com/goliatone/go-survivalform/pkg/contract"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/submit"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a passenger record without contacting the service",
		Long: `validate decodes a JSON or YAML record, runs the same checks the form
applies before submitting and prints the record with any problems found.
The command exits non-zero when the record cannot be submitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, args[0])
		},
	}
}

func (a *app) runValidate(cmd *cobra.Command, path string) error {
	ct, err := contract.Default()
	if err != nil {
		return err
	}
	rec, err := readRecord(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	store := passenger.NewStore()
	if err := store.Apply(rec); err != nil {
		return fmt.Errorf("apply record: %w", err)
	}

	renderer, err := reportRenderer(a.cfg.Output)
	if err != nil {
		return err
	}

	in := store.Snapshot()
	errs := survivalform.Validate(in)
	if err := writeReport(cmd, renderer, ct.Form(), in, submit.View{Errors: errs}); err != nil {
		return err
	}
	if len(errs) > 0 {
		a.logger.Debug("record rejected", zap.String("path", path), zap.Int("fields", len(errs)))
		return fmt.Errorf("%w: %d field(s) need attention", errInvalidRecord, len(errs))
	}
	return nil
}

func newContractCmd() *cobra.Command {
	var showForm bool

	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Print the prediction service contract",
		Long: `contract prints the embedded OpenAPI document describing the /Prediction
request and response. With --form it prints the form model generated from it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !showForm {
				_, err := out.Write(contract.Document())
				return err
			}
			ct, err := contract.Default()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ct.Form())
		},
	}
	cmd.Flags().BoolVar(&showForm, "form", false, "print the generated form model as JSON")
	return cmd
}
