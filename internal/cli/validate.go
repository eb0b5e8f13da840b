package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"georecords/internal/adapters/codec"
	"georecords/internal/adapters/filesource"
	"georecords/internal/domain"
)

var (
	validateLevel  string
	validateFormat string
	validateList   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate [path|-]",
		Short: "Validate one document and print the normalized record(s)",
		Long: "Validate one JSON or YAML document (a file, or stdin when the path is - or omitted).\n" +
			"A top-level array is validated as a list of records. On success the normalized\n" +
			"records are printed as JSON; on failure one diagnostic per failing field goes to stderr.",
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
	cmd.Flags().StringVarP(&validateLevel, "level", "l", "province", "Record level: province, district or ward")
	cmd.Flags().StringVar(&validateFormat, "format", "", "Input format: json or yaml (default: from extension, json for stdin)")
	cmd.Flags().BoolVar(&validateList, "list", false, "Require a top-level array of records")

	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	defer flushMetrics()

	level, err := domain.ParseLevel(validateLevel)
	if err != nil {
		return err
	}
	name := filesource.Stdin
	if len(args) == 1 {
		name = args[0]
	}
	format := validateFormat
	if format != "" {
		f, err := codec.ParseFormat(format)
		if err != nil {
			return err
		}
		format = string(f)
	}

	svc, err := newValidationService()
	if err != nil {
		return err
	}
	body, err := filesource.New(cmd.InOrStdin()).Read(cmd.Context(), name)
	if err != nil {
		return err
	}

	rep, err := svc.ValidateDocument(cmd.Context(), domain.Document{Name: name, Format: format, Body: body}, level, validateList)
	if err != nil {
		return err
	}
	if rep.Outcome == domain.OutcomeInvalid {
		for _, f := range rep.Mismatch.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", name, f)
		}
		return ErrInvalid
	}

	if rep.List {
		return writeJSON(cmd.OutOrStdout(), rep.Records)
	}
	return writeJSON(cmd.OutOrStdout(), rep.Records[0])
}
