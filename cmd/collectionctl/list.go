package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/resource-collection/pkg/collection"
	"github.com/Sternrassler/resource-collection/pkg/resource"
)

func newListCommand() *cobra.Command {
	var (
		page     int
		perPage  int
		includes []string
		all      bool
		modelKey string
		params   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "list <path>",
		Short: "List a resource collection",
		Long: `List one page of the collection at <path>, or every page with --all.

The resource type is the last non-numeric path segment: "users/5/tickets"
lists tickets of user 5.`,
		Example: `  collectionctl list tickets --per-page 25
  collectionctl list users/5/tickets --include users -o json
  collectionctl list search --key results --param query=status:open --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			api, closeAPI, err := newAPIClient(ctx)
			if err != nil {
				return err
			}
			defer closeAPI()

			opts := collection.Options{
				CollectionPath: []string{args[0]},
				Page:           page,
				PerPage:        perPage,
				Include:        includes,
				Params:         make(map[string]any, len(params)),
			}
			for k, v := range params {
				opts.Params[k] = v
			}
			coll := collection.New(api, kindFor(args[0], modelKey), opts)

			var rows []resource.Resource
			if all {
				err = coll.EachPageStrict(ctx, func(r resource.Resource, _ int) error {
					rows = append(rows, r)
					return nil
				})
			} else {
				rows, err = coll.FetchStrict(ctx)
			}
			if err != nil {
				return fmt.Errorf("list %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if err := render(out, viper.GetString("output"), rows); err != nil {
				return err
			}
			if viper.GetString("output") == "table" && !all {
				count, _ := coll.CachedCount()
				fmt.Fprintf(out, "\n%d of %d, page %d\n", len(rows), count, coll.CurrentPage())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "page size")
	cmd.Flags().StringSliceVar(&includes, "include", nil, "side-load related resources")
	cmd.Flags().BoolVar(&all, "all", false, "walk every page")
	cmd.Flags().StringVar(&modelKey, "key", "", "response key holding the results (default: resource name)")
	cmd.Flags().StringToStringVar(&params, "param", nil, "extra query parameter key=value")
	cmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))

	return cmd
}

func render(w io.Writer, format string, rows []resource.Resource) error {
	records := make([]map[string]any, len(rows))
	for i, r := range rows {
		records[i] = r.Attributes()
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(records)
	case "table", "":
		columns := columnsOf(records)
		headers := make([]any, len(columns))
		for i, col := range columns {
			headers[i] = col
		}
		table := tablewriter.NewWriter(w)
		table.Header(headers...)
		for _, rec := range records {
			row := make([]string, len(columns))
			for i, col := range columns {
				row[i] = cell(rec[col])
			}
			_ = table.Append(row)
		}
		return table.Render()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// columnsOf returns the scalar attribute names, id first.
func columnsOf(records []map[string]any) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for k, v := range rec {
			switch v.(type) {
			case map[string]any, []any:
				continue
			}
			seen[k] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for k := range seen {
		if k != "id" {
			columns = append(columns, k)
		}
	}
	sort.Strings(columns)
	if seen["id"] {
		columns = append([]string{"id"}, columns...)
	}
	return columns
}

func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return resource.FormatID(val)
	default:
		return fmt.Sprint(val)
	}
}
