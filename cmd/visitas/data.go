package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-visitas/resources"
	"github.com/spf13/cobra"
)

func newResourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "resources",
		Short:   "List the resource names the data commands accept",
		GroupID: "data",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range a.catalog.Names() {
				col, err := a.catalog.Collection(name)
				if err != nil {
					return err
				}
				a.info("%-10s %s", name, subtleColor.Sprint(col.Path()))
			}
			return nil
		},
	}
}

func (a *app) collection(name string) (resources.Collection, error) {
	return a.catalog.Collection(strings.ToLower(name))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list <resource>",
		Aliases: []string{"ls"},
		Short:   "List the records of a resource",
		GroupID: "data",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			items, err := col.ListAny(a.context(cmd))
			if err != nil {
				return err
			}
			return a.json(items)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <resource> <id>",
		Short:   "Show one record",
		GroupID: "data",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			item, err := col.GetAny(a.context(cmd), id)
			if err != nil {
				return err
			}
			return a.json(item)
		},
	}
}

// readData returns the JSON given with --data, read from --file, or from the
// input when neither is set. "-" as file also means the input.
func (a *app) readData(data, file string) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case file != "" && file != "-":
		return os.ReadFile(file)
	default:
		return io.ReadAll(a.in)
	}
}

func dataFlags(cmd *cobra.Command, data, file *string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "record as JSON")
	cmd.Flags().StringVarP(file, "file", "f", "", "read the JSON record from a file, - for stdin")
}

func newCreateCmd(a *app) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:     "create <resource>",
		Short:   "Create a record from JSON",
		GroupID: "data",
		Example: `  visitas create ritos -d '{"nome":"Rito de York"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			raw, err := a.readData(data, file)
			if err != nil {
				return err
			}
			created, err := col.CreateJSON(a.context(cmd), raw)
			if err != nil {
				return err
			}
			return a.json(created)
		},
	}
	dataFlags(cmd, &data, &file)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:     "update <resource> <id>",
		Short:   "Replace a record with JSON",
		GroupID: "data",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			raw, err := a.readData(data, file)
			if err != nil {
				return err
			}
			updated, err := col.UpdateJSON(a.context(cmd), id, raw)
			if err != nil {
				return err
			}
			return a.json(updated)
		},
	}
	dataFlags(cmd, &data, &file)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <resource> <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a record",
		GroupID: "data",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := col.Delete(a.context(cmd), id); err != nil {
				return err
			}
			a.success("Deleted %s %d", args[0], id)
			return nil
		},
	}
}
