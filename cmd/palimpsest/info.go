package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/tsawler/palimpsest"
	"github.com/tsawler/palimpsest/format"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Show document format and page count",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringP("format", "f", "text", "Output format: text, json")
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	outputFormat, _ := cmd.Flags().GetString("format")

	docFormat := format.Detect(path)
	pages, err := palimpsest.Open(path).WithLogger(newLogger()).PageCount(cmd.Context())
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		out, err := sonic.MarshalIndent(map[string]any{
			"file":   path,
			"format": docFormat.String(),
			"pages":  pages,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("File:   %s\nFormat: %s\nPages:  %d\n", path, docFormat, pages)
	return nil
}
