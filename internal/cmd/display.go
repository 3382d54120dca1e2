package cmd

import (
	"fmt"

	"github.com/gitjrnl/gitjrnl/internal/config"
	"github.com/gitjrnl/gitjrnl/internal/crawler"
	"github.com/gitjrnl/gitjrnl/internal/github"
	"github.com/gitjrnl/gitjrnl/internal/index"
)

// previewLength is how much document content a query result shows.
const previewLength = 120

// displayDocument prints a document with its path header.
//
//nolint:forbidigo // CLI user output function
func displayDocument(path, content string) {
	fmt.Printf("-- %s --\n%s\n", path, content)
}

// displayEntries prints a directory listing or search result.
//
//nolint:forbidigo // CLI user output function
func displayEntries(entries []github.Entry) {
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return
	}
	for _, entry := range entries {
		marker := " "
		if entry.IsDir() {
			marker = "d"
		}
		fmt.Printf("%s %s\n", marker, entry.Path)
	}
}

// displayRebuildResult prints the summary of an index rebuild.
//
//nolint:forbidigo // CLI user output function
func displayRebuildResult(result *crawler.Result) {
	fmt.Printf("Indexed %d documents\n", result.Indexed)
	if len(result.Errors) > 0 {
		fmt.Printf("%d errors:\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}
}

// displayQueryResults prints local index search hits with a short preview.
//
//nolint:forbidigo // CLI user output function
func displayQueryResults(results []index.Entry) {
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, result := range results {
		preview := result.Content
		if len(preview) > previewLength {
			preview = preview[:previewLength] + "..."
		}
		fmt.Printf("%s\n    %s\n", result.Path, preview)
	}
}

// displaySaveConflict prints the remote state after a rejected save.
//
//nolint:forbidigo // CLI user output function
func displaySaveConflict(path, remoteContent string) {
	fmt.Printf("Conflict: %s was edited elsewhere since it was read.\n", path)
	fmt.Println("Current remote content:")
	fmt.Println(remoteContent)
	fmt.Println()
	fmt.Println("Re-run with --keep-mine to overwrite the remote edit, or merge by hand and save again.")
}

// displayAppendConflict prints guidance after a rejected append.
//
//nolint:forbidigo // CLI user output function
func displayAppendConflict(path string) {
	fmt.Printf("Conflict: %s was edited elsewhere while appending. Retry the append.\n", path)
}

// displaySettings prints the current settings with the token redacted.
//
//nolint:forbidigo // CLI user output function
func displaySettings(settings *config.Settings) {
	token := "(not set)"
	if settings.Token != "" {
		token = "(set)"
	}
	fmt.Printf("Token:         %s\n", token)
	fmt.Printf("Repository:    %s\n", orUnset(settings.Repository))
	fmt.Printf("Path template: %s\n", orUnset(settings.PathTemplate))
	if settings.IndexPath != "" {
		fmt.Printf("Index path:    %s\n", settings.IndexPath)
	}
	if settings.IsConfigured() {
		fmt.Println("\nConfigured.")
	} else {
		fmt.Println("\nNot configured. Run 'gitjrnl config set'.")
	}
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
