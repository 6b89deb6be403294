package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/adapters/driving/watcher"
)

var watchScan bool

var watchCmd = &cobra.Command{
	Use:   "watch [notebook-id] [directory]",
	Short: "Upload files dropped into a directory",
	Long: `Watches a directory and uploads every new or rewritten file with a
supported extension into the notebook. Runs until interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "also upload files already in the directory")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}
	if err := a.resume(cmd.Context()); err != nil {
		return err
	}

	w := watcher.New(args[1], args[0], a.Documents, watcher.Options{
		MaxFileSize: a.MaxFileSize,
		InitialScan: watchScan,
	})
	defer w.Close()

	events, err := w.Watch(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for notebook %s\n", bold(args[1]), args[0])
	for ev := range events {
		if ev.Err != nil {
			cmd.Printf("  %s %s: %v\n", red("failed"), ev.Path, ev.Err)
			continue
		}
		cmd.Printf("  %s %s -> %s\n", green("uploaded"), ev.Document.Filename, ev.Document.ID)
	}
	return nil
}
