package cmd

import (
	"bufio"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/atikulmunna/quill/internal/model"
)

var (
	emitSource string
	emitLevel  string
)

var emitCmd = &cobra.Command{
	Use:   "emit [message...]",
	Short: "Publish a message through a source",
	Long: `Publish a message through a named source. Without arguments each line of
standard input is published as its own message. Broadcast lines are printed.

Examples:
  quill emit "disk usage at 90%" --level warn
  quill emit -s db -l error "connection lost"
  tail -f app.out | quill emit -s app -l info`,
	RunE: runEmit,
}

func init() {
	emitCmd.Flags().StringVarP(&emitSource, "source", "s", "", "source name (default: root)")
	emitCmd.Flags().StringVarP(&emitLevel, "level", "l", "info", "message level: debug, info, warn, error, critical")
	rootCmd.AddCommand(emitCmd)
}

func runEmit(cmd *cobra.Command, args []string) error {
	level, err := model.ParseLevel(emitLevel)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	a.renderBroadcasts(nil)

	if len(args) > 0 {
		a.dispatch.Publish(emitSource, level, strings.Join(args, " "))
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		a.dispatch.Publish(emitSource, level, scanner.Text())
	}
	return errors.Wrap(scanner.Err(), "read stdin")
}
