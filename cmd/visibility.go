package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
)

func newVisibilityCommand() *cobra.Command {
	var (
		flags = &pageFlags{}
		state string
	)

	cmd := &cobra.Command{
		Use:   "visibility",
		Short: "Start tracking a page and change its visibility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := dom.Visibility(state)
			if target != dom.VisibilityHidden && target != dom.VisibilityVisible {
				return fmt.Errorf("--state must be %q or %q", dom.VisibilityHidden, dom.VisibilityVisible)
			}

			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}

			// Start from the opposite state so the change is observed.
			if target == dom.VisibilityVisible {
				s.page.SetVisibility(dom.VisibilityHidden)
			}
			s.tracker.Start()
			s.page.SetVisibility(target)

			return s.close()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&state, "state", string(dom.VisibilityHidden), "visibility to switch to: hidden or visible")

	return cmd
}
