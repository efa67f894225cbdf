package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
)

var errNoSelector = errors.New("at least one --selector is required")

func newClickCommand() *cobra.Command {
	var (
		flags     = &pageFlags{}
		selectors []string
		leave     bool
	)

	cmd := &cobra.Command{
		Use:   "click",
		Short: "Start tracking a page and click elements in it",
		Long: `Starts a tracker on the page, clicks each selector in order and stops.
Clicks on elements without a marker attribute (or a marked ancestor) send nothing.`,
		Example: `  usage-tracker click --page ./pricing.html --url https://shop.example.com/pricing \
    --selector '#signup' --selector '.plan-card button' --leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(selectors) == 0 {
				return errNoSelector
			}

			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}

			s.tracker.Start()
			var clickErr error
			for _, sel := range selectors {
				if err := s.page.Click(sel); err != nil {
					clickErr = errors.Join(clickErr, err)
				}
			}
			if leave {
				s.page.SetVisibility(dom.VisibilityHidden)
			}

			return errors.Join(clickErr, s.close())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&selectors, "selector", nil, "CSS selector of the element to click (repeatable)")
	cmd.Flags().BoolVar(&leave, "leave", false, "hide the page after clicking, as when the user switches tabs")

	return cmd
}
