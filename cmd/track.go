package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTrackCommand() *cobra.Command {
	flags := &pageFlags{}

	cmd := &cobra.Command{
		Use:   "track EVENT [KEY=VALUE...]",
		Short: "Send a manual event",
		Example: `  usage-tracker track user_signup plan=pro --url https://shop.example.com/welcome
  usage-tracker track form_submitted form=newsletter --page ./landing.html --beacon`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseProperties(args[1:])
			if err != nil {
				return err
			}

			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}

			s.tracker.Track(args[0], data)
			return s.close()
		},
	}
	flags.register(cmd)

	return cmd
}

// parseProperties turns KEY=VALUE arguments into event properties.
func parseProperties(args []string) (map[string]any, error) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("property %q: expected KEY=VALUE", arg)
		}
		data[key] = value
	}
	return data, nil
}
