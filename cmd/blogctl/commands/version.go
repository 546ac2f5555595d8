package commands

import (
	"io"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit"  yaml:"commit"`
	Built   string `json:"built"   yaml:"built"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the blog CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			renderer := &OutputRenderer[versionInfo]{
				RenderTable: func(w io.Writer, info versionInfo) error {
					table := newTable(w, "Property", "Value")
					_ = table.Append([]string{"Version", info.Version})
					_ = table.Append([]string{"Commit", info.Commit})
					_ = table.Append([]string{"Built", info.Built})

					return renderTable(table)
				},
			}

			return renderer.Render(cmd.OutOrStdout(), info, outputFormat())
		},
	}
}
