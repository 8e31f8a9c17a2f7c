package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/installer"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check installed modules against the lockfile",
		Long:  "Recomputes the checksum of every installed module and compares it with mod.lock. Nothing is fetched.",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}

	addGlobalFlag(cmd, "verify the global modules")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	sc, err := loadScope(cmd)
	if err != nil {
		return err
	}

	report, err := newInstaller(nil).Verify(sc.target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, e := range report.Entries {
		switch e.Status {
		case installer.StatusOK:
			fmt.Fprintf(out, "%s %s\n", okStyle.Render(iconCheck), e.Name)
		case installer.StatusModified:
			failed++
			fmt.Fprintf(out, "%s %s %s\n", badStyle.Render(iconCross), e.Name, dimStyle.Render("modified"))
		case installer.StatusMissing:
			failed++
			fmt.Fprintf(out, "%s %s %s\n", warnStyle.Render(iconWarning), e.Name, dimStyle.Render("missing"))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d module(s) failed verification; run install to restore them", failed, len(report.Entries))
	}
	fmt.Fprintf(out, "All %d module(s) match the lockfile\n", len(report.Entries))
	return nil
}
