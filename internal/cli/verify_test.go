package cli

import (
	"testing"

	"github.com/spf13/cobra"

	"tapesum/internal/config"
	"tapesum/internal/flags"
)

func newMergeCmd(c *config.Config) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&c.Verify.MaxActive, flags.FlagMaxActive, c.Verify.MaxActive, "")
	cmd.Flags().StringVar(&c.Verify.Algorithm, flags.FlagAlgorithm, c.Verify.Algorithm, "")
	cmd.Flags().StringVar(&c.Release.Command, flags.FlagRelease, "", "")
	cmd.Flags().StringVar(&c.Release.On, flags.FlagReleaseOn, c.Release.On, "")
	return cmd
}

func TestApplyConfigFile(t *testing.T) {
	t.Run("file fills unset options", func(t *testing.T) {
		c := config.New()
		cmd := newMergeCmd(c)

		f := &config.File{MaxActive: "200GiB", Algorithm: "sha256"}
		f.Release.Command = "dsmrecall -r {}"
		f.Manifests = []string{"/archive/md5sum"}

		applyConfigFile(cmd, c, f, false)

		if c.Verify.MaxActive != "200GiB" {
			t.Fatalf("MaxActive = %q, want the file value", c.Verify.MaxActive)
		}
		if c.Verify.Algorithm != "sha256" {
			t.Fatalf("Algorithm = %q, want the file value", c.Verify.Algorithm)
		}
		if c.Release.Command != "dsmrecall -r {}" {
			t.Fatalf("Release.Command = %q, want the file value", c.Release.Command)
		}
		if len(c.Inputs.Manifests) != 1 || c.Inputs.Manifests[0] != "/archive/md5sum" {
			t.Fatalf("Manifests = %v, want the file value", c.Inputs.Manifests)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		c := config.New()
		cmd := newMergeCmd(c)
		if err := cmd.Flags().Set(flags.FlagMaxActive, "5GiB"); err != nil {
			t.Fatalf("set flag: %v", err)
		}

		f := &config.File{MaxActive: "200GiB"}
		applyConfigFile(cmd, c, f, false)

		if c.Verify.MaxActive != "5GiB" {
			t.Fatalf("MaxActive = %q, want the explicit flag value", c.Verify.MaxActive)
		}
	})

	t.Run("positional manifests win", func(t *testing.T) {
		c := config.New()
		c.Inputs.Manifests = []string{"from-args"}
		cmd := newMergeCmd(c)

		f := &config.File{Manifests: []string{"/archive/md5sum"}}
		applyConfigFile(cmd, c, f, true)

		if len(c.Inputs.Manifests) != 1 || c.Inputs.Manifests[0] != "from-args" {
			t.Fatalf("Manifests = %v, want the positional arguments kept", c.Inputs.Manifests)
		}
	})
}
