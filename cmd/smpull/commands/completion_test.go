package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := &cobra.Command{Use: "smpull"}
			root.AddCommand(NewCompletionCommand(nil))

			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			require.NoError(t, root.Execute())

			assert.Contains(t, out.String(), "smpull")
		})
	}
}

func TestCompletionCommand_InvalidShell(t *testing.T) {
	root := &cobra.Command{Use: "smpull"}
	root.AddCommand(NewCompletionCommand(nil))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}

func TestPullFlagValueCompletions(t *testing.T) {
	tests := []struct {
		command string
		flag    string
		want    []string
	}{
		{command: "pull", flag: "output-method", want: []string{"PropertyMap", "SystemPropertyMap", "EnvFile", "RawFile", "TrustStore"}},
		{command: "pull", flag: "secret-store", want: []string{"gcp", "aws-secretsmanager", "aws-ssm", "azure-keyvault"}},
		{command: "exec", flag: "store-type", want: []string{"PKCS12", "JKS"}},
	}

	for _, tt := range tests {
		t.Run(tt.command+" --"+tt.flag, func(t *testing.T) {
			cfg := newTestConfig(t, testConfig)
			root := &cobra.Command{Use: "smpull"}
			root.AddCommand(NewPullCommand(cfg), NewExecCommand(cfg))

			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&bytes.Buffer{})
			root.SetArgs([]string{cobra.ShellCompNoDescRequestCmd, tt.command, "--" + tt.flag, ""})
			require.NoError(t, root.Execute())

			for _, value := range tt.want {
				assert.Contains(t, out.String(), value+"\n")
			}
			assert.Contains(t, out.String(), ":4\n")
		})
	}
}
