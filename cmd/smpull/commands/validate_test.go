package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Summary(t *testing.T) {
	store := seededStore()
	useFakeStore(t, store)
	cfg := newTestConfig(t, testConfig)

	var out bytes.Buffer
	cmd := NewValidateCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "Project:       my-project")
	assert.Contains(t, output, "Secret store:  gcp")
	assert.Contains(t, output, "Output:        PropertyMap")
	assert.Contains(t, output, "Mappings:      2 flat, 1 complex")
	assert.Contains(t, output, "  - service-account")
	assert.Zero(t, store.Connects)
}

func TestValidateCommand_TrustStoreFile(t *testing.T) {
	useFakeStore(t, seededStore())
	cfg := newTestConfig(t, testConfig+"outputMethod: TrustStore\nstoreType: jks\n")

	var out bytes.Buffer
	cmd := NewValidateCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Trust store:   truststore.jks")
}

func TestValidateCommand_Quiet(t *testing.T) {
	useFakeStore(t, seededStore())
	cfg := newTestConfig(t, testConfig)

	var out bytes.Buffer
	cmd := NewValidateCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--quiet"})
	require.NoError(t, cmd.Execute())

	assert.Empty(t, out.String())
}

func TestValidateCommand_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing project", "mappings: []\n"},
		{"unknown field", "projectId: p\nmappings: []\nbogus: 1\n"},
		{"empty property", "projectId: p\nmappings:\n  - key: a\n    property: \"\"\n"},
		{"bad store type", "projectId: p\nmappings: []\nstore:\n  type: vault\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t, tt.content)

			cmd := NewValidateCommand(cfg)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs([]string{})
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Failed to load configuration")
		})
	}
}
