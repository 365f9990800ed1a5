package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		file     string
		contents string
		assert   func(t *testing.T, settings *Settings, err error)
	}{
		{
			name: "yaml keeps only uppercase keys",
			file: "groundwork.yaml",
			contents: `APP_NAME: Demo
app_internal: ignored
MaxItems: 3
GROUNDWORK_LOGGING:
  level: debug
  human_readable: true
`,
			assert: func(t *testing.T, settings *Settings, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"APP_NAME", "GROUNDWORK_LOGGING"}, settings.Keys())
				require.Equal(t, "Demo", settings.String(KeyAppName, ""))

				logging, err := settings.Logging()
				require.NoError(t, err)
				require.Equal(t, Logging{Level: "debug", HumanReadable: true}, logging)
			},
		},
		{
			name: "hcl attributes are converted",
			file: "groundwork.hcl",
			contents: `APP_NAME = "HCL app"
WORKERS = 4
RATIO = 0.5
PLUGINS = ["gw_plugins_info", "gw_commands_info"]
GROUNDWORK_LOGGING = {
  level = "info"
}
lowercase = true
`,
			assert: func(t *testing.T, settings *Settings, err error) {
				require.NoError(t, err)
				require.Equal(t, "HCL app", settings.String(KeyAppName, ""))
				workers, _ := settings.Get("WORKERS")
				require.Equal(t, 4, workers)
				ratio, _ := settings.Get("RATIO")
				require.Equal(t, 0.5, ratio)
				require.Equal(t, []string{"gw_plugins_info", "gw_commands_info"}, settings.Strings(KeyPlugins))
				_, ok := settings.Get("lowercase")
				require.False(t, ok)

				logging, err := settings.Logging()
				require.NoError(t, err)
				require.Equal(t, "info", logging.Level)
			},
		},
		{
			name:     "invalid yaml returns parse error",
			file:     "broken.yaml",
			contents: "APP_NAME: [unterminated\n",
			assert: func(t *testing.T, settings *Settings, err error) {
				var parseErr *gwerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Nil(t, settings)
			},
		},
		{
			name:     "invalid hcl returns parse error",
			file:     "broken.hcl",
			contents: "APP_NAME = \n",
			assert: func(t *testing.T, settings *Settings, err error) {
				var parseErr *gwerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "FILES is reserved",
			file:     "reserved.yaml",
			contents: "FILES: [a, b]\n",
			assert: func(t *testing.T, settings *Settings, err error) {
				var validationErr *gwerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Equal(t, "FILES", validationErr.Field)
			},
		},
		{
			name:     "unsupported extension",
			file:     "settings.toml",
			contents: "APP_NAME = 'x'\n",
			assert: func(t *testing.T, settings *Settings, err error) {
				require.ErrorContains(t, err, "unsupported configuration format")
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), tc.file, tc.contents)
			settings, err := Load(path)
			tc.assert(t, settings, err)
		})
	}
}

func TestLoadLaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "base.yaml", "APP_NAME: Base\nKEEP: yes\n")
	second := writeFile(t, dir, "override.hcl", "APP_NAME = \"Override\"\n")

	settings, err := Load(first, second)
	require.NoError(t, err)
	require.Equal(t, "Override", settings.String(KeyAppName, ""))
	require.Equal(t, "yes", settings.String("KEEP", ""))
	require.Equal(t, []string{first, second}, settings.Files())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var parseErr *gwerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSettingsSetAndAccessors(t *testing.T) {
	settings := NewSettings()

	require.NoError(t, settings.Set("MY_PARAM", "one", false))
	require.Error(t, settings.Set("MY_PARAM", "two", false))
	require.NoError(t, settings.Set("MY_PARAM", "two", true))
	require.Equal(t, "two", settings.String("MY_PARAM", "fallback"))
	require.Equal(t, "fallback", settings.String("UNSET", "fallback"))

	require.Error(t, settings.Set("lower", 1, false))
	require.Error(t, settings.Set("FILES", 1, false))

	require.NoError(t, settings.Set(KeyStrict, "true", false))
	strict, ok := settings.Bool(KeyStrict)
	require.True(t, ok)
	require.True(t, strict)

	require.NoError(t, settings.Set(KeyPlugins, "a, b c", false))
	require.Equal(t, []string{"a", "b", "c"}, settings.Strings(KeyPlugins))
}

func TestLoggingSectionIsValidated(t *testing.T) {
	settings := NewSettings()
	require.NoError(t, settings.Set(KeyLogging, map[string]any{"level": "chatty"}, false))

	_, err := settings.Logging()
	var validationErr *gwerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "groundwork_logging.level", validationErr.Field)

	empty, err := NewSettings().Logging()
	require.NoError(t, err)
	require.Equal(t, Logging{}, empty)
}
