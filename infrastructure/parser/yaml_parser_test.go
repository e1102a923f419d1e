package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYamlConfigParser_Parse(t *testing.T) {
	p := NewYamlConfigParser()

	t.Run("nested document", func(t *testing.T) {
		out, err := p.Parse([]byte(`
script_path: /opt/scripts
module: greeter
search_paths:
  - /usr/share/scripts
log:
  level: debug
`))
		require.NoError(t, err)
		assert.Equal(t, "/opt/scripts", out["script_path"])
		assert.Equal(t, "greeter", out["module"])
		assert.Equal(t, []any{"/usr/share/scripts"}, out["search_paths"])
		assert.Equal(t, map[string]any{"level": "debug"}, out["log"])
	})

	t.Run("empty document", func(t *testing.T) {
		out, err := p.Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		_, err := p.Parse([]byte("module: [unterminated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML config")
	})

	t.Run("top level must be a mapping", func(t *testing.T) {
		_, err := p.Parse([]byte("- a\n- b\n"))
		require.Error(t, err)
	})
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(map[string]any{"module": "py_script"})
	require.NoError(t, err)
	assert.Equal(t, "module: py_script\n", string(out))
}
