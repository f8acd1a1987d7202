package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageNameNormalizes(t *testing.T) {
	cases := []struct {
		input string
		want  PackageName
	}{
		{"flask", "flask"},
		{"Flask", "flask"},
		{"Flask_Login", "flask-login"},
		{"zope.interface", "zope-interface"},
		{"ruamel.yaml.clib", "ruamel-yaml-clib"},
		{"a", "a"},
		{"typing--extensions", "typing-extensions"},
	}
	for _, tc := range cases {
		name, err := ParsePackageName(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, name, tc.input)
	}
}

func TestParsePackageNameRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "-flask", "flask-", ".flask", "flask!", "fla sk", "名前"} {
		_, err := ParsePackageName(input)
		assert.Error(t, err, input)
	}
}

func TestRequirementString(t *testing.T) {
	req := Requirement{Name: "flask", Extras: []string{"async"}, Specifier: ">=2.0"}
	assert.Equal(t, "flask[async]>=2.0", req.String())

	req = Requirement{Name: "anyio", Marker: `python_version >= "3.8"`}
	assert.Equal(t, `anyio ; python_version >= "3.8"`, req.String())
}
