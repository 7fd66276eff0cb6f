package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Target
		wantErr bool
	}{
		{
			name:  "registry with port and tag",
			input: "oci://localhost:5000/fossil/xtest:1.1.2",
			want:  Target{Registry: "localhost:5000", Repository: "fossil/xtest", Tag: "1.1.2"},
		},
		{
			name:  "no tag",
			input: "oci://ghcr.io/fossil-lib/xtest",
			want:  Target{Registry: "ghcr.io", Repository: "fossil-lib/xtest"},
		},
		{
			name:  "docker hub shorthand",
			input: "oci://fossil/xtest:dev",
			want:  Target{Registry: "docker.io", Repository: "fossil/xtest", Tag: "dev"},
		},
		{name: "missing scheme", input: "ghcr.io/fossil-lib/xtest", wantErr: true},
		{name: "uppercase repository", input: "oci://ghcr.io/Fossil/XTest", wantErr: true},
		{
			name:    "digest",
			input:   "oci://ghcr.io/fossil-lib/xtest@sha256:" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestTargetString(t *testing.T) {
	target := &Target{Registry: "ghcr.io", Repository: "fossil-lib/xtest"}
	assert.Equal(t, "ghcr.io/fossil-lib/xtest", target.String())

	tagged := target.WithTag("1.1.2")
	assert.Equal(t, "ghcr.io/fossil-lib/xtest:1.1.2", tagged.String())
	assert.Empty(t, target.Tag)
}

func TestDefaultTag(t *testing.T) {
	assert.Equal(t, "1.1.2-0123456789ab", DefaultTag("1.1.2", "0123456789abcdef0123"))
	assert.Equal(t, "1.0_rc1-abc", DefaultTag("1.0+rc1", "abc"))
}

func TestAnnotations(t *testing.T) {
	a := Annotations("xtest", "1.1.2", "MPL-2.0", "", "abc")
	assert.Equal(t, "xtest", a["org.opencontainers.image.title"])
	assert.Equal(t, "1.1.2", a["org.opencontainers.image.version"])
	assert.Equal(t, "MPL-2.0", a["org.opencontainers.image.licenses"])
	assert.NotContains(t, a, "org.opencontainers.image.source")
	assert.Equal(t, "abc", a["org.fossil.xpkg.package_id"])
}

func TestPushRequiresTag(t *testing.T) {
	_, err := Push(context.Background(), Options{
		SourceDir: t.TempDir(),
		Target:    &Target{Registry: "localhost:5000", Repository: "xtest"},
	})
	assert.Error(t, err)
}
