package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	fp, err := Fingerprint("RETURN $param0", map[string]any{"param0": 1})
	require.NoError(t, err)

	assert.Len(t, fp, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", fp)
}

func TestFingerprintStable(t *testing.T) {
	params := map[string]any{"param0": "a", "param1": []any{1, 2}}
	assert.Equal(t,
		MustFingerprint("RETURN $param0, $param1", params),
		MustFingerprint("RETURN $param0, $param1", map[string]any{"param1": []any{1, 2}, "param0": "a"}),
	)
}

func TestFingerprintDistinguishesInputs(t *testing.T) {
	base := MustFingerprint("RETURN $param0", map[string]any{"param0": 1})

	assert.NotEqual(t, base, MustFingerprint("RETURN $param0", map[string]any{"param0": 2}))
	assert.NotEqual(t, base, MustFingerprint("RETURN  $param0", map[string]any{"param0": 1}))
	assert.NotEqual(t, base, MustFingerprint("RETURN $param0", map[string]any{"param1": 1}))
}

func TestFingerprintNilParams(t *testing.T) {
	assert.Equal(t, MustFingerprint("RETURN 1", nil), MustFingerprint("RETURN 1", map[string]any{}))
}

func TestFingerprintDomainSeparated(t *testing.T) {
	data, err := Marshal(map[string]any{"cypher": "RETURN 1", "params": map[string]any{}})
	require.NoError(t, err)

	assert.Equal(t, hashWithDomain(DomainQuery, data), MustFingerprint("RETURN 1", nil))
	assert.NotEqual(t, hashWithDomain("other/v1", data), MustFingerprint("RETURN 1", nil))
}

func TestFingerprintRejectsNonFinite(t *testing.T) {
	_, err := Fingerprint("RETURN $x", map[string]any{"x": []float64{1, 0}})
	require.NoError(t, err)

	zero := 0.0
	_, err = Fingerprint("RETURN $x", map[string]any{"x": 1 / zero})
	assert.Error(t, err)
}
