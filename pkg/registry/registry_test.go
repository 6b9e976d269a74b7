// pkg/registry/registry_test.go
package registry

import (
	"testing"

	"agrimarket-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedRegistryPath = "../../configs/activity-registry.json"

func TestLoadRegistry_ShippedCatalog(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistryPath)
	require.NoError(t, err)

	expected := []string{
		"score-farmer-credit",
		"match-loan-offers",
		"evaluate-weather-rules",
		"build-recommendation-bundle",
		"send-alert-notification",
	}
	require.Len(t, reg.Activities, len(expected))
	for _, id := range expected {
		act := reg.Find(id)
		require.NotNil(t, act, "activity %s missing from catalog", id)
		assert.Equal(t, id, act.TaskType)
		assert.NotEmpty(t, act.Category)
		assert.NotEmpty(t, act.ErrorCodes)
	}

	assert.Nil(t, reg.Find("no-such-activity"))
}

// The documented creditBand enum has to match what the scoring worker
// actually emits.
func TestShippedCatalog_CreditBandEnum(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistryPath)
	require.NoError(t, err)

	act := reg.Find("score-farmer-credit")
	require.NotNil(t, act)

	props, ok := act.OutputSchema["properties"].(map[string]interface{})
	require.True(t, ok)
	band, ok := props["creditBand"].(map[string]interface{})
	require.True(t, ok)
	enum, ok := band["enum"].([]interface{})
	require.True(t, ok)

	var got []string
	for _, v := range enum {
		got = append(got, v.(string))
	}
	assert.ElementsMatch(t, []string{
		string(models.BandExcellent),
		string(models.BandGood),
		string(models.BandFair),
	}, got)
}
