package quatt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedValue(t *testing.T) {
	feed := decodeFeed(t, `{
		"hp1": {"temperatureOutside": 4.5, "silentModeStatus": false},
		"heatPumps": [{"oduType": "AMM4-V2.0"}, {"oduType": "AMM4"}],
		"boiler": null
	}`)

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"hp1.temperatureOutside", 4.5, true},
		{"hp1.silentModeStatus", false, true},
		{"heatPumps.0.oduType", "AMM4-V2.0", true},
		{"heatPumps.1.oduType", "AMM4", true},
		{"heatPumps.2.oduType", nil, false},
		{"heatPumps.x", nil, false},
		{"hp2.power", nil, false},
		{"boiler", nil, false},
		{"boiler.otFbChModeActive", nil, false},
		{"hp1.temperatureOutside.deeper", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, ok := feed.Value(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	assert.Equal(t, 2, feed.Len("heatPumps"))
	assert.Equal(t, 0, feed.Len("hp1"))
	assert.True(t, feed.Has("hp1"))
	assert.False(t, Feed(nil).Has("hp1"))
}
