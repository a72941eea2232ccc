package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForHeader(t *testing.T) {
	tests := []struct {
		header string
		want   Kind
	}{
		{"Timestamp", KindTimestamp},
		{"UnixTimestamp", KindUnixTimestamp},
		{"Voltage", KindVoltage},
		{"Temperature", KindTemperature},
		{"IsActive", KindIsActive},
		{"timestamp", KindText},
		{"Pressure", KindText},
		{"", KindText},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, KindForHeader(tt.header))
		})
	}
}

func TestPositions(t *testing.T) {
	for i, k := range RecognizedKinds {
		assert.Equal(t, i+1, CanonicalPosition(k))
		assert.Equal(t, k, KindForPosition(i+1))
	}
	assert.Equal(t, 0, CanonicalPosition(KindText))
	assert.Equal(t, KindText, KindForPosition(0))
	assert.Equal(t, KindText, KindForPosition(6))
}

func TestBuildColumns(t *testing.T) {
	cols := BuildColumns([]string{"Voltage", "Site", "Timestamp", "Voltage"})

	assert.Equal(t, []Column{
		{Name: "Voltage", Index: 0, Kind: KindVoltage},
		{Name: "Site", Index: 1, Kind: KindText},
		{Name: "Timestamp", Index: 2, Kind: KindTimestamp},
		{Name: "Voltage", Index: 3, Kind: KindText},
	}, cols)

	table := &Table{Columns: cols}
	assert.Equal(t, 2, table.RecognizedCount())

	c, ok := table.Column(KindTimestamp)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Index)

	_, ok = table.Column(KindIsActive)
	assert.False(t, ok)
}
