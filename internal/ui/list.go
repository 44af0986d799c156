package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/aria/internal/models"
)

var _ list.Item = stationItem{}

// stationItem wraps [models.Station] to implement [list.Item].
type stationItem struct {
	station models.Station
}

func (i stationItem) FilterValue() string { return i.station.Name }
func (i stationItem) Title() string       { return i.station.Name }
func (i stationItem) Description() string {
	if i.station.IsQuickMix {
		return "shuffle mix of your stations"
	}
	return "station"
}
