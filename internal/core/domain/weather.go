package domain

import "fmt"

type Location struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// Weather holds current conditions in metric units.
type Weather struct {
	Temperature float64
	Humidity    float64
	Pressure    float64
	WindSpeed   float64
}

// Summary renders the conditions the way the /weather endpoint returns them.
func (w Weather) Summary() string {
	return fmt.Sprintf("Lämpötila: %v °C Kosteus: %v %% Ilmanpaine: %v hPa Tuulennopeus: %v m/s",
		w.Temperature, w.Humidity, w.Pressure, w.WindSpeed)
}
