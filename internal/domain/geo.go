package domain

import "encoding/json"

// Coordinates is an immutable latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// MarshalJSON renders the pair as [lat, lon], the order map clients draw in.
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

// UnmarshalJSON accepts the same [lat, lon] pair shape.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Lat, c.Lon = pair[0], pair[1]
	return nil
}

// Polyline is an ordered path of points, front = start, back = end.
type Polyline []Coordinates
