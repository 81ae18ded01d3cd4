package domain

// MapActionType discriminates the map instructions a chat turn can produce.
type MapActionType string

const (
	MapActionNewRoute MapActionType = "new_route"
	MapActionAddPin   MapActionType = "add_pin"
)

// MapAction is the structured instruction returned to the frontend describing
// what, if anything, to draw on the map. A nil *MapAction means "draw
// nothing" and serializes as JSON null. Coords holds either a Polyline
// (new_route) or a single Coordinates pair (add_pin); both marshal as
// [lat, lon] pairs. Actions are constructed once per turn and never mutated.
type MapAction struct {
	Type   MapActionType `json:"type"`
	Coords any           `json:"coords"`
	Popup  string        `json:"popup"`
}

// NewRouteAction builds the action that draws a full route polyline.
func NewRouteAction(route Polyline, popup string) *MapAction {
	return &MapAction{Type: MapActionNewRoute, Coords: route, Popup: popup}
}

// AddPinAction builds the action that drops a single pin.
func AddPinAction(at Coordinates, popup string) *MapAction {
	return &MapAction{Type: MapActionAddPin, Coords: at, Popup: popup}
}
