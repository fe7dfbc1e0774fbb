package rail

import (
	"strings"
)

const stopDwellMillis = 2000

func stop(name, at string) Station {
	return Station{Name: name, ScheduledTime: at, DwellMillis: stopDwellMillis}
}

func terminal(name, at string) Station {
	return Station{Name: name, ScheduledTime: at}
}

// routeTable is keyed by "<origin city>-<destination city>".
var routeTable = map[string][]Station{
	"Cimahi-Jakarta Gambir": {
		stop("Cimahi", "08:00"),
		stop("Bandung", "08:25"),
		stop("Bekasi", "10:15"),
		stop("Jatinegara", "11:00"),
		terminal("Jakarta Gambir", "11:30"),
	},
	"Bandung-Jakarta Gambir": {
		stop("Bandung", "08:00"),
		stop("Bekasi", "09:45"),
		stop("Jatinegara", "10:30"),
		terminal("Jakarta Gambir", "11:00"),
	},
	"Jakarta Gambir-Bandung": {
		stop("Jakarta Gambir", "08:00"),
		stop("Jatinegara", "08:30"),
		stop("Bekasi", "09:15"),
		terminal("Bandung", "11:00"),
	},
	"Jakarta Gambir-Surabaya Gubeng": {
		stop("Jakarta Gambir", "08:00"),
		stop("Cirebon", "11:30"),
		stop("Semarang", "14:00"),
		terminal("Surabaya Gubeng", "18:00"),
	},
	"Surabaya Gubeng-Jakarta Gambir": {
		stop("Surabaya Gubeng", "08:00"),
		stop("Semarang", "12:00"),
		stop("Cirebon", "14:30"),
		terminal("Jakarta Gambir", "18:00"),
	},
	"Jakarta Gambir-Yogyakarta": {
		stop("Jakarta Gambir", "08:00"),
		stop("Cirebon", "11:30"),
		stop("Semarang", "14:00"),
		terminal("Yogyakarta", "16:30"),
	},
	"Yogyakarta-Jakarta Gambir": {
		stop("Yogyakarta", "08:00"),
		stop("Semarang", "10:30"),
		stop("Cirebon", "13:00"),
		terminal("Jakarta Gambir", "16:30"),
	},
}

// Resolve returns the stop list between two cities. Unknown pairs degrade to
// a synthetic two-station route rather than failing.
func Resolve(originCity, destCity string) Route {
	originCity = strings.TrimSpace(originCity)
	destCity = strings.TrimSpace(destCity)
	if stations, ok := routeTable[originCity+"-"+destCity]; ok {
		out := make([]Station, len(stations))
		copy(out, stations)
		return Route{Origin: originCity, Destination: destCity, Stations: out}
	}
	return Route{
		Origin:      originCity,
		Destination: destCity,
		Stations: []Station{
			stop(originCity, "08:00"),
			terminal(destCity, "11:00"),
		},
		Fallback: true,
	}
}

// ResolveStations resolves a route from booking station labels such as
// "Bandung (BD)".
func ResolveStations(origin, destination string) Route {
	return Resolve(CityOf(origin), CityOf(destination))
}

// CityOf strips the " (<CODE>)" suffix from a station label.
func CityOf(label string) string {
	if i := strings.Index(label, " ("); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}
