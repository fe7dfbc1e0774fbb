package fleet

const (
	StatusOnTime  = "TEPAT WAKTU"
	StatusDelayed = "TERLAMBAT"
)

// Train is one simulated fleet train. Progress is the fraction of its
// station list covered and is only changed by ticks.
type Train struct {
	ID        string   `json:"id"`
	Number    string   `json:"trainNumber"`
	Name      string   `json:"name"`
	Class     string   `json:"class"`
	Route     string   `json:"route"`
	Stations  []string `json:"stations"`
	Color     string   `json:"color"`
	Speed     float64  `json:"speed"`
	Progress  float64  `json:"routeProgress"`
	Departure string   `json:"departure"`
	Arrival   string   `json:"arrival"`
	Platform  string   `json:"platform"`
	Status    string   `json:"status"`
	Delay     int      `json:"delay"`
}

func (t Train) clone() Train {
	t.Stations = append([]string(nil), t.Stations...)
	return t
}

// DefaultRoster returns fresh copies of the demo fleet.
func DefaultRoster() []Train {
	return []Train{
		{
			ID: "10501", Number: "10501", Name: "Argo Bromo Anggrek", Class: "Eksekutif",
			Route:    "Jakarta Gambir → Surabaya Pasar Turi",
			Stations: []string{"Jakarta Gambir", "Cikampek", "Cirebon", "Semarang", "Solo", "Mojokerto", "Surabaya Pasar Turi"},
			Color:    "#f59e0b", Speed: 88, Progress: 0.3,
			Departure: "19:10", Arrival: "05:30", Platform: "Platform 1", Status: StatusOnTime,
		},
		{
			ID: "10502", Number: "10502", Name: "Jayabaya", Class: "Bisnis",
			Route:    "Jakarta Pasar Senen → Malang",
			Stations: []string{"Jakarta Pasar Senen", "Bekasi", "Cikampek", "Yogyakarta", "Solo", "Madiun", "Kertosono", "Malang"},
			Color:    "#ef4444", Speed: 80, Progress: 0.6,
			Departure: "20:00", Arrival: "07:15", Platform: "Platform 2", Status: StatusDelayed, Delay: 15,
		},
		{
			ID: "10503", Number: "10503", Name: "Taksaka", Class: "Eksekutif",
			Route:    "Jakarta Gambir → Yogyakarta",
			Stations: []string{"Jakarta Gambir", "Cikampek", "Cirebon", "Semarang", "Yogyakarta"},
			Color:    "#8b5cf6", Speed: 67, Progress: 0.45,
			Departure: "07:00", Arrival: "15:30", Platform: "Platform 3", Status: StatusOnTime,
		},
		{
			ID: "10504", Number: "10504", Name: "Gajayana", Class: "Eksekutif",
			Route:    "Jakarta Gambir → Malang",
			Stations: []string{"Jakarta Gambir", "Cikampek", "Cirebon", "Semarang", "Solo", "Madiun", "Kertosono", "Malang"},
			Color:    "#06b6d4", Speed: 85, Progress: 0.25,
			Departure: "18:00", Arrival: "04:45", Platform: "Platform 1", Status: StatusOnTime,
		},
		{
			ID: "10505", Number: "10505", Name: "Lodaya", Class: "Bisnis",
			Route:    "Jakarta Gambir → Bandung",
			Stations: []string{"Jakarta Gambir", "Cikampek", "Purwakarta", "Padalarang", "Cimahi", "Bandung"},
			Color:    "#10b981", Speed: 75, Progress: 0.7,
			Departure: "15:30", Arrival: "18:45", Platform: "Platform 4", Status: StatusOnTime,
		},
		{
			ID: "10506", Number: "10506", Name: "Matarmaja", Class: "Ekonomi Plus",
			Route:    "Jakarta Pasar Senen → Semarang Tawang",
			Stations: []string{"Jakarta Pasar Senen", "Bekasi", "Cikampek", "Cirebon", "Semarang Tawang"},
			Color:    "#f97316", Speed: 82, Progress: 0.4,
			Departure: "14:00", Arrival: "21:30", Platform: "Platform 2", Status: StatusOnTime,
		},
	}
}
