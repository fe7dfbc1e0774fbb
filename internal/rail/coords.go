package rail

// DefaultCoordinate is used for stations missing from the coordinate table so
// a renderer always has somewhere to put the marker.
var DefaultCoordinate = GeoCoordinate{Lat: -6.2, Lng: 106.8}

var coordinates = map[string]GeoCoordinate{
	"Jakarta Gambir":      {-6.1754, 106.8272},
	"Jakarta Pasar Senen": {-6.1744, 106.8406},
	"Jatinegara":          {-6.2153, 106.8707},
	"Bekasi":              {-6.2383, 106.9756},
	"Cikampek":            {-6.4175, 107.4575},
	"Purwakarta":          {-6.5567, 107.4331},
	"Padalarang":          {-6.8388, 107.4769},
	"Cimahi":              {-6.8771, 107.5426},
	"Bandung":             {-6.9175, 107.6191},
	"Cirebon":             {-6.7063, 108.5571},
	"Brebes":              {-6.8731, 109.0424},
	"Tegal":               {-6.8694, 109.1402},
	"Pekalongan":          {-6.8886, 109.6753},
	"Semarang":            {-6.9667, 110.4167},
	"Semarang Tawang":     {-6.9667, 110.4167},
	"Yogyakarta":          {-7.7956, 110.3695},
	"Solo":                {-7.5563, 110.8316},
	"Madiun":              {-7.6298, 111.5239},
	"Kertosono":           {-7.5851, 112.0998},
	"Mojokerto":           {-7.4664, 112.4336},
	"Surabaya Gubeng":     {-7.2653, 112.7516},
	"Surabaya Pasar Turi": {-7.2492, 112.7349},
	"Malang":              {-7.9666, 112.6326},
	"Blitar":              {-8.0983, 112.1681},
}

func Coordinate(name string) (GeoCoordinate, bool) {
	c, ok := coordinates[name]
	return c, ok
}

func CoordinateOrDefault(name string) GeoCoordinate {
	if c, ok := coordinates[name]; ok {
		return c
	}
	return DefaultCoordinate
}
